package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/store"
	"github.com/pathforge/pathforge-api/internal/task"
	"github.com/pathforge/pathforge-api/internal/workflow"
)

// GenerationWorkflow drives one generation request to a terminal result.
// Satisfied by *workflow.Orchestrator.
type GenerationWorkflow interface {
	Run(ctx context.Context, req domain.GenerationRequest) (*workflow.Result, error)
}

// ReferenceValidator turns a finalized draft into a validated curriculum.
// Satisfied by *validation.Validator.
type ReferenceValidator interface {
	Validate(ctx context.Context, draft *domain.CurriculumDraft) (*domain.ValidatedCurriculum, error)
}

// TaskRunner defines the interface for submitting tasks to the worker pool
type TaskRunner interface {
	// Submit adds a task to the processing queue
	Submit(ctx context.Context, task task.Task) error
}

// GenerationOutcome is the full result of a synchronous generation call:
// the persisted path plus the run metadata the API reports alongside it.
type GenerationOutcome struct {
	JobID                uuid.UUID
	Status               domain.JobStatus
	Path                 *domain.LearningPath
	IterationCount       int
	QualityScore         float64
	Approved             bool
	MaxIterationsReached bool
	GenerationTime       time.Duration
}

// PathService provides learning path operations
type PathService interface {
	// Generate runs the full generation workflow for the request and blocks
	// until a terminal outcome: an approved path, the best-effort path of an
	// exhausted run, or ErrGenerationFailed. Returns ErrServerBusy when no
	// worker capacity is available.
	Generate(ctx context.Context, req domain.GenerationRequest) (*GenerationOutcome, error)

	// GetPath retrieves a path with its full curriculum
	GetPath(ctx context.Context, id uuid.UUID) (*domain.LearningPath, error)

	// GetPathBySlug retrieves a path by slug with its full curriculum
	GetPathBySlug(ctx context.Context, slug string) (*domain.LearningPath, error)

	// ListPaths retrieves path summaries matching the filters
	ListPaths(ctx context.Context, filters domain.PathFilters) ([]*domain.LearningPath, error)

	// DeletePath removes a path and its curriculum
	DeletePath(ctx context.Context, id uuid.UUID) error

	// GetJob retrieves a generation job by ID
	GetJob(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error)
}

// PathServiceError wraps errors from the path service with context.
type PathServiceError struct {
	// Operation is the operation that failed (e.g., "generate", "get_path")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for PathServiceError.
func (e *PathServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("path service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("path service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *PathServiceError) Unwrap() error {
	return e.Err
}

// NewPathServiceError creates a new PathServiceError.
// It maps known store sentinels to their service-level counterparts and
// returns those directly without wrapping.
func NewPathServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrPathNotFound) || errors.Is(err, store.ErrPathNotFound) {
		return ErrPathNotFound
	}
	if errors.Is(err, ErrJobNotFound) || errors.Is(err, store.ErrJobNotFound) {
		return ErrJobNotFound
	}

	return &PathServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// pathServiceImpl implements the PathService interface
type pathServiceImpl struct {
	jobStore  store.JobStore
	pathStore store.PathStore
	workflow  GenerationWorkflow
	validator ReferenceValidator
	runner    TaskRunner
	logger    *slog.Logger
}

// NewPathService creates a new PathService.
// It returns an error if any of the required dependencies are nil.
func NewPathService(
	jobStore store.JobStore,
	pathStore store.PathStore,
	generationWorkflow GenerationWorkflow,
	validator ReferenceValidator,
	runner TaskRunner,
	logger *slog.Logger,
) (PathService, error) {
	if jobStore == nil {
		return nil, &PathServiceError{Operation: "create_service", Message: "jobStore cannot be nil"}
	}
	if pathStore == nil {
		return nil, &PathServiceError{Operation: "create_service", Message: "pathStore cannot be nil"}
	}
	if generationWorkflow == nil {
		return nil, &PathServiceError{Operation: "create_service", Message: "workflow cannot be nil"}
	}
	if validator == nil {
		return nil, &PathServiceError{Operation: "create_service", Message: "validator cannot be nil"}
	}
	if runner == nil {
		return nil, &PathServiceError{Operation: "create_service", Message: "runner cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &pathServiceImpl{
		jobStore:  jobStore,
		pathStore: pathStore,
		workflow:  generationWorkflow,
		validator: validator,
		runner:    runner,
		logger:    logger.With("component", "path_service"),
	}, nil
}

// Generate runs one generation request end to end: it records a job, executes
// the workflow on the worker pool, validates the resulting draft's resources,
// and atomically persists the terminal status with the learning path.
func (s *pathServiceImpl) Generate(
	ctx context.Context,
	req domain.GenerationRequest,
) (*GenerationOutcome, error) {
	job, err := domain.NewGenerationJob(req)
	if err != nil {
		// Request validation errors pass through unwrapped so the API layer
		// can map them to 400 with the domain sentinel.
		return nil, err
	}

	log := s.logger.With(
		"job_id", job.ID,
		"topic", req.Topic,
	)

	if err := s.jobStore.Create(ctx, job); err != nil {
		log.Error("failed to create generation job", "error", err)
		return nil, NewPathServiceError("generate", "failed to create job", err)
	}

	if err := s.jobStore.MarkRunning(ctx, job.ID); err != nil {
		log.Error("failed to mark job running", "error", err)
		return nil, NewPathServiceError("generate", "failed to mark job running", err)
	}

	started := time.Now()

	var result *workflow.Result
	genTask := task.NewGenerationTask(ctx, func(runCtx context.Context) error {
		var runErr error
		result, runErr = s.workflow.Run(runCtx, req)
		return runErr
	})

	if err := s.runner.Submit(ctx, genTask); err != nil {
		s.failJob(ctx, job.ID, "no generation capacity available")
		if errors.Is(err, task.ErrQueueFull) || errors.Is(err, task.ErrQueueClosed) {
			log.Warn("generation rejected, worker pool saturated", "error", err)
			return nil, ErrServerBusy
		}
		return nil, NewPathServiceError("generate", "failed to submit generation task", err)
	}

	if err := genTask.Wait(ctx); err != nil {
		// The workflow returns an error only on cancellation, so the client
		// is gone. Record the abort for operators; the response is moot.
		log.Warn("generation run aborted", "error", err)
		s.failJob(ctx, job.ID, fmt.Sprintf("run aborted: %v", err))
		return nil, NewPathServiceError("generate", "generation run aborted", err)
	}

	elapsed := time.Since(started)
	log = log.With(
		"status", result.Status,
		"iterations", result.Iterations,
		"quality_score", result.Score,
	)

	if result.Status == domain.JobStatusFailed {
		log.Error("generation failed without artifact", "reason", result.Reason)
		if _, cerr := s.jobStore.Complete(ctx, store.CompleteParams{
			JobID:        job.ID,
			Status:       domain.JobStatusFailed,
			Iterations:   result.Iterations,
			ErrorMessage: result.Reason,
		}); cerr != nil && !errors.Is(cerr, store.ErrJobAlreadyTerminal) {
			log.Error("failed to record job failure", "error", cerr)
		}
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, result.Reason)
	}

	validated, err := s.validator.Validate(ctx, result.Draft)
	if err != nil {
		log.Warn("reference validation aborted", "error", err)
		s.failJob(ctx, job.ID, fmt.Sprintf("validation aborted: %v", err))
		return nil, NewPathServiceError("generate", "reference validation aborted", err)
	}

	path, err := s.jobStore.Complete(ctx, store.CompleteParams{
		JobID:        job.ID,
		Status:       result.Status,
		Curriculum:   validated,
		QualityScore: result.Score,
		Iterations:   result.Iterations,
		Approved:     result.Approved,
		ErrorMessage: completionMessage(result),
	})
	if err != nil {
		log.Error("failed to persist generation result", "error", err)
		return nil, NewPathServiceError("generate", "failed to persist generation result", err)
	}

	log.Info("generation completed",
		"path_id", path.ID,
		"slug", path.Slug,
		"approved", result.Approved,
		"generation_time", elapsed)

	return &GenerationOutcome{
		JobID:                job.ID,
		Status:               result.Status,
		Path:                 path,
		IterationCount:       result.Iterations,
		QualityScore:         result.Score,
		Approved:             result.Approved,
		MaxIterationsReached: result.MaxIterationsReached,
		GenerationTime:       elapsed,
	}, nil
}

// failJob records a terminal failed status for the job. It runs on a context
// detached from the request so a client hang-up cannot leave the job stuck in
// running. Best effort: a second terminal write is rejected by the store and
// ignored here.
func (s *pathServiceImpl) failJob(ctx context.Context, jobID uuid.UUID, reason string) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	_, err := s.jobStore.Complete(writeCtx, store.CompleteParams{
		JobID:        jobID,
		Status:       domain.JobStatusFailed,
		ErrorMessage: reason,
	})
	if err != nil && !errors.Is(err, store.ErrJobAlreadyTerminal) {
		s.logger.Error("failed to record job failure",
			"job_id", jobID,
			"reason", reason,
			"error", err)
	}
}

// completionMessage summarizes a non-approved terminal outcome for the job
// record. Approved runs carry no message.
func completionMessage(result *workflow.Result) string {
	if result.Approved {
		return ""
	}
	return result.Reason
}

// GetPath retrieves a path with its full curriculum
func (s *pathServiceImpl) GetPath(ctx context.Context, id uuid.UUID) (*domain.LearningPath, error) {
	path, err := s.pathStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrPathNotFound) {
			return nil, ErrPathNotFound
		}
		s.logger.Error("failed to retrieve path", "error", err, "path_id", id)
		return nil, NewPathServiceError("get_path", "failed to retrieve path", err)
	}
	return path, nil
}

// GetPathBySlug retrieves a path by slug with its full curriculum
func (s *pathServiceImpl) GetPathBySlug(ctx context.Context, slug string) (*domain.LearningPath, error) {
	path, err := s.pathStore.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, store.ErrPathNotFound) {
			return nil, ErrPathNotFound
		}
		s.logger.Error("failed to retrieve path by slug", "error", err, "slug", slug)
		return nil, NewPathServiceError("get_path_by_slug", "failed to retrieve path", err)
	}
	return path, nil
}

// ListPaths retrieves path summaries matching the filters
func (s *pathServiceImpl) ListPaths(
	ctx context.Context,
	filters domain.PathFilters,
) ([]*domain.LearningPath, error) {
	paths, err := s.pathStore.List(ctx, filters)
	if err != nil {
		s.logger.Error("failed to list paths", "error", err)
		return nil, NewPathServiceError("list_paths", "failed to list paths", err)
	}
	return paths, nil
}

// DeletePath removes a path and its curriculum
func (s *pathServiceImpl) DeletePath(ctx context.Context, id uuid.UUID) error {
	if err := s.pathStore.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrPathNotFound) {
			return ErrPathNotFound
		}
		s.logger.Error("failed to delete path", "error", err, "path_id", id)
		return NewPathServiceError("delete_path", "failed to delete path", err)
	}

	s.logger.Info("path deleted", "path_id", id)
	return nil
}

// GetJob retrieves a generation job by ID
func (s *pathServiceImpl) GetJob(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	job, err := s.jobStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		s.logger.Error("failed to retrieve job", "error", err, "job_id", id)
		return nil, NewPathServiceError("get_job", "failed to retrieve job", err)
	}
	return job, nil
}
