package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/store"
	"github.com/pathforge/pathforge-api/internal/task"
	"github.com/pathforge/pathforge-api/internal/workflow"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeJobStore is an in-memory store.JobStore that records calls.
type fakeJobStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*domain.GenerationJob
	completed []store.CompleteParams

	createErr   error
	completeErr error
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[uuid.UUID]*domain.GenerationJob)}
}

func (f *fakeJobStore) Create(ctx context.Context, job *domain.GenerationJob) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Status = domain.JobStatusRunning
	return nil
}

func (f *fakeJobStore) Complete(ctx context.Context, params store.CompleteParams) (*domain.LearningPath, error) {
	if f.completeErr != nil {
		return nil, f.completeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	job, ok := f.jobs[params.JobID]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	if job.Status.IsTerminal() {
		return nil, store.ErrJobAlreadyTerminal
	}
	job.Status = params.Status
	f.completed = append(f.completed, params)

	if params.Curriculum == nil {
		return nil, nil
	}
	return &domain.LearningPath{
		ID:           uuid.New(),
		Slug:         params.Curriculum.ID,
		Title:        params.Curriculum.Title,
		QualityScore: params.QualityScore,
		Approved:     params.Approved,
	}, nil
}

func (f *fakeJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeJobStore) WithTx(tx *sql.Tx) store.JobStore { return f }

func (f *fakeJobStore) lastCompletion(t *testing.T) store.CompleteParams {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.completed)
	return f.completed[len(f.completed)-1]
}

// fakePathStore is an in-memory store.PathStore.
type fakePathStore struct {
	paths   map[uuid.UUID]*domain.LearningPath
	listErr error
}

func newFakePathStore() *fakePathStore {
	return &fakePathStore{paths: make(map[uuid.UUID]*domain.LearningPath)}
}

func (f *fakePathStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningPath, error) {
	path, ok := f.paths[id]
	if !ok {
		return nil, store.ErrPathNotFound
	}
	return path, nil
}

func (f *fakePathStore) GetBySlug(ctx context.Context, slug string) (*domain.LearningPath, error) {
	for _, path := range f.paths {
		if path.Slug == slug {
			return path, nil
		}
	}
	return nil, store.ErrPathNotFound
}

func (f *fakePathStore) List(ctx context.Context, filters domain.PathFilters) ([]*domain.LearningPath, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []*domain.LearningPath{}
	for _, path := range f.paths {
		out = append(out, path)
	}
	return out, nil
}

func (f *fakePathStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.paths[id]; !ok {
		return store.ErrPathNotFound
	}
	delete(f.paths, id)
	return nil
}

func (f *fakePathStore) WithTx(tx *sql.Tx) store.PathStore { return f }

// stubWorkflow returns a canned result.
type stubWorkflow struct {
	result *workflow.Result
	err    error
}

func (s *stubWorkflow) Run(ctx context.Context, req domain.GenerationRequest) (*workflow.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// passthroughValidator marks every resource reachable.
type passthroughValidator struct {
	calls int
	err   error
}

func (v *passthroughValidator) Validate(ctx context.Context, draft *domain.CurriculumDraft) (*domain.ValidatedCurriculum, error) {
	v.calls++
	if v.err != nil {
		return nil, v.err
	}
	out := (*domain.ValidatedCurriculum)(draft.Clone())
	return out, nil
}

func testDraft() *domain.CurriculumDraft {
	draft := &domain.CurriculumDraft{
		ID:    "rust-async",
		Title: "Async Rust",
		Phases: []domain.Phase{
			{
				ID:    "phase-1",
				Title: "Foundations",
				Order: 1,
				Tasks: []domain.Task{
					{ID: "task-1", Title: "Futures by hand", Difficulty: 2, EstimatedHours: 4},
					{ID: "task-2", Title: "Executors", Difficulty: 3, EstimatedHours: 6, Prerequisites: []string{"task-1"}},
				},
			},
		},
	}
	draft.Normalize()
	return draft
}

func testRequest() domain.GenerationRequest {
	return domain.GenerationRequest{
		Topic:           "async rust",
		ExperienceLevel: domain.ExperienceIntermediate,
	}
}

type serviceFixture struct {
	jobs      *fakeJobStore
	paths     *fakePathStore
	validator *passthroughValidator
	runner    *task.Runner
	service   PathService
}

func newServiceFixture(t *testing.T, wf GenerationWorkflow) *serviceFixture {
	t.Helper()

	jobs := newFakeJobStore()
	paths := newFakePathStore()
	validator := &passthroughValidator{}
	runner := task.NewRunner(task.RunnerConfig{WorkerCount: 1, QueueSize: 4}, discardLogger())
	runner.Start()
	t.Cleanup(runner.Stop)

	svc, err := NewPathService(jobs, paths, wf, validator, runner, discardLogger())
	require.NoError(t, err)

	return &serviceFixture{
		jobs:      jobs,
		paths:     paths,
		validator: validator,
		runner:    runner,
		service:   svc,
	}
}

func TestNewPathService_Validation(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobStore()
	paths := newFakePathStore()
	wf := &stubWorkflow{}
	validator := &passthroughValidator{}
	runner := task.NewRunner(task.DefaultRunnerConfig(), discardLogger())

	tests := []struct {
		name string
		fn   func() (PathService, error)
	}{
		{"nil job store", func() (PathService, error) {
			return NewPathService(nil, paths, wf, validator, runner, discardLogger())
		}},
		{"nil path store", func() (PathService, error) {
			return NewPathService(jobs, nil, wf, validator, runner, discardLogger())
		}},
		{"nil workflow", func() (PathService, error) {
			return NewPathService(jobs, paths, nil, validator, runner, discardLogger())
		}},
		{"nil validator", func() (PathService, error) {
			return NewPathService(jobs, paths, wf, nil, runner, discardLogger())
		}},
		{"nil runner", func() (PathService, error) {
			return NewPathService(jobs, paths, wf, validator, nil, discardLogger())
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, err := tt.fn()
			assert.Error(t, err)
			assert.Nil(t, svc)
		})
	}
}

func TestPathService_Generate_Approved(t *testing.T) {
	t.Parallel()

	wf := &stubWorkflow{result: &workflow.Result{
		Status:     domain.JobStatusApproved,
		Draft:      testDraft(),
		Score:      0.91,
		Iterations: 2,
		Approved:   true,
	}}
	fx := newServiceFixture(t, wf)

	outcome, err := fx.service.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusApproved, outcome.Status)
	assert.True(t, outcome.Approved)
	assert.Equal(t, 2, outcome.IterationCount)
	assert.InDelta(t, 0.91, outcome.QualityScore, 1e-9)
	require.NotNil(t, outcome.Path)
	assert.Equal(t, "rust-async", outcome.Path.Slug)

	// The persisted job carries the same terminal status and artifact.
	completion := fx.jobs.lastCompletion(t)
	assert.Equal(t, domain.JobStatusApproved, completion.Status)
	assert.NotNil(t, completion.Curriculum)
	assert.Empty(t, completion.ErrorMessage)
	assert.Equal(t, 1, fx.validator.calls)
}

func TestPathService_Generate_ExhaustedKeepsBestDraft(t *testing.T) {
	t.Parallel()

	wf := &stubWorkflow{result: &workflow.Result{
		Status:               domain.JobStatusExhausted,
		Draft:                testDraft(),
		Score:                0.78,
		Iterations:           5,
		Approved:             false,
		MaxIterationsReached: true,
		Reason:               "iteration budget exhausted",
	}}
	fx := newServiceFixture(t, wf)

	outcome, err := fx.service.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.JobStatusExhausted, outcome.Status)
	assert.False(t, outcome.Approved)
	assert.True(t, outcome.MaxIterationsReached)
	require.NotNil(t, outcome.Path)

	completion := fx.jobs.lastCompletion(t)
	assert.Equal(t, domain.JobStatusExhausted, completion.Status)
	assert.Equal(t, "iteration budget exhausted", completion.ErrorMessage)
}

func TestPathService_Generate_FailedRun(t *testing.T) {
	t.Parallel()

	wf := &stubWorkflow{result: &workflow.Result{
		Status: domain.JobStatusFailed,
		Reason: "researcher failed after 3 attempts",
	}}
	fx := newServiceFixture(t, wf)

	outcome, err := fx.service.Generate(context.Background(), testRequest())

	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Nil(t, outcome)
	assert.Zero(t, fx.validator.calls)

	completion := fx.jobs.lastCompletion(t)
	assert.Equal(t, domain.JobStatusFailed, completion.Status)
	assert.Nil(t, completion.Curriculum)
	assert.Contains(t, completion.ErrorMessage, "researcher failed")
}

func TestPathService_Generate_InvalidRequest(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture(t, &stubWorkflow{})

	_, err := fx.service.Generate(context.Background(), domain.GenerationRequest{
		Topic:           "ab",
		ExperienceLevel: domain.ExperienceBeginner,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidTopic)
	assert.Empty(t, fx.jobs.jobs)
}

func TestPathService_Generate_QueueFull(t *testing.T) {
	t.Parallel()

	wf := &stubWorkflow{result: &workflow.Result{
		Status:   domain.JobStatusApproved,
		Draft:    testDraft(),
		Approved: true,
	}}

	jobs := newFakeJobStore()
	paths := newFakePathStore()
	validator := &passthroughValidator{}
	// Never started: nothing drains the queue, so the second submission
	// fails fast.
	runner := task.NewRunner(task.RunnerConfig{WorkerCount: 1, QueueSize: 1}, discardLogger())

	svc, err := NewPathService(jobs, paths, wf, validator, runner, discardLogger())
	require.NoError(t, err)

	// Occupy the only queue slot.
	blocker := task.NewGenerationTask(context.Background(), func(ctx context.Context) error { return nil })
	require.NoError(t, runner.Submit(context.Background(), blocker))

	_, err = svc.Generate(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrServerBusy)

	// The job is recorded as failed rather than left running forever.
	completion := jobs.lastCompletion(t)
	assert.Equal(t, domain.JobStatusFailed, completion.Status)
}

func TestPathService_Generate_PersistFailure(t *testing.T) {
	t.Parallel()

	wf := &stubWorkflow{result: &workflow.Result{
		Status:   domain.JobStatusApproved,
		Draft:    testDraft(),
		Approved: true,
	}}
	fx := newServiceFixture(t, wf)
	fx.jobs.completeErr = errors.New("connection reset")

	_, err := fx.service.Generate(context.Background(), testRequest())

	require.Error(t, err)
	var svcErr *PathServiceError
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "generate", svcErr.Operation)
}

func TestJobStore_CompleteTwiceIsConflict(t *testing.T) {
	t.Parallel()

	jobs := newFakeJobStore()
	job, err := domain.NewGenerationJob(testRequest())
	require.NoError(t, err)
	require.NoError(t, jobs.Create(context.Background(), job))
	require.NoError(t, jobs.MarkRunning(context.Background(), job.ID))

	first := store.CompleteParams{
		JobID:        job.ID,
		Status:       domain.JobStatusApproved,
		Curriculum:   (*domain.ValidatedCurriculum)(testDraft().Clone()),
		QualityScore: 0.9,
		Iterations:   2,
		Approved:     true,
	}
	path, err := jobs.Complete(context.Background(), first)
	require.NoError(t, err)
	require.NotNil(t, path)

	// A second terminal write is rejected and the first outcome stands,
	// even when the retry carries a different status.
	_, err = jobs.Complete(context.Background(), store.CompleteParams{
		JobID:        job.ID,
		Status:       domain.JobStatusFailed,
		ErrorMessage: "spurious retry",
	})
	assert.ErrorIs(t, err, store.ErrJobAlreadyTerminal)

	got, err := jobs.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusApproved, got.Status)

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	require.Len(t, jobs.completed, 1)
	assert.Equal(t, first.Curriculum, jobs.completed[0].Curriculum)
}

func TestPathService_Reads(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture(t, &stubWorkflow{})
	path := &domain.LearningPath{ID: uuid.New(), Slug: "async-rust", Title: "Async Rust"}
	fx.paths.paths[path.ID] = path

	t.Run("get by id", func(t *testing.T) {
		got, err := fx.service.GetPath(context.Background(), path.ID)
		require.NoError(t, err)
		assert.Equal(t, path.Slug, got.Slug)
	})

	t.Run("get by id not found", func(t *testing.T) {
		_, err := fx.service.GetPath(context.Background(), uuid.New())
		assert.ErrorIs(t, err, ErrPathNotFound)
	})

	t.Run("get by slug", func(t *testing.T) {
		got, err := fx.service.GetPathBySlug(context.Background(), "async-rust")
		require.NoError(t, err)
		assert.Equal(t, path.ID, got.ID)
	})

	t.Run("get by slug not found", func(t *testing.T) {
		_, err := fx.service.GetPathBySlug(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrPathNotFound)
	})

	t.Run("list", func(t *testing.T) {
		got, err := fx.service.ListPaths(context.Background(), domain.PathFilters{})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestPathService_DeletePath(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture(t, &stubWorkflow{})
	path := &domain.LearningPath{ID: uuid.New(), Slug: "gone"}
	fx.paths.paths[path.ID] = path

	require.NoError(t, fx.service.DeletePath(context.Background(), path.ID))
	assert.ErrorIs(t, fx.service.DeletePath(context.Background(), path.ID), ErrPathNotFound)
}

func TestPathService_GetJob(t *testing.T) {
	t.Parallel()

	fx := newServiceFixture(t, &stubWorkflow{})
	job, err := domain.NewGenerationJob(testRequest())
	require.NoError(t, err)
	require.NoError(t, fx.jobs.Create(context.Background(), job))

	got, err := fx.service.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = fx.service.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
}
