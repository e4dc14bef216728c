package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/pathforge/pathforge-api/internal/domain"
)

// CompleteParams carries everything Complete writes in its single atomic
// transaction: the terminal job metadata and, when an artifact exists, the
// curriculum that becomes the learning path.
type CompleteParams struct {
	JobID uuid.UUID

	// Status must be a terminal status.
	Status domain.JobStatus

	// Curriculum is nil only for failed jobs; approved and exhausted jobs
	// always carry an artifact.
	Curriculum *domain.ValidatedCurriculum

	QualityScore float64
	Iterations   int
	Approved     bool
	ErrorMessage string
}

// JobStore defines the interface for generation job persistence.
type JobStore interface {
	// Create saves a new pending job.
	Create(ctx context.Context, job *domain.GenerationJob) error

	// MarkRunning transitions a pending job to running.
	// Returns ErrJobNotFound if the job does not exist and
	// ErrJobAlreadyTerminal if the job already reached a terminal status.
	MarkRunning(ctx context.Context, id uuid.UUID) error

	// Complete writes the terminal status and, when params.Curriculum is
	// set, the learning path with its nested phases and tasks in a single
	// transaction, so a reader never observes a terminal job with a
	// partially-written curriculum. Returns the created path, or nil when
	// the job failed without an artifact.
	//
	// Complete is idempotent per job: a second call for an already-terminal
	// job returns ErrJobAlreadyTerminal and never changes the persisted
	// artifact.
	Complete(ctx context.Context, params CompleteParams) (*domain.LearningPath, error)

	// GetByID retrieves a job by its unique ID.
	// Returns ErrJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error)

	// WithTx returns a JobStore bound to the given transaction.
	WithTx(tx *sql.Tx) JobStore
}
