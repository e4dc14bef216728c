package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/platform/logger"
	"github.com/pathforge/pathforge-api/internal/store"
)

// maxSlugProbes bounds the suffix search when deriving a unique path slug.
const maxSlugProbes = 50

// PostgresJobStore implements store.JobStore on PostgreSQL.
//
// Complete runs inside its own transaction when the store is backed by a
// *sql.DB; a store already bound to a transaction via WithTx reuses it.
type PostgresJobStore struct {
	db     store.DBTX
	sqlDB  *sql.DB
	logger *slog.Logger
}

// NewPostgresJobStore creates a PostgreSQL implementation of JobStore.
func NewPostgresJobStore(db *sql.DB, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		sqlDB:  db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements store.JobStore
var _ store.JobStore = (*PostgresJobStore)(nil)

// WithTx implements store.JobStore.WithTx
func (s *PostgresJobStore) WithTx(tx *sql.Tx) store.JobStore {
	return &PostgresJobStore{db: tx, logger: s.logger}
}

// Create implements store.JobStore.Create
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.GenerationJob) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := job.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return err
	}

	query := `
		INSERT INTO generation_jobs
			(id, topic, context, experience_level, status, iteration_count,
			 quality_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Request.Topic,
		job.Request.Context,
		job.Request.ExperienceLevel,
		job.Status,
		job.IterationCount,
		job.QualityScore,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create generation job",
			slog.String("error", err.Error()),
			slog.String("job_id", job.ID.String()))
		return MapError(err)
	}

	log.Info("generation job created",
		slog.String("job_id", job.ID.String()),
		slog.String("topic", job.Request.Topic))
	return nil
}

// MarkRunning implements store.JobStore.MarkRunning
// Marking an already-running job again is a no-op.
func (s *PostgresJobStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE generation_jobs
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status IN ($4, $1)
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.JobStatusRunning, time.Now().UTC(), id, domain.JobStatusPending)
	if err != nil {
		log.Error("failed to mark job running",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either absent or already terminal; distinguish for the caller.
		var status domain.JobStatus
		err := s.db.QueryRowContext(ctx,
			`SELECT status FROM generation_jobs WHERE id = $1`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrJobNotFound
		}
		if err != nil {
			return MapError(err)
		}
		return fmt.Errorf("%w: status %s", store.ErrJobAlreadyTerminal, status)
	}

	return nil
}

// Complete implements store.JobStore.Complete
func (s *PostgresJobStore) Complete(ctx context.Context, params store.CompleteParams) (*domain.LearningPath, error) {
	if !params.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: complete requires a terminal status, got %s",
			store.ErrInvalidEntity, params.Status)
	}

	if s.sqlDB == nil {
		// Already inside a caller-managed transaction.
		return s.completeInTx(ctx, s.db, params)
	}

	var path *domain.LearningPath
	err := store.RunInTransaction(ctx, s.sqlDB, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		path, txErr = s.completeInTx(ctx, tx, params)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

// completeInTx performs the single atomic terminal write: the path header,
// its phases and tasks, and the status-guarded job update.
func (s *PostgresJobStore) completeInTx(ctx context.Context, db store.DBTX, params store.CompleteParams) (*domain.LearningPath, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Lock the job row so concurrent completes serialize here.
	var status domain.JobStatus
	err := db.QueryRowContext(ctx,
		`SELECT status FROM generation_jobs WHERE id = $1 FOR UPDATE`,
		params.JobID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrJobNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}
	if status.IsTerminal() {
		log.Warn("rejected double-complete on terminal job",
			slog.String("job_id", params.JobID.String()),
			slog.String("status", string(status)))
		return nil, fmt.Errorf("%w: status %s", store.ErrJobAlreadyTerminal, status)
	}

	now := time.Now().UTC()
	var path *domain.LearningPath
	var pathID *uuid.UUID

	if params.Curriculum != nil {
		path, err = s.insertPath(ctx, db, params, now)
		if err != nil {
			return nil, err
		}
		pathID = &path.ID
	}

	result, err := db.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = $1, path_id = $2, iteration_count = $3, quality_score = $4,
		    error_message = $5, updated_at = $6
		WHERE id = $7 AND status NOT IN ($8, $9, $10)
	`,
		params.Status, pathID, params.Iterations, params.QualityScore,
		nullString(params.ErrorMessage), now, params.JobID,
		domain.JobStatusApproved, domain.JobStatusExhausted, domain.JobStatusFailed,
	)
	if err != nil {
		return nil, MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: job %s", store.ErrJobAlreadyTerminal, params.JobID)
	}

	log.Info("generation job completed",
		slog.String("job_id", params.JobID.String()),
		slog.String("status", string(params.Status)),
		slog.Int("iterations", params.Iterations),
		slog.Float64("quality_score", params.QualityScore))

	return path, nil
}

// insertPath writes the learning path header with a unique slug, then its
// phases and tasks.
func (s *PostgresJobStore) insertPath(ctx context.Context, db store.DBTX, params store.CompleteParams, now time.Time) (*domain.LearningPath, error) {
	curriculum := params.Curriculum

	slug, err := s.uniqueSlug(ctx, db, curriculum.ID)
	if err != nil {
		return nil, err
	}

	path := &domain.LearningPath{
		ID:                 uuid.New(),
		Slug:               slug,
		Title:              curriculum.Title,
		Description:        curriculum.Description,
		Language:           curriculum.Language,
		Area:               curriculum.Area,
		Version:            curriculum.Version,
		TotalTasks:         curriculum.TotalTasks,
		EstimatedHours:     curriculum.EstimatedHours,
		QualityScore:       params.QualityScore,
		Approved:           params.Approved,
		GenerationAttempts: params.Iterations,
		Curriculum:         curriculum,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO learning_paths
			(id, slug, title, description, language, area, version, total_tasks,
			 estimated_hours, quality_score, approved, generation_attempts,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		path.ID, path.Slug, path.Title, nullString(path.Description),
		nullString(path.Language), nullString(path.Area), nullString(path.Version),
		path.TotalTasks, path.EstimatedHours, path.QualityScore, path.Approved,
		path.GenerationAttempts, path.CreatedAt, path.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			// A concurrent insert won the probed slug.
			return nil, fmt.Errorf("%w: %s", store.ErrSlugExists, path.Slug)
		}
		return nil, MapError(err)
	}

	taskOrder := 0
	for _, phase := range curriculum.Phases {
		phaseRowID := uuid.New()
		_, err = db.ExecContext(ctx, `
			INSERT INTO phases (id, path_id, phase_key, title, description, order_index, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, phaseRowID, path.ID, phase.ID, phase.Title, nullString(phase.Description), phase.Order, now)
		if err != nil {
			return nil, MapError(err)
		}

		for _, task := range phase.Tasks {
			requirements, err := marshalColumn(task.Requirements)
			if err != nil {
				return nil, err
			}
			criteria, err := marshalColumn(task.AcceptanceCriteria)
			if err != nil {
				return nil, err
			}
			prerequisites, err := marshalColumn(task.Prerequisites)
			if err != nil {
				return nil, err
			}
			resources, err := marshalColumn(task.Resources)
			if err != nil {
				return nil, err
			}

			_, err = db.ExecContext(ctx, `
				INSERT INTO tasks
					(id, path_id, phase_id, task_key, title, description, difficulty,
					 estimated_hours, requirements, acceptance_criteria, prerequisites,
					 resources, order_index, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			`, uuid.New(), path.ID, phaseRowID, task.ID, task.Title,
				nullString(task.Description), task.Difficulty, task.EstimatedHours,
				requirements, criteria, prerequisites, resources, taskOrder, now)
			if err != nil {
				return nil, MapError(err)
			}
			taskOrder++
		}
	}

	return path, nil
}

// uniqueSlug probes for a slug not yet taken: the base first, then -2, -3
// and so on. The probe is read-based so a collision cannot poison the
// surrounding transaction; a lost race surfaces as a unique violation on
// insert instead.
func (s *PostgresJobStore) uniqueSlug(ctx context.Context, db store.DBTX, base string) (string, error) {
	if base == "" {
		base = "learning-path"
	}

	candidate := base
	for i := 2; i <= maxSlugProbes+1; i++ {
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM learning_paths WHERE slug = $1)`,
			candidate).Scan(&exists)
		if err != nil {
			return "", MapError(err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return "", fmt.Errorf("%w: no free slug after %d probes for %q",
		store.ErrSlugExists, maxSlugProbes, base)
}

// GetByID implements store.JobStore.GetByID
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationJob, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, topic, context, experience_level, status, path_id,
		       iteration_count, quality_score, error_message, created_at, updated_at
		FROM generation_jobs
		WHERE id = $1
	`

	var job domain.GenerationJob
	var jobContext, errorMessage sql.NullString
	var pathID uuid.NullUUID

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.Request.Topic,
		&jobContext,
		&job.Request.ExperienceLevel,
		&job.Status,
		&pathID,
		&job.IterationCount,
		&job.QualityScore,
		&errorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		log.Error("failed to get job by ID",
			slog.String("error", err.Error()),
			slog.String("job_id", id.String()))
		return nil, MapError(err)
	}

	job.Request.Context = jobContext.String
	job.ErrorMessage = errorMessage.String
	if pathID.Valid {
		job.PathID = &pathID.UUID
	}

	return &job, nil
}

// nullString maps "" to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// marshalColumn encodes a slice for a jsonb column, writing NULL for nil.
func marshalColumn(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jsonb column: %w", err)
	}
	return data, nil
}
