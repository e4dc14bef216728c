package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/platform/logger"
	"github.com/pathforge/pathforge-api/internal/store"
)

// PostgresPathStore implements store.PathStore on PostgreSQL.
type PostgresPathStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPathStore creates a PostgreSQL implementation of PathStore.
// The caller owns the database connection or transaction.
func NewPostgresPathStore(db store.DBTX, logger *slog.Logger) *PostgresPathStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPathStore{
		db:     db,
		logger: logger.With(slog.String("component", "path_store")),
	}
}

// Ensure PostgresPathStore implements store.PathStore
var _ store.PathStore = (*PostgresPathStore)(nil)

// WithTx implements store.PathStore.WithTx
func (s *PostgresPathStore) WithTx(tx *sql.Tx) store.PathStore {
	return &PostgresPathStore{db: tx, logger: s.logger}
}

const pathColumns = `id, slug, title, description, language, area, version,
	total_tasks, estimated_hours, quality_score, approved,
	generation_attempts, created_at, updated_at`

// GetByID implements store.PathStore.GetByID
func (s *PostgresPathStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningPath, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + pathColumns + ` FROM learning_paths WHERE id = $1`
	path, err := s.scanPath(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPathNotFound
		}
		log.Error("failed to get path by ID",
			slog.String("error", err.Error()),
			slog.String("path_id", id.String()))
		return nil, MapError(err)
	}

	if err := s.loadCurriculum(ctx, path); err != nil {
		log.Error("failed to load curriculum",
			slog.String("error", err.Error()),
			slog.String("path_id", id.String()))
		return nil, err
	}

	return path, nil
}

// GetBySlug implements store.PathStore.GetBySlug
func (s *PostgresPathStore) GetBySlug(ctx context.Context, slug string) (*domain.LearningPath, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + pathColumns + ` FROM learning_paths WHERE slug = $1`
	path, err := s.scanPath(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPathNotFound
		}
		log.Error("failed to get path by slug",
			slog.String("error", err.Error()),
			slog.String("slug", slug))
		return nil, MapError(err)
	}

	if err := s.loadCurriculum(ctx, path); err != nil {
		log.Error("failed to load curriculum",
			slog.String("error", err.Error()),
			slog.String("slug", slug))
		return nil, err
	}

	return path, nil
}

// List implements store.PathStore.List
// Summaries are returned without the nested curriculum.
func (s *PostgresPathStore) List(ctx context.Context, filters domain.PathFilters) ([]*domain.LearningPath, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	limit := filters.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + pathColumns + ` FROM learning_paths
		WHERE ($1 = '' OR language = $1)
		  AND ($2 = '' OR area = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := s.db.QueryContext(ctx, query, filters.Language, filters.Area, limit, offset)
	if err != nil {
		log.Error("failed to list paths", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	paths := []*domain.LearningPath{}
	for rows.Next() {
		path, err := s.scanPath(rows)
		if err != nil {
			log.Error("failed to scan path row", slog.String("error", err.Error()))
			return nil, err
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("listed paths",
		slog.String("language", filters.Language),
		slog.String("area", filters.Area),
		slog.Int("count", len(paths)))
	return paths, nil
}

// Delete implements store.PathStore.Delete
// Phases and tasks go with the path via ON DELETE CASCADE.
func (s *PostgresPathStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM learning_paths WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete path",
			slog.String("error", err.Error()),
			slog.String("path_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrPathNotFound); err != nil {
		return err
	}

	log.Info("path deleted", slog.String("path_id", id.String()))
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresPathStore) scanPath(row rowScanner) (*domain.LearningPath, error) {
	var path domain.LearningPath
	var description, language, area, version sql.NullString

	err := row.Scan(
		&path.ID,
		&path.Slug,
		&path.Title,
		&description,
		&language,
		&area,
		&version,
		&path.TotalTasks,
		&path.EstimatedHours,
		&path.QualityScore,
		&path.Approved,
		&path.GenerationAttempts,
		&path.CreatedAt,
		&path.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	path.Description = description.String
	path.Language = language.String
	path.Area = area.String
	path.Version = version.String
	return &path, nil
}

// loadCurriculum attaches the full phase/task tree to a path header.
func (s *PostgresPathStore) loadCurriculum(ctx context.Context, path *domain.LearningPath) error {
	phases, phaseIndex, err := s.loadPhases(ctx, path.ID)
	if err != nil {
		return err
	}
	if err := s.loadTasks(ctx, path.ID, phases, phaseIndex); err != nil {
		return err
	}

	curriculum := domain.ValidatedCurriculum{
		ID:             path.Slug,
		Title:          path.Title,
		Description:    path.Description,
		Version:        path.Version,
		Language:       path.Language,
		Area:           path.Area,
		TotalTasks:     path.TotalTasks,
		EstimatedHours: path.EstimatedHours,
		Phases:         make([]domain.Phase, len(phases)),
	}
	for i, p := range phases {
		curriculum.Phases[i] = *p
	}

	path.Curriculum = &curriculum
	return nil
}

// loadPhases returns the ordered phases and an index from the phases row id
// to its position in the slice.
func (s *PostgresPathStore) loadPhases(ctx context.Context, pathID uuid.UUID) ([]*domain.Phase, map[uuid.UUID]int, error) {
	query := `SELECT id, phase_key, title, description, order_index
		FROM phases WHERE path_id = $1 ORDER BY order_index`

	rows, err := s.db.QueryContext(ctx, query, pathID)
	if err != nil {
		return nil, nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var phases []*domain.Phase
	phaseIndex := make(map[uuid.UUID]int)

	for rows.Next() {
		var rowID uuid.UUID
		var phase domain.Phase
		var description sql.NullString
		if err := rows.Scan(&rowID, &phase.ID, &phase.Title, &description, &phase.Order); err != nil {
			return nil, nil, err
		}
		phase.Description = description.String
		phaseIndex[rowID] = len(phases)
		phases = append(phases, &phase)
	}
	return phases, phaseIndex, rows.Err()
}

// loadTasks attaches each path task to its phase, in order.
func (s *PostgresPathStore) loadTasks(ctx context.Context, pathID uuid.UUID, phases []*domain.Phase, phaseIndex map[uuid.UUID]int) error {
	query := `SELECT phase_id, task_key, title, description, difficulty, estimated_hours,
			requirements, acceptance_criteria, prerequisites, resources
		FROM tasks WHERE path_id = $1 ORDER BY order_index`

	rows, err := s.db.QueryContext(ctx, query, pathID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var phaseRowID uuid.UUID
		var task domain.Task
		var description sql.NullString
		var requirements, criteria, prerequisites, resources []byte

		if err := rows.Scan(&phaseRowID, &task.ID, &task.Title, &description,
			&task.Difficulty, &task.EstimatedHours,
			&requirements, &criteria, &prerequisites, &resources); err != nil {
			return err
		}
		task.Description = description.String

		if err := unmarshalColumn(requirements, &task.Requirements); err != nil {
			return fmt.Errorf("failed to decode task requirements: %w", err)
		}
		if err := unmarshalColumn(criteria, &task.AcceptanceCriteria); err != nil {
			return fmt.Errorf("failed to decode task acceptance criteria: %w", err)
		}
		if err := unmarshalColumn(prerequisites, &task.Prerequisites); err != nil {
			return fmt.Errorf("failed to decode task prerequisites: %w", err)
		}
		if err := unmarshalColumn(resources, &task.Resources); err != nil {
			return fmt.Errorf("failed to decode task resources: %w", err)
		}

		idx, ok := phaseIndex[phaseRowID]
		if !ok {
			return fmt.Errorf("task %q references unknown phase row %s", task.ID, phaseRowID)
		}
		task.PhaseID = phases[idx].ID
		phases[idx].Tasks = append(phases[idx].Tasks, task)
	}
	return rows.Err()
}

// unmarshalColumn decodes a jsonb column, treating NULL as the zero value.
func unmarshalColumn(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
