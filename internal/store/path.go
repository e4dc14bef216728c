package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/pathforge/pathforge-api/internal/domain"
)

// PathStore defines the interface for learning path persistence. Paths are
// written only through JobStore.Complete; this interface covers reads and
// deletion.
type PathStore interface {
	// GetByID retrieves a path with its full curriculum.
	// Returns ErrPathNotFound if the path does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LearningPath, error)

	// GetBySlug retrieves a path by its human-readable slug, with its full
	// curriculum. Returns ErrPathNotFound if the path does not exist.
	GetBySlug(ctx context.Context, slug string) (*domain.LearningPath, error)

	// List retrieves path summaries matching the filters, newest first.
	// Summaries do not carry the nested curriculum. Returns an empty slice
	// when nothing matches.
	List(ctx context.Context, filters domain.PathFilters) ([]*domain.LearningPath, error)

	// Delete removes a path and its nested phases and tasks.
	// Returns ErrPathNotFound if the path does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a PathStore bound to the given transaction.
	WithTx(tx *sql.Tx) PathStore
}
