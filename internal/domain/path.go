package domain

import (
	"time"

	"github.com/google/uuid"
)

// LearningPath is the persisted artifact header for a completed generation.
// The full curriculum hangs off it via phases and tasks rows; Curriculum is
// populated on detail reads and nil on list reads.
type LearningPath struct {
	ID                 uuid.UUID            `json:"id"`
	Slug               string               `json:"slug"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	Language           string               `json:"language,omitempty"`
	Area               string               `json:"area,omitempty"`
	Version            string               `json:"version,omitempty"`
	TotalTasks         int                  `json:"total_tasks"`
	EstimatedHours     float64              `json:"estimated_hours"`
	QualityScore       float64              `json:"quality_score"`
	Approved           bool                 `json:"approved"`
	GenerationAttempts int                  `json:"generation_attempts"`
	Curriculum         *ValidatedCurriculum `json:"curriculum,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// PathFilters narrows List results. Zero values mean "no filter".
type PathFilters struct {
	Language string
	Area     string
	Limit    int
	Offset   int
}
