package api

import (
	"time"

	"github.com/pathforge/pathforge-api/internal/domain"
	"github.com/pathforge/pathforge-api/internal/service"
)

// GeneratePathRequest represents the request body for generating a new
// learning path. ExperienceLevel defaults to intermediate when omitted.
type GeneratePathRequest struct {
	Topic           string `json:"topic"            validate:"required,min=3,max=100"`
	Context         string `json:"context"          validate:"max=500"`
	ExperienceLevel string `json:"experienceLevel"  validate:"omitempty,oneof=beginner intermediate advanced"`
}

// GenerationMetadata reports how the run went alongside the generated path.
type GenerationMetadata struct {
	JobID                 string  `json:"jobId"`
	Status                string  `json:"status"`
	IterationCount        int     `json:"iterationCount"`
	QualityScore          float64 `json:"qualityScore"`
	Approved              bool    `json:"approved"`
	MaxIterationsReached  bool    `json:"maxIterationsReached"`
	GenerationTimeSeconds float64 `json:"generationTimeSeconds"`
}

// PathResponse represents a learning path, with the full curriculum on
// detail reads and without it on list reads.
type PathResponse struct {
	ID             string                      `json:"id"`
	Slug           string                      `json:"slug"`
	Title          string                      `json:"title"`
	Description    string                      `json:"description,omitempty"`
	Language       string                      `json:"language,omitempty"`
	Area           string                      `json:"area,omitempty"`
	Version        string                      `json:"version,omitempty"`
	TotalTasks     int                         `json:"totalTasks"`
	EstimatedHours float64                     `json:"estimatedHours"`
	QualityScore   float64                     `json:"qualityScore"`
	Approved       bool                        `json:"approved"`
	Curriculum     *domain.ValidatedCurriculum `json:"curriculum,omitempty"`
	CreatedAt      time.Time                   `json:"createdAt"`
	UpdatedAt      time.Time                   `json:"updatedAt"`
}

// GeneratePathResponse is the response for a completed generation call.
// PathID duplicates path.id at the top level so callers can grab the new
// path's identifier without digging into the nested object.
type GeneratePathResponse struct {
	PathID   string             `json:"pathId"`
	Path     PathResponse       `json:"path"`
	Metadata GenerationMetadata `json:"metadata"`
}

// PathListResponse is the response for list requests.
type PathListResponse struct {
	Paths  []PathResponse `json:"paths"`
	Count  int            `json:"count"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// HealthResponse reports component health for GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	LLM      string `json:"llm"`
}

// pathToResponse converts a domain.LearningPath to a PathResponse
func pathToResponse(path *domain.LearningPath) PathResponse {
	return PathResponse{
		ID:             path.ID.String(),
		Slug:           path.Slug,
		Title:          path.Title,
		Description:    path.Description,
		Language:       path.Language,
		Area:           path.Area,
		Version:        path.Version,
		TotalTasks:     path.TotalTasks,
		EstimatedHours: path.EstimatedHours,
		QualityScore:   path.QualityScore,
		Approved:       path.Approved,
		Curriculum:     path.Curriculum,
		CreatedAt:      path.CreatedAt,
		UpdatedAt:      path.UpdatedAt,
	}
}

// outcomeToResponse converts a service.GenerationOutcome to the API response
func outcomeToResponse(outcome *service.GenerationOutcome) GeneratePathResponse {
	return GeneratePathResponse{
		PathID:   outcome.Path.ID.String(),
		Path:     pathToResponse(outcome.Path),
		Metadata: GenerationMetadata{
			JobID:                 outcome.JobID.String(),
			Status:                string(outcome.Status),
			IterationCount:        outcome.IterationCount,
			QualityScore:          outcome.QualityScore,
			Approved:              outcome.Approved,
			MaxIterationsReached:  outcome.MaxIterationsReached,
			GenerationTimeSeconds: outcome.GenerationTime.Seconds(),
		},
	}
}
