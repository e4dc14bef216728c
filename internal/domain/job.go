package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a generation job.
type JobStatus string

// Possible job status values. The three terminal statuses are absorbing:
// once a job reaches one, no further writes are accepted.
const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusApproved  JobStatus = "approved"
	JobStatusExhausted JobStatus = "exhausted"
	JobStatusFailed    JobStatus = "failed"
)

// IsTerminal reports whether the status is one of the absorbing states.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusApproved, JobStatusExhausted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// GenerationJob tracks one generation run from acceptance to its terminal
// status. PathID and Curriculum are set exactly once, atomically, when the
// job completes with an artifact.
type GenerationJob struct {
	ID             uuid.UUID            `json:"id"`
	Request        GenerationRequest    `json:"request"`
	Status         JobStatus            `json:"status"`
	PathID         *uuid.UUID           `json:"path_id,omitempty"`
	IterationCount int                  `json:"iteration_count"`
	QualityScore   float64              `json:"quality_score"`
	ErrorMessage   string               `json:"error_message,omitempty"`
	Curriculum     *ValidatedCurriculum `json:"curriculum,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// NewGenerationJob creates a pending job for the given request.
// Returns an error if the request fails validation.
func NewGenerationJob(req GenerationRequest) (*GenerationJob, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &GenerationJob{
		ID:        uuid.New(),
		Request:   req,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks if the GenerationJob has valid data.
func (j *GenerationJob) Validate() error {
	if err := j.Request.Validate(); err != nil {
		return err
	}
	if !isValidJobStatus(j.Status) {
		return ErrInvalidJobStatus
	}
	if j.QualityScore < 0 || j.QualityScore > 1 {
		return ErrInvalidQualityScore
	}
	return nil
}

// isValidJobStatus checks if the given status is a valid JobStatus.
func isValidJobStatus(status JobStatus) bool {
	switch status {
	case JobStatusPending, JobStatusRunning, JobStatusApproved,
		JobStatusExhausted, JobStatusFailed:
		return true
	default:
		return false
	}
}
