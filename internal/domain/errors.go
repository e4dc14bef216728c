// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTopic is returned when a generation request topic is missing
	// or outside the accepted length bounds.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrContextTooLong is returned when the optional request context exceeds
	// the accepted length.
	ErrContextTooLong = errors.New("context too long")

	// ErrInvalidExperienceLevel is returned when an experience level is not
	// one of beginner, intermediate, or advanced.
	ErrInvalidExperienceLevel = errors.New("invalid experience level")

	// ErrEmptyDraft is returned when a curriculum draft contains no tasks.
	ErrEmptyDraft = errors.New("draft contains no tasks")

	// ErrInvalidPrerequisite is returned when a task references a prerequisite
	// that does not appear earlier in the same draft. Forward and unknown
	// references are both rejected, which also rules out cycles.
	ErrInvalidPrerequisite = errors.New("invalid prerequisite reference")

	// ErrInvalidDifficulty is returned when a task difficulty is outside 1-5.
	ErrInvalidDifficulty = errors.New("invalid task difficulty")

	// ErrInvalidEstimatedHours is returned when a task's hour estimate is not positive.
	ErrInvalidEstimatedHours = errors.New("invalid estimated hours")

	// ErrInvalidResourceType is returned when a resource type is not one of
	// documentation, reference, article, or book.
	ErrInvalidResourceType = errors.New("invalid resource type")

	// ErrInvalidJobStatus is returned when a generation job status is not valid.
	ErrInvalidJobStatus = errors.New("invalid job status")

	// ErrInvalidQualityScore is returned when a quality score is outside [0,1].
	ErrInvalidQualityScore = errors.New("invalid quality score")
)
