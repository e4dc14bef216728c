package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrPathNotFound indicates that the learning path does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrPathNotFound = errors.New("learning path not found")

	// ErrJobNotFound indicates that the generation job does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrJobNotFound = errors.New("generation job not found")

	// ErrServerBusy indicates all generation workers are occupied and the
	// queue is full. API layer should map this to HTTP 503 Service
	// Unavailable; the client can retry later.
	ErrServerBusy = errors.New("generation capacity exhausted, try again later")

	// ErrGenerationFailed indicates the workflow terminated without producing
	// any curriculum. API layer should map this to HTTP 502 Bad Gateway since
	// the failure originates with the upstream model.
	ErrGenerationFailed = errors.New("curriculum generation failed")
)
