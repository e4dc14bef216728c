package generation

import "errors"

// Stage failure taxonomy. Transient failures are retried against the local
// per-stage budget; everything else is permanent for the current attempt.
var (
	// ErrTransient indicates a retryable failure: capability timeout,
	// connection drop, or rate limiting.
	ErrTransient = errors.New("transient stage failure")

	// ErrInvalidResponse indicates the capability answered but the output
	// did not conform to the stage's schema. Structurally invalid output is
	// a stage failure, never a silent pass-through.
	ErrInvalidResponse = errors.New("invalid stage response")

	// ErrContentBlocked indicates the capability refused to produce output.
	ErrContentBlocked = errors.New("content blocked")

	// ErrStageExhausted indicates a stage failed all of its local retries.
	ErrStageExhausted = errors.New("stage retries exhausted")

	// ErrInvalidConfig indicates a stage was constructed with unusable
	// configuration.
	ErrInvalidConfig = errors.New("invalid stage configuration")
)
