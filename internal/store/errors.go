package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity (e.g. a second path with the same slug).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation or
	// violates a database constraint before being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a transaction fails to commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrPathNotFound indicates the requested learning path does not exist.
	ErrPathNotFound = fmt.Errorf("%w: learning path", ErrNotFound)

	// ErrJobNotFound indicates the requested generation job does not exist.
	ErrJobNotFound = fmt.Errorf("%w: generation job", ErrNotFound)

	// ErrSlugExists indicates a learning path with the given slug already
	// exists.
	ErrSlugExists = fmt.Errorf("%w: slug", ErrDuplicate)

	// ErrJobAlreadyTerminal is returned when Complete is called on a job
	// that already reached a terminal status. Terminal artifacts are written
	// exactly once; callers must re-fetch instead of re-writing.
	ErrJobAlreadyTerminal = errors.New("generation job already terminal")
)
