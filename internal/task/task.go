package task

import (
	"context"

	"github.com/google/uuid"
)

// Status represents the current state of a task
type Status string

// Possible task status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Task type constants
const (
	// TypePathGeneration is the task type for curriculum generation runs
	TypePathGeneration = "path_generation"
)

// Task represents a unit of work to be processed by the runner
type Task interface {
	// ID returns the task's unique identifier
	ID() uuid.UUID

	// Type returns the task type identifier
	Type() string

	// Status returns the current task status
	Status() Status

	// Execute runs the task logic. The context belongs to the worker pool
	// and is cancelled when the runner shuts down.
	Execute(ctx context.Context) error
}

// QueueReader provides read-only access to the task channel
// allowing workers to consume tasks without the ability to enqueue
type QueueReader interface {
	// GetChannel returns a read-only channel for consuming tasks
	GetChannel() <-chan Task
}

// QueueWriter provides write access to the task queue
// allowing services to enqueue tasks for processing
type QueueWriter interface {
	// Enqueue adds a task to the queue for processing
	// Returns an error if the queue is full or closed
	Enqueue(task Task) error

	// Close closes the task queue, preventing further task submission
	Close()
}
