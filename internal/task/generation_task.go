package task

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// GenerationTask wraps a generation run so it can flow through the worker
// pool while the submitting request blocks on the outcome. The run executes
// under a context cancelled when either the submitter gives up or the runner
// shuts down.
type GenerationTask struct {
	id        uuid.UUID
	submitCtx context.Context
	fn        func(ctx context.Context) error

	mu     sync.Mutex
	status Status
	err    error
	done   chan struct{}
}

// NewGenerationTask creates a task executing fn. The submitter's ctx bounds
// the run: if the caller abandons the request, the run is cancelled even if a
// worker has already picked it up.
func NewGenerationTask(ctx context.Context, fn func(ctx context.Context) error) *GenerationTask {
	return &GenerationTask{
		id:        uuid.New(),
		submitCtx: ctx,
		fn:        fn,
		status:    StatusPending,
		done:      make(chan struct{}),
	}
}

// ID implements Task.ID
func (t *GenerationTask) ID() uuid.UUID {
	return t.id
}

// Type implements Task.Type
func (t *GenerationTask) Type() string {
	return TypePathGeneration
}

// Status implements Task.Status
func (t *GenerationTask) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *GenerationTask) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute implements Task.Execute. It runs the wrapped function and records
// the outcome for Wait. Execute is called exactly once, by a worker.
func (t *GenerationTask) Execute(ctx context.Context) error {
	t.setStatus(StatusProcessing)

	// The run must stop when either the worker pool shuts down (ctx) or the
	// submitter walks away (submitCtx).
	runCtx, cancel := context.WithCancel(t.submitCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := t.fn(runCtx)

	t.mu.Lock()
	t.err = err
	if err != nil {
		t.status = StatusFailed
	} else {
		t.status = StatusCompleted
	}
	t.mu.Unlock()

	close(t.done)
	return err
}

// Wait blocks until the task finishes and returns its error, or returns
// ctx.Err() if the caller's context expires first. A task abandoned this way
// is cancelled through the submit context, so workers do not keep grinding
// for a client that already hung up.
func (t *GenerationTask) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ensure GenerationTask implements Task
var _ Task = (*GenerationTask)(nil)
