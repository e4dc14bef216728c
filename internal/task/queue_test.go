package task

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopTask() *GenerationTask {
	return NewGenerationTask(context.Background(), func(ctx context.Context) error {
		return nil
	})
}

func TestQueue_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("successful enqueue", func(t *testing.T) {
		t.Parallel()

		queue := NewQueue(2, discardLogger())
		err := queue.Enqueue(noopTask())

		assert.NoError(t, err)
	})

	t.Run("full queue", func(t *testing.T) {
		t.Parallel()

		queue := NewQueue(1, discardLogger())
		require.NoError(t, queue.Enqueue(noopTask()))

		err := queue.Enqueue(noopTask())
		assert.ErrorIs(t, err, ErrQueueFull)
	})

	t.Run("closed queue", func(t *testing.T) {
		t.Parallel()

		queue := NewQueue(1, discardLogger())
		queue.Close()

		err := queue.Enqueue(noopTask())
		assert.ErrorIs(t, err, ErrQueueClosed)
	})

	t.Run("close is idempotent", func(t *testing.T) {
		t.Parallel()

		queue := NewQueue(1, discardLogger())
		queue.Close()
		assert.NotPanics(t, queue.Close)
	})
}

func TestQueue_GetChannel(t *testing.T) {
	t.Parallel()

	queue := NewQueue(2, discardLogger())
	task := noopTask()
	require.NoError(t, queue.Enqueue(task))

	received := <-queue.GetChannel()
	assert.Equal(t, task.ID(), received.ID())
}
