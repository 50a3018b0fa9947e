package jobs

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockJob implements the Job interface for testing
type mockJob struct {
	id     uuid.UUID
	execFn func(ctx context.Context) error
}

func (m *mockJob) ID() uuid.UUID {
	return m.id
}

func (m *mockJob) Type() string {
	return "mock"
}

func (m *mockJob) Execute(ctx context.Context) error {
	if m.execFn != nil {
		return m.execFn(ctx)
	}
	return nil
}

func newMockJob(execFn func(ctx context.Context) error) *mockJob {
	return &mockJob{id: uuid.New(), execFn: execFn}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestQueueEnqueue(t *testing.T) {
	q := NewQueue(2, setupTestLogger())

	job1, job2 := newMockJob(nil), newMockJob(nil)
	require.NoError(t, q.Enqueue(job1))
	require.NoError(t, q.Enqueue(job2))

	err := q.Enqueue(newMockJob(nil))
	assert.ErrorIs(t, err, ErrQueueFull)

	assert.Equal(t, Job(job1), <-q.Channel())
	assert.Equal(t, Job(job2), <-q.Channel())
}

func TestQueueClose(t *testing.T) {
	q := NewQueue(2, nil)
	job := newMockJob(nil)
	require.NoError(t, q.Enqueue(job))

	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(newMockJob(nil)), ErrQueueClosed)

	// buffered jobs survive Close
	got, ok := <-q.Channel()
	require.True(t, ok)
	assert.Equal(t, Job(job), got)

	_, ok = <-q.Channel()
	assert.False(t, ok)
}

func TestQueueConcurrentEnqueueAndClose(t *testing.T) {
	q := NewQueue(1000, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = q.Enqueue(newMockJob(nil))
			}
		}()
	}
	q.Close()
	wg.Wait()

	count := 0
	for range q.Channel() {
		count++
	}
	assert.LessOrEqual(t, count, 500)
}

func TestNewQueueClampsSize(t *testing.T) {
	q := NewQueue(0, nil)
	assert.Equal(t, 1, cap(q.jobs))
}
