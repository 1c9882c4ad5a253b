package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool := NewPool(3, 16, zap.NewNop())
	pool.Start(context.Background())

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, pool.Submit("count", func(context.Context) error {
			count.Add(1)
			return nil
		}))
	}

	require.NoError(t, pool.Stop(context.Background()))
	assert.Equal(t, int32(10), count.Load())
}

func TestPoolLogsFailuresAndPanics(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	pool := NewPool(1, 4, zap.New(core))
	pool.Start(context.Background())

	pool.Submit("failing", func(context.Context) error { return errors.New("upstream down") })
	pool.Submit("panicking", func(context.Context) error { panic("boom") })

	var ran atomic.Bool
	pool.Submit("after", func(context.Context) error {
		ran.Store(true)
		return nil
	})

	require.NoError(t, pool.Stop(context.Background()))

	assert.True(t, ran.Load(), "worker must survive failing and panicking tasks")
	assert.Equal(t, 1, logs.FilterMessage("Task failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("Task panicked").Len())
}

func TestPoolSubmitDoesNotBlockWhenQueueIsFull(t *testing.T) {
	pool := NewPool(1, 1, zap.NewNop())

	// воркеры не запущены: первая задача займёт очередь
	assert.True(t, pool.Submit("first", func(context.Context) error { return nil }))

	done := make(chan bool)
	go func() {
		done <- pool.Submit("second", func(context.Context) error { return nil })
	}()

	select {
	case accepted := <-done:
		assert.False(t, accepted)
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
}

func TestPoolRejectsTasksAfterStop(t *testing.T) {
	pool := NewPool(1, 1, zap.NewNop())
	pool.Start(context.Background())
	require.NoError(t, pool.Stop(context.Background()))

	assert.False(t, pool.Submit("late", func(context.Context) error { return nil }))
	assert.NoError(t, pool.Stop(context.Background()), "second Stop is a no-op")
}

func TestPoolStopRespectsContext(t *testing.T) {
	pool := NewPool(1, 1, zap.NewNop())
	pool.Start(context.Background())

	release := make(chan struct{})
	defer close(release)
	pool.Submit("slow", func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Stop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
