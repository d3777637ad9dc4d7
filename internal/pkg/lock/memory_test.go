package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_AcquireIsExclusive(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	token, ok, err := l.Acquire(ctx, "job:auto-absent:c1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, token)

	_, ok, err = l.Acquire(ctx, "job:auto-absent:c1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = l.Acquire(ctx, "job:auto-absent:c2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "other keys are independent")
}

func TestMemoryLocker_ReleaseNeedsToken(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	token, ok, _ := l.Acquire(ctx, "k", time.Minute)
	require.True(t, ok)

	require.NoError(t, l.Release(ctx, "k", "someone-else"))
	_, ok, _ = l.Acquire(ctx, "k", time.Minute)
	assert.False(t, ok, "a foreign token must not release the key")

	require.NoError(t, l.Release(ctx, "k", token))
	_, ok, _ = l.Acquire(ctx, "k", time.Minute)
	assert.True(t, ok)
}

func TestMemoryLocker_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLocker().WithClock(func() time.Time { return now })

	_, ok, _ := l.Acquire(ctx, "done:auto-absent:c1:2025-03-03", 36*time.Hour)
	require.True(t, ok)

	now = now.Add(35 * time.Hour)
	_, ok, _ = l.Acquire(ctx, "done:auto-absent:c1:2025-03-03", 36*time.Hour)
	assert.False(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok, _ = l.Acquire(ctx, "done:auto-absent:c1:2025-03-03", 36*time.Hour)
	assert.True(t, ok)
}

func TestMemoryLocker_ConcurrentAcquire(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLocker()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := l.Acquire(ctx, "race", time.Minute); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestMemoryLocker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := NewMemoryLocker().Acquire(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}
