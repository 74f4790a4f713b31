package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQuota_AcquireUpToLimit(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQuota()

	require.NoError(t, q.Acquire(ctx, "r@x.com", 2))
	require.NoError(t, q.Acquire(ctx, "r@x.com", 2))
	require.ErrorIs(t, q.Acquire(ctx, "r@x.com", 2), ErrQuotaExceeded)
	require.NoError(t, q.Acquire(ctx, "other@x.com", 2))

	require.NoError(t, q.Release(ctx, "r@x.com"))
	assert.EqualValues(t, 1, q.Count("r@x.com"))
	require.NoError(t, q.Acquire(ctx, "r@x.com", 2))

	// never below zero
	require.NoError(t, q.Release(ctx, "nobody@x.com"))
	assert.Zero(t, q.Count("nobody@x.com"))
}

func TestMemoryQuota_ConcurrentAcquireNeverOvershoots(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQuota()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if q.Acquire(ctx, "r@x.com", 2) == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.EqualValues(t, 2, q.Count("r@x.com"))
}

func TestMemoryQuota_Err(t *testing.T) {
	q := NewMemoryQuota()
	q.Err = errors.New("connection lost")
	require.EqualError(t, q.Acquire(context.Background(), "r@x.com", 2), "connection lost")
}
