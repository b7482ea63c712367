package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalTryLock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.TryLock(ctx, 1)
	require.NoError(t, err)

	_, err = l.TryLock(ctx, 1)
	assert.ErrorIs(t, err, ErrLocked)

	other, err := l.TryLock(ctx, 2)
	require.NoError(t, err, "events lock independently")
	other()

	release()
	release()

	again, err := l.TryLock(ctx, 1)
	require.NoError(t, err)
	again()
}

func TestLocalSingleWinner(t *testing.T) {
	l := NewLocal()
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.TryLock(context.Background(), 7); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestRedisKey(t *testing.T) {
	r := NewRedis(nil, "", 0)
	assert.Equal(t, "seating:lock:42", r.key(42))
	assert.Greater(t, r.ttl.Seconds(), float64(0))
}
