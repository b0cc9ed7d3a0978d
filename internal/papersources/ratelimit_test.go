package papersources

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The shipped openalex.rate_limit and openalex.burst_size.
const (
	shippedRate  = 10.0
	shippedBurst = 5
)

func TestRateLimiter_ShippedConfiguration(t *testing.T) {
	rl := NewRateLimiter(shippedRate, shippedBurst)

	for i := 0; i < shippedBurst; i++ {
		assert.True(t, rl.Allow(), "request %d fits in the burst", i+1)
	}
	assert.False(t, rl.Allow(), "burst is exhausted")
}

func TestRateLimiter_WaitPacesAfterBurst(t *testing.T) {
	rl := NewRateLimiter(shippedRate, shippedBurst)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < shippedBurst+2; i++ {
		require.NoError(t, rl.Wait(ctx))
	}
	elapsed := time.Since(start)

	// Two requests past the burst need two tokens at 10/s.
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestRateLimiter_WaitHonorsContext(t *testing.T) {
	rl := NewRateLimiter(0.1, 1)
	require.True(t, rl.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, rl.Wait(ctx))
}

func TestRateLimiter_SharedAcrossGoroutines(t *testing.T) {
	rl := NewRateLimiter(1000, 50)
	ctx := context.Background()

	var wg sync.WaitGroup
	var done int32
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if err := rl.Wait(ctx); err != nil {
					t.Errorf("wait: %v", err)
					return
				}
				atomic.AddInt32(&done, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(50), atomic.LoadInt32(&done))
}
