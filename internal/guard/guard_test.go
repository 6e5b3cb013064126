package guard

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_AcquireRelease(t *testing.T) {
	g := New()

	require.True(t, g.TryAcquire())
	assert.True(t, g.Held())

	require.True(t, g.Release())
	assert.False(t, g.Held())
}

func TestGuard_SecondAcquireRejected(t *testing.T) {
	g := New()

	require.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire(), "second acquire while held must be rejected")

	g.Release()
	assert.True(t, g.TryAcquire(), "acquire after release should succeed")
}

func TestGuard_DoubleReleaseDetected(t *testing.T) {
	g := New()

	require.True(t, g.TryAcquire())
	require.True(t, g.Release())
	assert.False(t, g.Release(), "second release must report a defect")
}

func TestGuard_ReleaseWithoutAcquire(t *testing.T) {
	g := New()
	assert.False(t, g.Release())
}

func TestGuard_ConcurrentAcquire_ExactlyOneWins(t *testing.T) {
	g := New()

	const attempts = 64
	var wg sync.WaitGroup
	wins := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire() {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count, "exactly one acquirer must win")
}
