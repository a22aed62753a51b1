package drip_test

import (
	"sync"
	"testing"
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/drip"
	"github.com/stretchr/testify/require"
)

func TestBatcherCoalescesBurst(t *testing.T) {
	var mu sync.Mutex
	var flushes [][]int

	b := drip.New(20*time.Millisecond, func(batch []int) {
		mu.Lock()
		defer mu.Unlock()
		flushes = append(flushes, batch)
	})

	b.Add(1)
	b.Add(2)
	b.Add(3)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(flushes) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, [][]int{{1, 2, 3}}, flushes)
}

func TestBatcherImmediateModeFlushesEveryAdd(t *testing.T) {
	var mu sync.Mutex
	var flushes [][]int

	b := drip.New(0, func(batch []int) {
		mu.Lock()
		defer mu.Unlock()
		flushes = append(flushes, batch)
	})

	b.Add(1)
	b.Add(2)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, [][]int{{1}, {2}}, flushes)
}

func TestBatcherFlushBypassesWindow(t *testing.T) {
	var flushed []int
	b := drip.New(time.Hour, func(batch []int) {
		flushed = append(flushed, batch...)
	})

	b.Add(1)
	b.Add(2)
	b.Flush()

	require.Equal(t, []int{1, 2}, flushed)
}

func TestBatcherCloseFlushesPendingAndStopsAccepting(t *testing.T) {
	var flushed []int
	b := drip.New(time.Hour, func(batch []int) {
		flushed = append(flushed, batch...)
	})

	b.Add(1)
	b.Close()
	b.Add(2)

	require.Equal(t, []int{1}, flushed)
}
