package modqueue_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jitsi-contrib/jingle-sessioncore/internal/modqueue"
	"github.com/stretchr/testify/require"
)

// TestSerializedExecution verifies spec.md Property 1: at most one
// task's work function is between invocation and its done callback at
// any instant, regardless of task durations.
func TestSerializedExecution(t *testing.T) {
	q := modqueue.New()
	defer q.Stop()

	var inFlight int32
	var maxObserved int32
	var wg sync.WaitGroup

	const tasks = 20
	wg.Add(tasks)

	for i := 0; i < tasks; i++ {
		delay := time.Duration(tasks-i) * time.Millisecond
		require.NoError(t, q.Submit(modqueue.Task{
			Work: func(done func(error)) {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					observed := atomic.LoadInt32(&maxObserved)
					if n <= observed || atomic.CompareAndSwapInt32(&maxObserved, observed, n) {
						break
					}
				}
				time.Sleep(delay)
				atomic.AddInt32(&inFlight, -1)
				done(nil)
			},
			Completion: func(error) { wg.Done() },
		}))
	}

	wg.Wait()
	require.Equal(t, int32(1), atomic.LoadInt32(&maxObserved))
}

// TestCompletionOrderMatchesSubmissionOrder verifies completion
// callbacks fire in submission order even though each task's work
// takes a different amount of time to finish.
func TestCompletionOrderMatchesSubmissionOrder(t *testing.T) {
	q := modqueue.New()
	defer q.Stop()

	const tasks = 10
	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	wg.Add(tasks)

	for i := 0; i < tasks; i++ {
		i := i
		delay := time.Duration(tasks-i) * time.Millisecond
		require.NoError(t, q.Submit(modqueue.Task{
			Work: func(done func(error)) {
				time.Sleep(delay)
				done(nil)
			},
			Completion: func(error) {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
				wg.Done()
			},
		}))
	}

	wg.Wait()

	expected := make([]int, tasks)
	for i := range expected {
		expected[i] = i
	}
	require.Equal(t, expected, order)
}

// TestFailureDoesNotDrainQueue verifies a failing task's error reaches
// only its own completion callback and subsequent tasks still run.
func TestFailureDoesNotDrainQueue(t *testing.T) {
	q := modqueue.New()
	defer q.Stop()

	boom := errors.New("boom")
	var wg sync.WaitGroup
	wg.Add(2)

	var firstErr, secondErr error

	require.NoError(t, q.Submit(modqueue.Task{
		Work: func(done func(error)) { done(boom) },
		Completion: func(err error) {
			firstErr = err
			wg.Done()
		},
	}))
	require.NoError(t, q.Submit(modqueue.Task{
		Work: func(done func(error)) { done(nil) },
		Completion: func(err error) {
			secondErr = err
			wg.Done()
		},
	}))

	wg.Wait()
	require.ErrorIs(t, firstErr, boom)
	require.NoError(t, secondErr)
}

func TestSubmitAfterStopFails(t *testing.T) {
	q := modqueue.New()
	q.Stop()

	err := q.Submit(modqueue.Task{
		Work: func(done func(error)) { done(nil) },
	})
	require.ErrorIs(t, err, modqueue.ErrQueueClosed)
}
