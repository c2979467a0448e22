package parallel

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
)

func newPool(t *testing.T, workers int) *WorkerPool {
	t.Helper()
	pool, err := NewWorkerPool(workers, nil)
	require.NoError(t, err)
	return pool
}

func TestWorkerPoolRunsAllTasks(t *testing.T) {
	pool := newPool(t, 5)

	const numTasks = 50
	executed := make([]bool, numTasks)
	var mu sync.Mutex

	for i := 0; i < numTasks; i++ {
		taskID := i
		require.True(t, pool.Submit(func() {
			mu.Lock()
			executed[taskID] = true
			mu.Unlock()
		}))
	}
	pool.Close()

	for i, ok := range executed {
		assert.Truef(t, ok, "task %d was not executed", i)
	}
	assert.Equal(t, int64(numTasks), pool.Completed())
}

func TestWorkerPoolConcurrentSubmissions(t *testing.T) {
	pool := newPool(t, 10)

	const numTasks = 100
	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < numTasks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Submit(func() { counter.Add(1) })
		}()
	}
	wg.Wait()
	pool.Close()

	assert.Equal(t, int64(numTasks), counter.Load())
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := newPool(t, 4)
	pool.Close()

	ok := pool.Submit(func() {
		t.Error("task submitted after close must not run")
	})
	assert.False(t, ok)
}

func TestWorkerPoolMultipleClose(t *testing.T) {
	pool := newPool(t, 4)
	for i := 0; i < 10; i++ {
		pool.Submit(func() { time.Sleep(time.Millisecond) })
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Close()
		}()
	}
	wg.Wait()
	pool.Close()
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	pool, err := NewWorkerPool(2, logging.NewJSONLogger(&buf, logging.ErrorLevel))
	require.NoError(t, err)

	var counter atomic.Int64
	for i := 0; i < 5; i++ {
		pool.Submit(func() { panic("boom") })
		pool.Submit(func() { counter.Add(1) })
	}
	pool.Close()

	assert.Equal(t, int64(5), counter.Load())
	assert.Equal(t, int64(5), pool.Panics())
	assert.Equal(t, 5, strings.Count(buf.String(), "worker task panicked"))
}

func TestNewWorkerPoolClampsWorkers(t *testing.T) {
	pool := newPool(t, 0)
	defer pool.Close()
	assert.Equal(t, 1, pool.Workers())

	_, err := NewWorkerPool(MaxWorkers+1, nil)
	assert.ErrorIs(t, err, ErrTooManyWorkers)
}

func BenchmarkWorkerPool(b *testing.B) {
	pool, err := NewWorkerPool(8, nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.Submit(func() {
			sum := 0
			for j := 0; j < 100; j++ {
				sum += j
			}
			_ = sum
		})
	}
	pool.Close()
}
