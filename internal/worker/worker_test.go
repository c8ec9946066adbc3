package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_ProcessesAllJobs(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job Job) {
		processed.Add(1)
	}

	pool := NewPool(2, 10, processor)

	ctx := context.Background()
	pool.Start(ctx)

	for i := 0; i < 25; i++ {
		if !pool.Submit(ctx, i) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	pool.Wait()

	if processed.Load() != 25 {
		t.Errorf("expected 25 jobs processed, got %d", processed.Load())
	}
}

func TestPool_ConcurrentSubmit(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job Job) {
		processed.Add(1)
	}

	pool := NewPool(4, 100, processor)

	ctx := context.Background()
	pool.Start(ctx)

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(base int) {
			for j := 0; j < 25; j++ {
				pool.Submit(ctx, base*25+j)
			}
			done <- struct{}{}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	pool.Wait()

	if processed.Load() != 100 {
		t.Errorf("expected 100 jobs processed, got %d", processed.Load())
	}
}

func TestPool_SubmitRejectsAfterCancel(t *testing.T) {
	pool := NewPool(1, 0, func(ctx context.Context, job Job) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No worker will ever drain an unbuffered queue here; a canceled
	// context must keep Submit from blocking the caller forever.
	deadline := time.After(2 * time.Second)
	result := make(chan bool, 1)
	go func() {
		result <- pool.Submit(ctx, 1)
	}()

	select {
	case ok := <-result:
		if ok {
			t.Error("expected Submit to reject after cancel")
		}
	case <-deadline:
		t.Fatal("Submit blocked after context cancellation")
	}
}

func TestPool_WaitJoinsInFlightWork(t *testing.T) {
	var processed atomic.Int64
	processor := func(ctx context.Context, job Job) {
		time.Sleep(10 * time.Millisecond)
		processed.Add(1)
	}

	pool := NewPool(2, 50, processor)

	ctx := context.Background()
	pool.Start(ctx)

	for i := 0; i < 20; i++ {
		pool.Submit(ctx, i)
	}

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()

	select {
	case <-done:
		if processed.Load() != 20 {
			t.Errorf("expected all 20 jobs done at join, got %d", processed.Load())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool.Wait() timed out")
	}
}
