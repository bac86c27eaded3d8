package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolExecutesJobs(t *testing.T) {
	pool := NewWorkerPool(3, 6)

	var count int32
	for i := 0; i < 10; i++ {
		if err := pool.Submit(context.Background(), func() error {
			atomic.AddInt32(&count, 1)
			return nil
		}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	if err := pool.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&count); got != 10 {
		t.Fatalf("expected 10 jobs executed, got %d", got)
	}
}

func TestWorkerPoolReturnsFirstError(t *testing.T) {
	pool := NewWorkerPool(1, 4)
	boom := errors.New("boom")

	_ = pool.Submit(context.Background(), func() error { return nil })
	_ = pool.Submit(context.Background(), func() error { return boom })
	_ = pool.Submit(context.Background(), func() error { return errors.New("later") })

	if err := pool.Wait(); !errors.Is(err, boom) {
		t.Fatalf("expected first error boom, got %v", err)
	}
}

func TestWorkerPoolRecoversPanics(t *testing.T) {
	pool := NewWorkerPool(2, 2)
	_ = pool.Submit(context.Background(), func() error { panic("bad job") })

	if err := pool.Wait(); err == nil {
		t.Fatalf("expected panic to surface as error")
	}
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	pool.Close()
	if err := pool.Submit(context.Background(), func() error { return nil }); err != ErrWorkerPoolClosed {
		t.Fatalf("expected ErrWorkerPoolClosed, got %v", err)
	}
}

func TestWorkerPoolSubmitCanceled(t *testing.T) {
	pool := NewWorkerPool(1, 1)
	block := make(chan struct{})
	_ = pool.Submit(context.Background(), func() error { <-block; return nil })
	_ = pool.Submit(context.Background(), func() error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.Submit(ctx, func() error { return nil }); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	close(block)
	_ = pool.Wait()
}
