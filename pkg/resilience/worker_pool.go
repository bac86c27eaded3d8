package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrWorkerPoolClosed = errors.New("worker pool is closed")

// WorkerPool runs error-returning jobs on a fixed number of goroutines and
// keeps the first failure. A panicking job is reported as an error.
type WorkerPool struct {
	jobs   chan func() error
	closed bool
	mu     sync.RWMutex
	once   sync.Once
	wg     sync.WaitGroup

	errOnce  sync.Once
	firstErr error
}

func NewWorkerPool(workers, queueSize int) *WorkerPool {
	workers = max(workers, 1)
	if queueSize <= 0 {
		queueSize = workers
	}

	p := &WorkerPool{
		jobs: make(chan func() error, queueSize),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.run(job)
			}
		}()
	}

	return p
}

func (p *WorkerPool) run(job func() error) {
	defer func() {
		if r := recover(); r != nil {
			p.report(fmt.Errorf("worker job panicked: %v", r))
		}
	}()
	p.report(job())
}

func (p *WorkerPool) report(err error) {
	if err == nil {
		return
	}
	p.errOnce.Do(func() {
		p.firstErr = err
	})
}

func (p *WorkerPool) Submit(ctx context.Context, job func() error) error {
	if job == nil {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrWorkerPoolClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

func (p *WorkerPool) Close() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
}

// Wait closes the pool, blocks until queued jobs finish and returns the first job error.
func (p *WorkerPool) Wait() error {
	p.Close()
	p.wg.Wait()
	return p.firstErr
}
