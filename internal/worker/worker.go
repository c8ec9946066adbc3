package worker

import (
	"context"
	"sync"
)

// Job is one unit of fan-out work, typically a device to notify.
type Job any

type ProcessFunc func(ctx context.Context, job Job)

// Pool is a bounded fan-out pool. A dispatch run creates one pool, submits
// every device, then calls Wait to join before touching persisted state.
type Pool struct {
	numWorkers int
	jobs       chan Job
	processor  ProcessFunc
	wg         sync.WaitGroup
}

func NewPool(numWorkers int, bufferSize int, processor ProcessFunc) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool{
		numWorkers: numWorkers,
		jobs:       make(chan Job, bufferSize),
		processor:  processor,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processor(ctx, job)
		}
	}
}

// Submit blocks when the buffer is full, which keeps a large device set
// from piling up unbounded in memory. Returns false when ctx was canceled
// before the job could be queued.
func (p *Pool) Submit(ctx context.Context, job Job) bool {
	select {
	case <-ctx.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Wait closes the queue and blocks until every in-flight job finishes.
func (p *Pool) Wait() {
	close(p.jobs)
	p.wg.Wait()
}
