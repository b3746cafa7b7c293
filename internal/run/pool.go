package run

import (
	"context"
	"fmt"
	"sync"
)

// Outcome carries a finished job's result off the pool.
type Outcome struct {
	Value any
	Err   error
}

type job struct {
	fn  func() (any, error)
	out chan Outcome
}

// Pool is a fixed-size worker pool for blocking functions that cannot
// observe context cancellation themselves. Jobs queue on a bounded
// channel; each job reports back on its own buffered channel so an
// abandoned caller never blocks a worker.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts workers goroutines consuming a queue of 2x that size.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	p := &Pool{jobs: make(chan job, workers*2)}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		value, err := j.fn()
		j.out <- Outcome{Value: value, Err: err}
	}
}

// Submit enqueues fn and returns the channel its outcome will arrive on.
// Enqueueing respects ctx so a caller with an expired deadline is not
// stuck behind a full queue.
func (p *Pool) Submit(ctx context.Context, fn func() (any, error)) (<-chan Outcome, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, fmt.Errorf("pool is closed")
	}

	j := job{fn: fn, out: make(chan Outcome, 1)}
	select {
	case p.jobs <- j:
		return j.out, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close drains the queue and waits for in-flight jobs to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
