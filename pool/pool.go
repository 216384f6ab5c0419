// Package pool provides the bounded worker pool that runs formatting and
// delivery tasks off the caller's path. One pool is shared process-wide by
// every logger that does not bring its own.
package pool

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tcpport0/chimera-logging/internal/diag"
)

const (
	// DefaultWorkers bounds concurrent I/O fan-out for the whole process.
	DefaultWorkers = 2

	defaultQueueSize = 1024
)

// Pool is a fixed-size worker pool with a bounded task queue. Submit never
// blocks: when the queue is saturated the task is dropped and reported to
// diagnostics.
type Pool struct {
	mu     sync.RWMutex
	closed bool
	tasks  chan func()
	group  errgroup.Group
}

// New starts a pool with the given worker count. Non-positive counts fall
// back to DefaultWorkers.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	p := &Pool{tasks: make(chan func(), defaultQueueSize)}
	for i := 0; i < workers; i++ {
		p.group.Go(func() error {
			p.worker()
			return nil
		})
	}
	return p
}

// Submit enqueues task for asynchronous execution. It returns false when
// the pool is closed or its queue is full; the task is not run in either
// case.
func (p *Pool) Submit(task func()) bool {
	if task == nil {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
		diag.L().Warn("worker pool queue full, dropping task")
		return false
	}
}

// Close stops accepting tasks, runs everything already queued, and waits
// for the workers to exit. Close is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	_ = p.group.Wait()
}

func (p *Pool) worker() {
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			diag.L().Error("worker task panicked", zap.Any("panic", r))
		}
	}()
	task()
}
