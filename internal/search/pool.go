package search

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"swissjobs-utils/internal/config"
	"swissjobs-utils/internal/logging"
	"swissjobs-utils/pkg/utils"
)

// Pool bounds concurrent acquisition runs. Every run goes through the
// queue so the portal never sees more parallel sessions than
// configured, with a shared rate limit across all searches.
type Pool struct {
	size    int
	queue   chan *task
	limiter *rate.Limiter
	timeout time.Duration
	logger  logging.Logger

	wg      sync.WaitGroup
	started atomic.Bool
	stopped atomic.Bool

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64
}

type task struct {
	id   string
	ctx  context.Context
	run  func(ctx context.Context) error
	done chan error
}

// PoolStats is a point-in-time snapshot of pool activity.
type PoolStats struct {
	Workers   int   `json:"workers"`
	QueueLen  int   `json:"queue_len"`
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Active    int64 `json:"active"`
}

// NewPool sizes a pool from the worker configuration.
func NewPool(cfg *config.Config, logger logging.Logger) *Pool {
	size := cfg.Workers.PoolSize
	if size < 1 {
		size = 1
	}
	queueSize := cfg.Workers.QueueSize
	if queueSize < 1 {
		queueSize = size * 2
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.Workers.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.Workers.RateLimit)/60.0), cfg.Workers.PoolSize)
	}

	timeout := cfg.Workers.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &Pool{
		size:    size,
		queue:   make(chan *task, queueSize),
		limiter: limiter,
		timeout: timeout,
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("Search worker pool started", map[string]interface{}{
		"workers": p.size,
		"queue":   cap(p.queue),
	})
}

// Stop drains the queue and waits for in-flight runs to finish.
func (p *Pool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	close(p.queue)
	p.wg.Wait()
	p.logger.Info("Search worker pool stopped")
}

// Do queues fn and blocks until it finishes or ctx is done. A full
// queue rejects immediately instead of blocking callers.
func (p *Pool) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if p.stopped.Load() {
		return fmt.Errorf("worker pool is stopped")
	}

	t := &task{
		id:   utils.GenerateRequestID(),
		ctx:  ctx,
		run:  fn,
		done: make(chan error, 1),
	}
	p.submitted.Add(1)

	select {
	case p.queue <- t:
	default:
		p.failed.Add(1)
		return fmt.Errorf("worker pool queue is full")
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		// The worker runs fn under a child of ctx, so it unwinds
		// promptly. Wait for it anyway: returning while fn still runs
		// would let the caller read results the closure is writing.
		if err := <-t.done; err != nil {
			return err
		}
		return ctx.Err()
	}
}

// Stats returns a snapshot of pool counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:   p.size,
		QueueLen:  len(p.queue),
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Active:    p.active.Load(),
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for t := range p.queue {
		if t.ctx.Err() != nil {
			t.done <- t.ctx.Err()
			p.failed.Add(1)
			continue
		}
		if err := p.limiter.Wait(t.ctx); err != nil {
			t.done <- err
			p.failed.Add(1)
			continue
		}

		runCtx, cancel := context.WithTimeout(t.ctx, p.timeout)
		p.active.Add(1)
		err := t.run(runCtx)
		p.active.Add(-1)
		cancel()

		if err != nil {
			p.failed.Add(1)
			p.logger.Debug("Search task failed", map[string]interface{}{
				"worker": id,
				"task":   t.id,
				"error":  err.Error(),
			})
		} else {
			p.completed.Add(1)
		}
		t.done <- err
	}
}
