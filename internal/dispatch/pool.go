// Package dispatch runs webhook-triggered work in the background. A small
// fixed worker pool with a bounded queue replaces spawn-per-event: intake
// never blocks on slow LLM calls, concurrency stays capped, and failures
// are logged rather than propagated to the webhook response.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 64
)

type job struct {
	name string
	fn   func(ctx context.Context)
}

// Pool executes submitted jobs on a fixed set of workers.
type Pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	closed  bool
	stopped sync.Once
}

// NewPool builds a pool with the given worker count and queue depth;
// non-positive values use the defaults.
func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   make(chan job, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobs:
			if !ok {
				return
			}
			p.run(j)
		}
	}
}

func (p *Pool) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("job", j.name).Msg("background job panicked")
		}
	}()

	start := time.Now()
	j.fn(p.ctx)
	log.Debug().Str("job", j.name).Dur("took", time.Since(start)).Msg("background job finished")
}

// Submit enqueues fn for background execution. Returns false when the
// queue is full or the pool is shut down; the caller treats a drop as a
// logged, non-fatal condition.
func (p *Pool) Submit(name string, fn func(ctx context.Context)) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job{name: name, fn: fn}:
		return true
	default:
		log.Warn().Str("job", name).Msg("dispatch queue full, dropping job")
		return false
	}
}

// Shutdown stops intake and waits for in-flight jobs up to the context
// deadline. Queued-but-unstarted jobs still run if workers pick them up
// before the deadline.
func (p *Pool) Shutdown(ctx context.Context) {
	p.stopped.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.jobs)
		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			log.Warn().Msg("dispatch shutdown deadline reached, abandoning jobs")
		}
		p.cancel()
	})
}
