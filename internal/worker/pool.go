// Package worker moves storage calls off the caller's context. A Pool runs
// jobs on background goroutines and Submit hands each outcome back on an
// owner Executor, such as a Loop standing in for a UI thread.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/log"
)

var ErrStopped = errors.New("worker pool is not running")

// Config holds configuration for the pool
type Config struct {
	// Workers is the number of goroutines draining the queue (default: 2)
	Workers int

	// QueueSize bounds pending jobs; Go blocks once it is full (default: 64)
	QueueSize int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Workers:   2,
		QueueSize: 64,
	}
}

// Job is a unit of background work. ctx is cancelled when the pool's parent
// context is.
type Job func(ctx context.Context)

type Pool struct {
	config Config
	logger *log.Logger
	jobs   chan Job

	mu       sync.Mutex
	running  bool
	inflight sync.WaitGroup // submitters between the running check and the enqueue
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewPool(config Config, logger *log.Logger) *Pool {
	def := DefaultConfig()
	if config.Workers <= 0 {
		config.Workers = def.Workers
	}
	if config.QueueSize <= 0 {
		config.QueueSize = def.QueueSize
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Pool{
		config: config,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Start launches the workers. Returns an error if already running.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("worker pool is already running")
	}
	p.running = true
	p.jobs = make(chan Job, p.config.QueueSize)
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	jobs, stopCh, doneCh := p.jobs, p.stopCh, p.doneCh
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < p.config.Workers; i++ {
		g.Go(func() error {
			p.work(gctx, jobs, stopCh)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(doneCh)
	}()

	p.logger.DebugContext(ctx, "Worker pool started",
		"workers", p.config.Workers,
		"queue_size", p.config.QueueSize)
	return nil
}

// Stop refuses new jobs, lets the workers finish what is queued and waits
// for them or for ctx.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	p.inflight.Wait()
	close(stopCh)

	select {
	case <-doneCh:
		p.logger.DebugContext(ctx, "Worker pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Worker pool stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the pool currently accepts jobs
func (p *Pool) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Go enqueues job. It blocks while the queue is full and fails with
// ErrStopped once the pool is stopping.
func (p *Pool) Go(ctx context.Context, job Job) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrStopped
	}
	p.inflight.Add(1)
	jobs := p.jobs
	p.mu.Unlock()
	defer p.inflight.Done()

	select {
	case jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work(ctx context.Context, jobs <-chan Job, stopCh <-chan struct{}) {
	for {
		select {
		case job := <-jobs:
			p.run(ctx, job)
		case <-stopCh:
			p.drain(ctx, jobs)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) drain(ctx context.Context, jobs <-chan Job) {
	for {
		select {
		case job := <-jobs:
			p.run(ctx, job)
		default:
			return
		}
	}
}

func (p *Pool) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "Worker job panicked", "panic", r)
		}
	}()
	job(ctx)
}
