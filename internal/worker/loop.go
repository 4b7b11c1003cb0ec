package worker

import (
	"context"
	"sync"
)

// Executor runs callbacks on some owning context.
type Executor interface {
	Execute(fn func())
}

type ExecutorFunc func(fn func())

func (f ExecutorFunc) Execute(fn func()) { f(fn) }

// Inline runs callbacks on whichever goroutine finished the job.
var Inline Executor = ExecutorFunc(func(fn func()) { fn() })

// Loop is a sequential owner context: callbacks posted with Execute run one
// at a time on the goroutine calling Run.
type Loop struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

func NewLoop(buffer int) *Loop {
	if buffer < 0 {
		buffer = 0
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Execute posts fn to the loop. Posts after Close are dropped.
func (l *Loop) Execute(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}

// Run executes posted callbacks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunUntil executes callbacks until cond holds after one of them.
func (l *Loop) RunUntil(ctx context.Context, cond func() bool) error {
	for !cond() {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close stops Run and drops later posts.
func (l *Loop) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}
