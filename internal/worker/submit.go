package worker

import (
	"context"
	"sync/atomic"

	"spendwise/internal/log"
)

// Handle lets an observer opt out of a pending delivery.
type Handle struct {
	released atomic.Bool
}

// Release discards the pending outcome. When called on the owner executor
// the callback is guaranteed not to run afterwards.
func (h *Handle) Release() {
	h.released.Store(true)
}

func (h *Handle) Released() bool {
	return h.released.Load()
}

// Submit runs fn on the pool and delivers its Result on owner, unless the
// returned handle was released first. If the pool refuses the job the
// refusal is delivered the same way. The job context inherits the caller's
// run id but not its cancellation.
func Submit[T any](ctx context.Context, p *Pool, owner Executor, fn func(context.Context) (T, error), deliver func(Result[T])) *Handle {
	h := &Handle{}
	post := func(res Result[T]) {
		if h.Released() {
			return
		}
		owner.Execute(func() {
			if h.Released() {
				return
			}
			deliver(res)
		})
	}

	runID := log.RunID(ctx)
	err := p.Go(ctx, func(jobCtx context.Context) {
		if h.Released() {
			return
		}
		if runID != "" {
			jobCtx = log.WithRunID(jobCtx, runID)
		}
		v, err := fn(jobCtx)
		post(Result[T]{Value: v, Err: err})
	})
	if err != nil {
		go post(Fail[T](err))
	}
	return h
}

// Await submits fn and blocks until its result arrives or ctx is done.
func Await[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	ch := make(chan Result[T], 1)
	h := Submit(ctx, p, Inline, fn, func(res Result[T]) { ch <- res })
	select {
	case res := <-ch:
		return res.Unpack()
	case <-ctx.Done():
		h.Release()
		var zero T
		return zero, ctx.Err()
	}
}
