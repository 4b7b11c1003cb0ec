package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"spendwise/internal/worker"
)

// Subscription pushes a fresh snapshot of a query after every change to the
// topics it watches. Bursts of changes are coalesced into one reload.
type Subscription[T any] struct {
	id     string
	hub    *Hub
	topics []Topic
	load   func(context.Context) (T, error)
	qkey   string

	dirty   chan struct{}
	updates chan worker.Result[T]
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// Watch subscribes to the result of load. key identifies the query (same
// key, same result type) so concurrent reloads of one query share a single
// database round trip. The first snapshot is delivered right away.
func Watch[T any](ctx context.Context, h *Hub, key string, topics []Topic, load func(context.Context) (T, error)) *Subscription[T] {
	s := &Subscription[T]{
		id:      uuid.NewString(),
		hub:     h,
		topics:  topics,
		load:    load,
		qkey:    key,
		dirty:   make(chan struct{}, 1),
		updates: make(chan worker.Result[T]),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	h.register(s.id, topics, s)
	go s.run(ctx)
	return s
}

// ID identifies the subscription in logs.
func (s *Subscription[T]) ID() string {
	return s.id
}

// Updates delivers snapshots until the subscription is released or its
// context ends, then is closed.
func (s *Subscription[T]) Updates() <-chan worker.Result[T] {
	return s.updates
}

// Release stops delivery. Once it returns no further snapshot is delivered
// and Updates is closed. Safe to call more than once and from any goroutine,
// including the one reading Updates.
func (s *Subscription[T]) Release() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *Subscription[T]) key() string {
	return s.qkey
}

func (s *Subscription[T]) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription[T]) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.updates)
	defer s.hub.unregister(s.id, s.topics)

	for {
		res, ok := s.reload(ctx)
		if !ok {
			return
		}
		select {
		case s.updates <- res:
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}

		select {
		case <-s.dirty:
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Subscription[T]) reload(ctx context.Context) (worker.Result[T], bool) {
	ch := s.hub.loads.DoChan(s.qkey, func() (any, error) {
		return s.load(s.hub.ctx)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return worker.Fail[T](r.Err), true
		}
		v, ok := r.Val.(T)
		if !ok {
			return worker.Fail[T](fmt.Errorf("live: query %q shared by different result types", s.qkey)), true
		}
		return worker.Ok(v), true
	case <-s.stop:
		return worker.Result[T]{}, false
	case <-ctx.Done():
		return worker.Result[T]{}, false
	}
}
