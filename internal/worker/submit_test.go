package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/log"
)

func TestAwait(t *testing.T) {
	p := startPool(t, DefaultConfig())

	v, err := Await(context.Background(), p, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	boom := errors.New("boom")
	_, err = Await(context.Background(), p, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestAwait_CarriesRunID(t *testing.T) {
	p := startPool(t, DefaultConfig())
	ctx := log.WithRunID(context.Background(), "run_1")

	id, err := Await(ctx, p, func(jobCtx context.Context) (string, error) {
		return log.RunID(jobCtx), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "run_1", id)
}

func TestAwait_StoppedPool(t *testing.T) {
	p := NewPool(DefaultConfig(), log.Discard())

	_, err := Await(context.Background(), p, func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrStopped)
}

func TestAwait_ContextCancelled(t *testing.T) {
	p := startPool(t, DefaultConfig())
	gate := make(chan struct{})
	defer close(gate)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := Await(ctx, p, func(context.Context) (int, error) {
		<-gate
		return 1, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmit_DeliversOnOwnerLoop(t *testing.T) {
	p := startPool(t, DefaultConfig())
	loop := NewLoop(4)

	var got Result[string]
	delivered := false
	Submit(context.Background(), p, loop, func(context.Context) (string, error) {
		return "rows", nil
	}, func(r Result[string]) {
		got = r
		delivered = true
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, loop.RunUntil(ctx, func() bool { return delivered }))

	v, err := got.Unpack()
	require.NoError(t, err)
	assert.Equal(t, "rows", v)
}

func TestSubmit_ReleasedBeforeDelivery(t *testing.T) {
	p := startPool(t, DefaultConfig())
	loop := NewLoop(4)

	finished := make(chan struct{})
	h := Submit(context.Background(), p, loop, func(context.Context) (int, error) {
		defer close(finished)
		return 7, nil
	}, func(Result[int]) {
		t.Error("delivered after release")
	})

	<-finished
	// Release on the owner context: whatever the job posted must be discarded.
	h.Release()
	assert.True(t, h.Released())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, loop.Run(ctx), context.DeadlineExceeded)
}

func TestSubmit_RefusalIsDelivered(t *testing.T) {
	p := NewPool(DefaultConfig(), log.Discard())
	loop := NewLoop(1)

	var got error
	Submit(context.Background(), p, loop, func(context.Context) (int, error) {
		return 1, nil
	}, func(r Result[int]) { got = r.Err })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, loop.RunUntil(ctx, func() bool { return got != nil }))
	assert.ErrorIs(t, got, ErrStopped)
}
