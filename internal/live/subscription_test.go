package live

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscription_DeliversLoadError(t *testing.T) {
	h := newTestHub(t)
	boom := errors.New("boom")

	s := Watch(context.Background(), h, "q", nil, func(context.Context) (string, error) {
		return "", boom
	})
	defer s.Release()

	select {
	case r := <-s.Updates():
		assert.ErrorIs(t, r.Err, boom)
		assert.False(t, r.OK())
	case <-time.After(waitFor):
		t.Fatal("no update delivered")
	}
}

func TestSubscription_ReleaseClosesUpdates(t *testing.T) {
	h := newTestHub(t)
	_, load := counter()

	s := Watch(context.Background(), h, "q", []Topic{{Table: TableExpenses, UserID: 1}}, load)
	next(t, s)

	s.Release()
	s.Release()

	h.Notify(1, TableExpenses)
	_, ok := <-s.Updates()
	assert.False(t, ok, "no snapshot after Release")
	assert.Equal(t, 0, h.Len())
}

func TestSubscription_ReleaseWithUnreadSnapshot(t *testing.T) {
	h := newTestHub(t)
	_, load := counter()

	s := Watch(context.Background(), h, "q", nil, load)

	done := make(chan struct{})
	go func() {
		s.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Release blocked on an unread snapshot")
	}
	_, ok := <-s.Updates()
	assert.False(t, ok)
}

func TestSubscription_ReleaseDuringSlowLoad(t *testing.T) {
	h := newTestHub(t)
	started := make(chan struct{})

	s := Watch(context.Background(), h, "slow", nil, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-started

	done := make(chan struct{})
	go func() {
		s.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("Release waited for the load to finish")
	}
}

func TestSubscription_ContextCancelStops(t *testing.T) {
	h := newTestHub(t)
	_, load := counter()
	ctx, cancel := context.WithCancel(context.Background())

	s := Watch(ctx, h, "q", nil, load)
	next(t, s)
	cancel()

	select {
	case _, ok := <-s.Updates():
		assert.False(t, ok)
	case <-time.After(waitFor):
		t.Fatal("updates not closed after cancel")
	}
	s.Release()
	assert.Equal(t, 0, h.Len())
}

func TestSubscription_CoalescesBursts(t *testing.T) {
	h := newTestHub(t)
	runs, load := counter()

	s := Watch(context.Background(), h, "q", []Topic{{Table: TableExpenses, UserID: 1}}, load)
	defer s.Release()
	next(t, s)

	for i := 0; i < 10; i++ {
		h.Notify(1, TableExpenses)
	}

	delivered := 0
	timeout := time.After(100 * time.Millisecond)
collect:
	for {
		select {
		case r := <-s.Updates():
			require.NoError(t, r.Err)
			delivered++
		case <-timeout:
			break collect
		}
	}

	assert.GreaterOrEqual(t, delivered, 1)
	assert.LessOrEqual(t, delivered, 2)
	assert.LessOrEqual(t, runs.Load(), int64(3))
}
