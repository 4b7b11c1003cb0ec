// Package live turns list queries into push-updating subscriptions. The
// repositories tell the Hub which tables changed for which user; every
// subscription watching one of those topics reloads and pushes a fresh
// snapshot.
package live

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"spendwise/internal/log"
)

type Table string

const (
	TableUsers       Table = "users"
	TableCategories  Table = "categories"
	TableExpenses    Table = "expenses"
	TableBudgetGoals Table = "budget_goals"
)

// AllTables lists every table, for changes that touch all of them.
var AllTables = []Table{TableUsers, TableCategories, TableExpenses, TableBudgetGoals}

// Topic is one table as seen by one user.
type Topic struct {
	Table  Table
	UserID int64
}

type watcher interface {
	key() string
	markDirty()
}

type Hub struct {
	logger *log.Logger
	loads  singleflight.Group

	// ctx bounds in-flight loads; it outlives any single subscription.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	topics map[Topic]map[string]watcher
	all    map[string]watcher
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		logger: logger.WithComponent(log.ComponentLive),
		ctx:    ctx,
		cancel: cancel,
		topics: make(map[Topic]map[string]watcher),
		all:    make(map[string]watcher),
	}
}

// Close aborts in-flight loads. Subscriptions still need Release.
func (h *Hub) Close() {
	h.cancel()
}

// Notify marks every subscription on the given tables of userID as stale.
// Call it after the change has been committed.
func (h *Hub) Notify(userID int64, tables ...Table) {
	h.mu.Lock()
	var hit []watcher
	for _, t := range tables {
		for _, w := range h.topics[Topic{Table: t, UserID: userID}] {
			hit = append(hit, w)
		}
	}
	h.mu.Unlock()

	h.wake(hit)
	if len(hit) > 0 {
		h.logger.Debug("Notified subscriptions",
			log.FieldUserID, userID,
			log.FieldTable, tables,
			log.FieldCount, len(hit))
	}
}

// Broadcast marks every subscription as stale.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	hit := make([]watcher, 0, len(h.all))
	for _, w := range h.all {
		hit = append(hit, w)
	}
	h.mu.Unlock()

	h.wake(hit)
}

func (h *Hub) wake(hit []watcher) {
	for _, w := range hit {
		// A load that started before the change must not be shared with a
		// reload triggered by it.
		h.loads.Forget(w.key())
		w.markDirty()
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.all)
}

func (h *Hub) register(id string, topics []Topic, w watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		set, ok := h.topics[t]
		if !ok {
			set = make(map[string]watcher)
			h.topics[t] = set
		}
		set[id] = w
	}
	h.all[id] = w
}

func (h *Hub) unregister(id string, topics []Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, t := range topics {
		if set, ok := h.topics[t]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(h.topics, t)
			}
		}
	}
	delete(h.all, id)
}

// PollExternal broadcasts whenever version reports a new value, so commits
// made by other processes reach local subscriptions. It blocks until ctx is
// done.
func (h *Hub) PollExternal(ctx context.Context, interval time.Duration, version func(context.Context) (int64, error)) error {
	last, err := version(ctx)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			v, err := version(ctx)
			if err != nil {
				h.logger.WarnContext(ctx, "Failed to read data version", log.FieldError, err)
				continue
			}
			if v != last {
				last = v
				h.Broadcast()
			}
		}
	}
}
