// AngelaMos | 2026
// collection.go

package collection

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/carterperez-dev/sharaka/internal/core"
)

// Fetcher loads the full result set for one filter value.
type Fetcher[F comparable, V any] func(ctx context.Context, filter F) ([]V, error)

// Patch transforms the local data of a collection. It receives a copy and
// may modify it in place.
type Patch[V any] func(items []V) []V

type State[V any] struct {
	Data    []V    `json:"data"`
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// Collection is a cached, filterable view of one backend table. Data only
// ever changes through a completed fetch or a local mutation, and only the
// most recently issued fetch may write its result. A fetch that overlapped
// a mutation is issued again once no mutation is in flight, so its result
// always reflects every committed change.
type Collection[F comparable, V any] struct {
	name   string
	fetch  Fetcher[F, V]
	logger *slog.Logger

	mu      sync.Mutex
	filter  F
	started bool
	stale   bool
	gen     uint64
	epoch   uint64
	pending int
	idle    chan struct{}
	data    []V
	loading bool
	err     string
}

func New[F comparable, V any](
	name string,
	fetch Fetcher[F, V],
	logger *slog.Logger,
) *Collection[F, V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[F, V]{
		name:   name,
		fetch:  fetch,
		logger: logger.With("collection", name),
		data:   []V{},
	}
}

// Use returns the collection for filter. The first call, and any call with
// a filter different from the previous one, fetches before returning; a
// repeated filter returns the cached state without a backend call.
func (c *Collection[F, V]) Use(ctx context.Context, filter F) State[V] {
	c.mu.Lock()
	if c.started && !c.stale && c.filter == filter {
		st := c.snapshotLocked()
		c.mu.Unlock()
		return st
	}
	c.started = true
	c.filter = filter
	c.mu.Unlock()

	return c.load(ctx, filter)
}

// Refetch reloads using the current filter.
func (c *Collection[F, V]) Refetch(ctx context.Context) State[V] {
	c.mu.Lock()
	filter := c.filter
	c.started = true
	c.mu.Unlock()

	return c.load(ctx, filter)
}

// Invalidate marks the cached data as out of date without fetching. The
// next Use reloads it with the caller's own context, and a fetch already in
// flight is issued again.
func (c *Collection[F, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
	c.epoch++
}

func (c *Collection[F, V]) State() State[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collection[F, V]) Filter() F {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *Collection[F, V]) load(ctx context.Context, filter F) State[V] {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.loading = true
	c.err = ""
	c.mu.Unlock()

	for {
		c.mu.Lock()
		epoch := c.epoch
		c.mu.Unlock()

		items, err := c.fetch(ctx, filter)

		c.mu.Lock()
		if gen != c.gen {
			c.logger.DebugContext(ctx, "discarding stale fetch",
				"generation", gen,
				"current", c.gen,
			)
			st := c.snapshotLocked()
			c.mu.Unlock()
			return st
		}

		if err == nil && (c.epoch != epoch || c.pending > 0) {
			idle := c.idle
			busy := c.pending > 0
			c.mu.Unlock()

			c.logger.DebugContext(ctx, "refetching after local mutation",
				"generation", gen,
			)
			if busy {
				if werr := waitIdle(ctx, idle); werr != nil {
					err = werr
					c.mu.Lock()
					if gen != c.gen {
						st := c.snapshotLocked()
						c.mu.Unlock()
						return st
					}
				}
			}
			if err == nil {
				continue
			}
		}

		c.loading = false
		if err != nil {
			c.err = core.Message(err)
			c.logger.WarnContext(ctx, "fetch failed", "error", err)
			st := c.snapshotLocked()
			c.mu.Unlock()
			return st
		}

		if items == nil {
			items = []V{}
		}
		c.data = items
		c.stale = false
		st := c.snapshotLocked()
		c.mu.Unlock()
		return st
	}
}

func waitIdle(ctx context.Context, idle <-chan struct{}) error {
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Optimistic applies a local change immediately, then commits it remotely.
// If the commit fails, revert is applied to whatever the data is by then
// and the commit error is returned. revert should only touch items that
// still carry the change apply made.
func (c *Collection[F, V]) Optimistic(
	ctx context.Context,
	apply Patch[V],
	revert Patch[V],
	commit func(context.Context) error,
) error {
	c.begin()
	defer c.end()

	c.mutate(apply)

	if err := commit(ctx); err != nil {
		c.mutate(revert)
		c.logger.WarnContext(ctx, "optimistic change rolled back", "error", err)
		return err
	}
	return nil
}

// Confirmed commits remotely first and applies the local change only after
// the backend accepted it.
func (c *Collection[F, V]) Confirmed(
	ctx context.Context,
	commit func(context.Context) error,
	apply Patch[V],
) error {
	c.begin()
	defer c.end()

	if err := commit(ctx); err != nil {
		return err
	}
	c.mutate(apply)
	return nil
}

// begin and end bracket a remote commit. While any commit is in flight a
// completed fetch is not stored; it is issued again after the last one ends.
func (c *Collection[F, V]) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == 0 {
		c.idle = make(chan struct{})
	}
	c.pending++
}

func (c *Collection[F, V]) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.pending--
	if c.pending == 0 {
		close(c.idle)
	}
}

func (c *Collection[F, V]) mutate(p Patch[V]) {
	if p == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	next := p(slices.Clone(c.data))
	if next == nil {
		next = []V{}
	}
	c.data = next
}

func (c *Collection[F, V]) snapshotLocked() State[V] {
	return State[V]{
		Data:    slices.Clone(c.data),
		Loading: c.loading,
		Err:     c.err,
	}
}

// Replace returns a Patch that swaps every item matching pred for the
// result of fn.
func Replace[V any](pred func(V) bool, fn func(V) V) Patch[V] {
	return func(items []V) []V {
		for i, v := range items {
			if pred(v) {
				items[i] = fn(v)
			}
		}
		return items
	}
}

// Remove returns a Patch dropping every item matching pred.
func Remove[V any](pred func(V) bool) Patch[V] {
	return func(items []V) []V {
		return slices.DeleteFunc(items, pred)
	}
}
