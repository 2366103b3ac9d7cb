// AngelaMos | 2026
// moderator.go

package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/carterperez-dev/sharaka/internal/collection"
	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

// Moderatable is an item with an id and a status that can be copied with a
// different status.
type Moderatable[V any] interface {
	ModerationID() string
	ModerationStatus() string
	WithStatus(status string) V
}

// Confirmer asks the acting admin to confirm a destructive action.
type Confirmer func(ctx context.Context, prompt string) (bool, error)

// Confirmed is a Confirmer with a fixed answer, for callers that collected
// the confirmation before the request.
func Confirmed(answer bool) Confirmer {
	return func(context.Context, string) (bool, error) {
		return answer, nil
	}
}

// Moderator runs moderation actions against one collection. Actions on the
// same item run one at a time, each seeing the outcome of the one before.
type Moderator[F comparable, V Moderatable[V]] struct {
	policy  Policy
	items   *collection.Collection[F, V]
	backend store.Backend
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

func NewModerator[F comparable, V Moderatable[V]](
	policy Policy,
	items *collection.Collection[F, V],
	backend store.Backend,
	logger *slog.Logger,
) *Moderator[F, V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Moderator[F, V]{
		policy:   policy,
		items:    items,
		backend:  backend,
		logger:   logger,
		inflight: make(map[string]chan struct{}),
	}
}

func (m *Moderator[F, V]) Policy() Policy {
	return m.policy
}

// SetStatus moves the item with id to status. The local collection shows
// the new status at once; if the backend rejects the update the item goes
// back to the status it had before and the backend error is returned.
func (m *Moderator[F, V]) SetStatus(ctx context.Context, id, status string) error {
	unlock, err := m.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	current, ok := m.find(id)
	if !ok {
		return core.NotFoundError(m.policy.noun())
	}

	from := current.ModerationStatus()
	if err := m.policy.Check(from, status); err != nil {
		return err
	}

	match := func(v V) bool { return v.ModerationID() == id }
	applied := func(v V) bool { return match(v) && v.ModerationStatus() == status }
	err = m.items.Optimistic(ctx,
		collection.Replace(match, func(v V) V { return v.WithStatus(status) }),
		collection.Replace(applied, func(v V) V { return v.WithStatus(from) }),
		func(ctx context.Context) error {
			return m.backend.Update(ctx, m.policy.Entity, id, map[string]any{
				schema.ColStatus: status,
			})
		},
	)
	if err != nil {
		return fmt.Errorf("set %s status: %w", m.policy.noun(), err)
	}

	m.logger.InfoContext(ctx, "moderation action",
		"entity", m.policy.Entity,
		"id", id,
		"from", from,
		"to", status,
	)
	return nil
}

// Delete removes the item with id once confirm agrees. A declined
// confirmation reports false and touches nothing. The item leaves the local
// collection only after the backend deleted it.
func (m *Moderator[F, V]) Delete(ctx context.Context, id string, confirm Confirmer) (bool, error) {
	if !m.policy.Deletable {
		return false, core.ForbiddenError(m.policy.noun() + "s cannot be deleted")
	}

	unlock, err := m.lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	ok, err := confirm(ctx, fmt.Sprintf("Delete %s %s?", m.policy.noun(), id))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	err = m.items.Confirmed(ctx,
		func(ctx context.Context) error {
			return m.backend.Delete(ctx, m.policy.Entity, id)
		},
		collection.Remove(func(v V) bool { return v.ModerationID() == id }),
	)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", m.policy.noun(), err)
	}

	m.logger.InfoContext(ctx, "moderation action",
		"entity", m.policy.Entity,
		"id", id,
		"action", ActionDelete,
	)
	return true, nil
}

// lock waits until no other action on id is running and claims it. The
// returned func releases the claim.
func (m *Moderator[F, V]) lock(ctx context.Context, id string) (func(), error) {
	for {
		m.mu.Lock()
		busy, ok := m.inflight[id]
		if !ok {
			done := make(chan struct{})
			m.inflight[id] = done
			m.mu.Unlock()

			return func() {
				m.mu.Lock()
				delete(m.inflight, id)
				m.mu.Unlock()
				close(done)
			}, nil
		}
		m.mu.Unlock()

		select {
		case <-busy:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (m *Moderator[F, V]) find(id string) (V, bool) {
	for _, v := range m.items.State().Data {
		if v.ModerationID() == id {
			return v, true
		}
	}
	var zero V
	return zero, false
}
