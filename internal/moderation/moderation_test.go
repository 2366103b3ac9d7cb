// AngelaMos | 2026
// moderation_test.go

package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sharaka/internal/collection"
	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

type row struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func (r row) ModerationID() string     { return r.ID }
func (r row) ModerationStatus() string { return r.Status }
func (r row) WithStatus(s string) row  { r.Status = s; return r }

func setup(t *testing.T, table schema.Entity, policy Policy) (*store.Memory, *collection.Collection[string, row], *Moderator[string, row]) {
	t.Helper()

	mem := store.NewMemory()
	require.NoError(t, mem.Seed(table,
		map[string]any{"id": "a", "title": "A", "status": StatusPending, "created_at": "2026-01-01T00:00:00Z"},
		map[string]any{"id": "b", "title": "B", "status": StatusActive, "created_at": "2026-01-02T00:00:00Z"},
	))

	coll := collection.New(string(table), func(ctx context.Context, status string) ([]row, error) {
		var rows []row
		q := schema.Query{Table: table, Order: &schema.Order{Column: schema.ColCreatedAt}}
		if status != "" {
			q = q.Where(schema.Eq(schema.ColStatus, status))
		}
		err := mem.Select(ctx, q, &rows)
		return rows, err
	}, nil)
	coll.Use(context.Background(), "")

	return mem, coll, NewModerator(policy, coll, mem, nil)
}

func statusOf(c *collection.Collection[string, row], id string) string {
	for _, r := range c.State().Data {
		if r.ID == id {
			return r.Status
		}
	}
	return ""
}

func TestProjectApproveUpdatesLocalAndRemote(t *testing.T) {
	mem, coll, mod := setup(t, schema.Projects, ProjectPolicy)
	ctx := context.Background()

	require.NoError(t, mod.SetStatus(ctx, "a", StatusActive))
	assert.Equal(t, StatusActive, statusOf(coll, "a"))

	var remote []row
	require.NoError(t, mem.Select(ctx, schema.Query{Table: schema.Projects}.Where(schema.Eq("id", "a")), &remote))
	assert.Equal(t, StatusActive, remote[0].Status)
}

func TestProjectApproveRollsBackOnBackendFailure(t *testing.T) {
	mem, coll, mod := setup(t, schema.Projects, ProjectPolicy)
	ctx := context.Background()

	var during string
	mem.SetFault(func(op string, _ schema.Entity) error {
		if op != "update" {
			return nil
		}
		during = statusOf(coll, "a")
		return &store.Error{Status: 403, Code: "42501", Message: "permission denied for table projects"}
	})

	err := mod.SetStatus(ctx, "a", StatusActive)
	require.Error(t, err)
	assert.Equal(t, "permission denied for table projects", core.Message(err))
	assert.ErrorIs(t, err, core.ErrForbidden)

	assert.Equal(t, StatusActive, during)
	assert.Equal(t, StatusPending, statusOf(coll, "a"))
}

func TestProjectTransitionsOnlyFromPending(t *testing.T) {
	_, coll, mod := setup(t, schema.Projects, ProjectPolicy)

	err := mod.SetStatus(context.Background(), "b", StatusSuspended)
	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, "cannot change project status from active to suspended", core.Message(err))
	assert.Equal(t, StatusActive, statusOf(coll, "b"))
}

func TestUnknownStatusRejected(t *testing.T) {
	_, _, mod := setup(t, schema.Users, UserPolicy)

	err := mod.SetStatus(context.Background(), "a", "banned")
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestUserCanBeReactivated(t *testing.T) {
	_, coll, mod := setup(t, schema.Users, UserPolicy)
	ctx := context.Background()

	require.NoError(t, mod.SetStatus(ctx, "b", StatusSuspended))
	require.NoError(t, mod.SetStatus(ctx, "b", StatusActive))
	assert.Equal(t, StatusActive, statusOf(coll, "b"))

	require.Error(t, mod.SetStatus(ctx, "b", StatusActive))
}

func TestSetStatusUnknownItem(t *testing.T) {
	_, _, mod := setup(t, schema.Users, UserPolicy)

	err := mod.SetStatus(context.Background(), "zzz", StatusActive)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteDeclinedMakesNoBackendCall(t *testing.T) {
	mem, coll, mod := setup(t, schema.Projects, ProjectPolicy)

	calls := 0
	mem.SetFault(func(op string, _ schema.Entity) error {
		if op == "delete" {
			calls++
		}
		return nil
	})

	ok, err := mod.Delete(context.Background(), "a", Confirmed(false))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, calls)
	assert.Len(t, coll.State().Data, 2)
}

func TestDeleteConfirmedRemovesItem(t *testing.T) {
	mem, coll, mod := setup(t, schema.Projects, ProjectPolicy)

	ok, err := mod.Delete(context.Background(), "a", Confirmed(true))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, coll.State().Data, 1)
	assert.Equal(t, 1, mem.Count(schema.Projects))
}

func TestDeleteFailureLeavesCollection(t *testing.T) {
	mem, coll, mod := setup(t, schema.Projects, ProjectPolicy)
	mem.SetFault(func(op string, _ schema.Entity) error {
		if op == "delete" {
			return errors.New("update or delete violates foreign key constraint")
		}
		return nil
	})

	ok, err := mod.Delete(context.Background(), "a", Confirmed(true))
	require.Error(t, err)
	assert.False(t, ok)
	assert.Len(t, coll.State().Data, 2)
}

func TestDeleteConfirmerError(t *testing.T) {
	_, _, mod := setup(t, schema.Projects, ProjectPolicy)
	boom := errors.New("prompt closed")

	ok, err := mod.Delete(context.Background(), "a", func(context.Context, string) (bool, error) {
		return false, boom
	})
	require.ErrorIs(t, err, boom)
	assert.False(t, ok)
}

func TestUsersAreNotDeletable(t *testing.T) {
	_, _, mod := setup(t, schema.Users, UserPolicy)

	_, err := mod.Delete(context.Background(), "a", Confirmed(true))
	require.ErrorIs(t, err, core.ErrForbidden)
}

func TestActions(t *testing.T) {
	assert.Equal(t,
		[]Action{{Name: "approve", Status: StatusActive}, {Name: "reject", Status: StatusSuspended}, {Name: ActionDelete}},
		ProjectPolicy.Actions(StatusPending),
	)
	assert.Equal(t, []Action{{Name: ActionDelete}}, ProjectPolicy.Actions(StatusActive))

	assert.Equal(t, []Action{{Name: "suspend", Status: StatusSuspended}}, UserPolicy.Actions(StatusActive))
	assert.Equal(t, []Action{{Name: "activate", Status: StatusActive}}, UserPolicy.Actions(StatusSuspended))
	assert.Len(t, UserPolicy.Actions(StatusPending), 2)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, UserPolicy.CanTransition(StatusPending, StatusActive))
	assert.False(t, UserPolicy.CanTransition(StatusActive, StatusPending))
	assert.True(t, ProjectPolicy.CanTransition(StatusPending, StatusSuspended))
	assert.False(t, ProjectPolicy.CanTransition(StatusSuspended, StatusActive))
	assert.False(t, ProjectPolicy.CanTransition(StatusPending, StatusCompleted))
}

// stallingBackend holds the first status update until released, then
// answers it with result.
type stallingBackend struct {
	*store.Memory
	stalled chan struct{}
	release chan struct{}
	result  error
	once    sync.Once
}

func (b *stallingBackend) Update(ctx context.Context, table schema.Entity, id string, patch map[string]any) error {
	first := false
	b.once.Do(func() { first = true })
	if !first {
		return b.Memory.Update(ctx, table, id, patch)
	}

	close(b.stalled)
	<-b.release
	if b.result != nil {
		return b.result
	}
	return b.Memory.Update(ctx, table, id, patch)
}

func remoteStatus(t *testing.T, mem *store.Memory, table schema.Entity, id string) string {
	t.Helper()

	var rows []row
	require.NoError(t, mem.Select(context.Background(), schema.Query{Table: table}.Where(schema.Eq("id", id)), &rows))
	require.Len(t, rows, 1)
	return rows[0].Status
}

func runConcurrent(
	t *testing.T,
	table schema.Entity,
	policy Policy,
	result error,
	first, second string,
) (local, remote string, errFirst, errSecond error) {
	t.Helper()

	mem, coll, _ := setup(t, table, policy)
	backend := &stallingBackend{
		Memory:  mem,
		stalled: make(chan struct{}),
		release: make(chan struct{}),
		result:  result,
	}
	mod := NewModerator(policy, coll, backend, nil)
	ctx := context.Background()

	firstDone := make(chan error, 1)
	go func() { firstDone <- mod.SetStatus(ctx, "a", first) }()
	<-backend.stalled

	secondDone := make(chan error, 1)
	go func() { secondDone <- mod.SetStatus(ctx, "a", second) }()

	select {
	case err := <-secondDone:
		t.Fatalf("second action finished while the first was in flight: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(backend.release)
	errFirst = <-firstDone
	errSecond = <-secondDone

	return statusOf(coll, "a"), remoteStatus(t, mem, table, "a"), errFirst, errSecond
}

func TestConcurrentUserActionsStayInSync(t *testing.T) {
	local, remote, errA, errB := runConcurrent(t, schema.Users, UserPolicy,
		errors.New("connection reset by peer"),
		StatusSuspended, StatusActive,
	)

	require.Error(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, StatusActive, remote)
	assert.Equal(t, remote, local)
}

func TestConcurrentProjectActionsKeepPolicy(t *testing.T) {
	local, remote, errA, errB := runConcurrent(t, schema.Projects, ProjectPolicy,
		nil,
		StatusActive, StatusSuspended,
	)

	require.NoError(t, errA)
	require.ErrorIs(t, errB, core.ErrInvalidInput)
	assert.Equal(t, StatusActive, remote)
	assert.Equal(t, remote, local)
}

func TestRollbackLeavesNewerStatusAlone(t *testing.T) {
	mem, coll, _ := setup(t, schema.Users, UserPolicy)
	boom := errors.New("connection reset by peer")
	mem.SetFault(func(op string, _ schema.Entity) error {
		if op == "update" {
			return boom
		}
		return nil
	})

	match := func(r row) bool { return r.ID == "a" }
	mod := NewModerator(UserPolicy, coll, &overwritingBackend{Memory: mem, coll: coll, match: match}, nil)

	err := mod.SetStatus(context.Background(), "a", StatusActive)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StatusSuspended, statusOf(coll, "a"))
}

// overwritingBackend changes the local item while its update is in flight,
// as a refetch landing mid-commit would.
type overwritingBackend struct {
	*store.Memory
	coll  *collection.Collection[string, row]
	match func(row) bool
}

func (b *overwritingBackend) Update(ctx context.Context, table schema.Entity, id string, patch map[string]any) error {
	_ = b.coll.Confirmed(ctx, func(context.Context) error { return nil },
		collection.Replace(b.match, func(r row) row { return r.WithStatus(StatusSuspended) }))
	return b.Memory.Update(ctx, table, id, patch)
}
