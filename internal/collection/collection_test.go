// AngelaMos | 2026
// collection_test.go

package collection

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID     string
	Status string
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls []string
	rows  map[string][]item
	err   error
}

func (f *fakeFetcher) fetch(_ context.Context, filter string) ([]item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, filter)
	if f.err != nil {
		return nil, f.err
	}
	return append([]item(nil), f.rows[filter]...), nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newFake() *fakeFetcher {
	return &fakeFetcher{rows: map[string][]item{
		"":        {{ID: "1", Status: "active"}, {ID: "2", Status: "pending"}},
		"pending": {{ID: "2", Status: "pending"}},
	}}
}

func TestUseFetchesOnFirstCallAndFilterChange(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)
	ctx := context.Background()

	st := c.Use(ctx, "")
	assert.Len(t, st.Data, 2)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)

	st = c.Use(ctx, "pending")
	assert.Equal(t, []item{{ID: "2", Status: "pending"}}, st.Data)
	assert.Equal(t, []string{"", "pending"}, f.calls)
}

func TestUseSameFilterDoesNotFetch(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)
	ctx := context.Background()

	c.Use(ctx, "pending")
	c.Use(ctx, "pending")
	c.Use(ctx, "pending")

	assert.Equal(t, 1, f.callCount())
}

func TestRefetchUsesCurrentFilter(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)
	ctx := context.Background()

	c.Use(ctx, "pending")
	c.Refetch(ctx)

	assert.Equal(t, []string{"pending", "pending"}, f.calls)
	assert.Equal(t, "pending", c.Filter())
}

func TestFetchErrorKeepsPreviousData(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)
	ctx := context.Background()

	c.Use(ctx, "")
	f.err = errors.New("JWT expired")

	st := c.Refetch(ctx)
	assert.Equal(t, "JWT expired", st.Err)
	assert.Len(t, st.Data, 2)
	assert.False(t, st.Loading)

	f.err = nil
	st = c.Refetch(ctx)
	assert.Empty(t, st.Err)
}

func TestEmptyResultIsEmptySliceNotNil(t *testing.T) {
	c := New("projects", func(context.Context, string) ([]item, error) {
		return nil, nil
	}, nil)

	st := c.Use(context.Background(), "none")
	require.NotNil(t, st.Data)
	assert.Empty(t, st.Data)
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var first atomic.Bool
	first.Store(true)

	c := New("projects", func(_ context.Context, filter string) ([]item, error) {
		if filter == "slow" && first.CompareAndSwap(true, false) {
			close(started)
			<-release
			return []item{{ID: "slow"}}, nil
		}
		return []item{{ID: filter}}, nil
	}, nil)

	ctx := context.Background()
	done := make(chan State[item])
	go func() { done <- c.Use(ctx, "slow") }()

	<-started
	st := c.Use(ctx, "fast")
	assert.Equal(t, []item{{ID: "fast"}}, st.Data)

	close(release)
	<-done

	st = c.State()
	assert.Equal(t, []item{{ID: "fast"}}, st.Data)
	assert.False(t, st.Loading)
}

func TestOptimisticRollsBackOnFailure(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)
	ctx := context.Background()
	c.Use(ctx, "")

	isTwo := func(v item) bool { return v.ID == "2" }
	setStatus := func(s string) func(item) item {
		return func(v item) item { v.Status = s; return v }
	}

	var seen []item
	boom := errors.New("permission denied")
	err := c.Optimistic(ctx,
		Replace(isTwo, setStatus("active")),
		Replace(isTwo, setStatus("pending")),
		func(context.Context) error {
			seen = c.State().Data
			return boom
		},
	)

	require.ErrorIs(t, err, boom)
	assert.Equal(t, "active", seen[1].Status)
	assert.Equal(t, "pending", c.State().Data[1].Status)
}

func TestOptimisticKeepsChangeOnSuccess(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)
	ctx := context.Background()
	c.Use(ctx, "")

	isOne := func(v item) bool { return v.ID == "1" }
	err := c.Optimistic(ctx,
		Replace(isOne, func(v item) item { v.Status = "suspended"; return v }),
		Replace(isOne, func(v item) item { v.Status = "active"; return v }),
		func(context.Context) error { return nil },
	)

	require.NoError(t, err)
	assert.Equal(t, "suspended", c.State().Data[0].Status)
}

func TestConfirmedAppliesOnlyAfterCommit(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)
	ctx := context.Background()
	c.Use(ctx, "")

	isOne := func(v item) bool { return v.ID == "1" }

	err := c.Confirmed(ctx, func(context.Context) error {
		assert.Len(t, c.State().Data, 2)
		return errors.New("row is referenced")
	}, Remove(isOne))
	require.Error(t, err)
	assert.Len(t, c.State().Data, 2)

	require.NoError(t, c.Confirmed(ctx, func(context.Context) error { return nil }, Remove(isOne)))
	assert.Equal(t, []item{{ID: "2", Status: "pending"}}, c.State().Data)
}

func TestStateIsACopy(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)

	st := c.Use(context.Background(), "")
	st.Data[0].Status = "tampered"

	assert.Equal(t, "active", c.State().Data[0].Status)
}

// remoteTable is a fetcher over rows that tests can change underneath the
// collection, as another writer would.
type remoteTable struct {
	mu    sync.Mutex
	rows  []item
	calls atomic.Int32
	gate  func(call int32)
}

func (r *remoteTable) fetch(context.Context, string) ([]item, error) {
	r.mu.Lock()
	rows := slices.Clone(r.rows)
	r.mu.Unlock()

	n := r.calls.Add(1)
	if r.gate != nil {
		r.gate(n)
	}
	return rows, nil
}

func (r *remoteTable) set(id, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ID == id {
			r.rows[i].Status = status
		}
	}
}

func (r *remoteTable) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = slices.DeleteFunc(r.rows, func(v item) bool { return v.ID == id })
}

func TestFetchOverlappingCommitIsReissued(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	remote := &remoteTable{rows: []item{{ID: "1", Status: "pending"}}}
	remote.gate = func(call int32) {
		if call == 2 {
			close(started)
			<-release
		}
	}

	c := New("projects", remote.fetch, nil)
	ctx := context.Background()
	c.Use(ctx, "")

	done := make(chan State[item])
	go func() { done <- c.Refetch(ctx) }()
	<-started

	isOne := func(v item) bool { return v.ID == "1" }
	require.NoError(t, c.Optimistic(ctx,
		Replace(isOne, func(v item) item { v.Status = "active"; return v }),
		Replace(isOne, func(v item) item { v.Status = "pending"; return v }),
		func(context.Context) error {
			remote.set("1", "active")
			return nil
		},
	))

	close(release)
	st := <-done

	assert.Equal(t, []item{{ID: "1", Status: "active"}}, st.Data)
	assert.Equal(t, []item{{ID: "1", Status: "active"}}, c.State().Data)
	assert.False(t, c.State().Loading)
	assert.EqualValues(t, 3, remote.calls.Load())
}

func TestFetchOverlappingDeleteDoesNotResurrectRow(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	remote := &remoteTable{rows: []item{{ID: "1", Status: "active"}, {ID: "2", Status: "pending"}}}
	remote.gate = func(call int32) {
		if call == 2 {
			close(started)
			<-release
		}
	}

	c := New("projects", remote.fetch, nil)
	ctx := context.Background()
	c.Use(ctx, "")

	done := make(chan State[item])
	go func() { done <- c.Refetch(ctx) }()
	<-started

	require.NoError(t, c.Confirmed(ctx,
		func(context.Context) error {
			remote.remove("2")
			return nil
		},
		Remove(func(v item) bool { return v.ID == "2" }),
	))

	close(release)
	<-done

	assert.Equal(t, []item{{ID: "1", Status: "active"}}, c.State().Data)
}

func TestFetchWaitsForCommitInFlight(t *testing.T) {
	remote := &remoteTable{rows: []item{{ID: "1", Status: "pending"}}}
	c := New("projects", remote.fetch, nil)
	ctx := context.Background()
	c.Use(ctx, "")

	committing := make(chan struct{})
	finish := make(chan struct{})
	committed := make(chan error)
	isOne := func(v item) bool { return v.ID == "1" }
	go func() {
		committed <- c.Optimistic(ctx,
			Replace(isOne, func(v item) item { v.Status = "suspended"; return v }),
			Replace(isOne, func(v item) item { v.Status = "pending"; return v }),
			func(context.Context) error {
				close(committing)
				<-finish
				remote.set("1", "suspended")
				return nil
			},
		)
	}()
	<-committing

	done := make(chan State[item])
	go func() { done <- c.Refetch(ctx) }()

	select {
	case <-done:
		t.Fatal("refetch stored a result while a commit was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(finish)
	require.NoError(t, <-committed)

	st := <-done
	assert.Equal(t, []item{{ID: "1", Status: "suspended"}}, st.Data)
}

func TestFetchWaitingForCommitHonoursContext(t *testing.T) {
	remote := &remoteTable{rows: []item{{ID: "1", Status: "pending"}}}
	c := New("projects", remote.fetch, nil)
	c.Use(context.Background(), "")

	committing := make(chan struct{})
	finish := make(chan struct{})
	t.Cleanup(func() { close(finish) })
	go func() {
		_ = c.Confirmed(context.Background(), func(context.Context) error {
			close(committing)
			<-finish
			return nil
		}, nil)
	}()
	<-committing

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	st := c.Refetch(ctx)
	assert.Equal(t, "context deadline exceeded", st.Err)
	assert.False(t, st.Loading)
	assert.Equal(t, []item{{ID: "1", Status: "pending"}}, st.Data)
}

func TestInvalidateReloadsOnNextUse(t *testing.T) {
	f := newFake()
	c := New("projects", f.fetch, nil)
	ctx := context.Background()

	c.Use(ctx, "")
	c.Invalidate()
	assert.Equal(t, 1, f.callCount())

	c.Use(ctx, "")
	c.Use(ctx, "")
	assert.Equal(t, 2, f.callCount())
}
