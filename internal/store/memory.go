// AngelaMos | 2026
// memory.go

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
)

const driverMemory = "memory"

// FaultFunc lets tests make a backend operation fail. A non-nil return
// aborts the operation with that error before any state changes.
type FaultFunc func(op string, table schema.Entity) error

// Memory is an in-process Backend holding rows as JSON objects. It applies
// the same filter, join and ordering semantics as the remote drivers.
type Memory struct {
	mu       sync.RWMutex
	tables   map[schema.Entity][]map[string]any
	defaults map[schema.Entity]map[string]any
	fault    FaultFunc
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		tables: make(map[schema.Entity][]map[string]any),
		defaults: map[schema.Entity]map[string]any{
			schema.Users:        {"status": "pending"},
			schema.Projects:     {"status": "pending"},
			schema.Partnerships: {"status": "pending"},
		},
		now: time.Now,
	}
}

func (m *Memory) SetFault(fn FaultFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = fn
}

func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Seed inserts rows verbatim, without defaults.
func (m *Memory) Seed(table schema.Entity, rows ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		obj, err := toObject(row)
		if err != nil {
			return err
		}
		m.tables[table] = append(m.tables[table], obj)
	}
	return nil
}

func (m *Memory) Select(ctx context.Context, q schema.Query, dest any) (err error) {
	_, span := startSpan(ctx, driverMemory, "select", q.Table)
	defer func() { endSpan(span, err) }()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.check("select", q.Table); err != nil {
		return err
	}

	var out []map[string]any
	for _, row := range m.tables[q.Table] {
		if !m.matches(q, row) {
			continue
		}
		out = append(out, m.project(q, row))
	}

	if q.Order != nil {
		col, asc := q.Order.Column, q.Order.Ascending
		sort.SliceStable(out, func(i, j int) bool {
			c := compareValues(out[i][col], out[j][col])
			if asc {
				return c < 0
			}
			return c > 0
		})
	}

	if q.Order != nil && !q.AllColumns() && !contains(q.Columns, q.Order.Column) {
		for _, row := range out {
			delete(row, q.Order.Column)
		}
	}

	if out == nil {
		out = []map[string]any{}
	}

	return remarshal(out, dest)
}

func (m *Memory) Insert(
	ctx context.Context,
	table schema.Entity,
	row any,
	dest any,
) (err error) {
	_, span := startSpan(ctx, driverMemory, "insert", table)
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("insert", table); err != nil {
		return err
	}

	obj, err := toObject(row)
	if err != nil {
		return err
	}

	for k, v := range m.defaults[table] {
		if _, ok := obj[k]; !ok {
			obj[k] = v
		}
	}
	if id, _ := obj[schema.ColID].(string); id == "" {
		obj[schema.ColID] = uuid.New().String()
	}
	if _, ok := obj[schema.ColCreatedAt]; !ok {
		obj[schema.ColCreatedAt] = m.now().UTC().Format(time.RFC3339Nano)
	}

	m.tables[table] = append(m.tables[table], obj)

	if dest == nil {
		return nil
	}
	return remarshal([]map[string]any{copyObject(obj)}, dest)
}

func (m *Memory) Update(
	ctx context.Context,
	table schema.Entity,
	id string,
	patch map[string]any,
) (err error) {
	_, span := startSpan(ctx, driverMemory, "update", table)
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("update", table); err != nil {
		return err
	}
	if len(patch) == 0 {
		return fmt.Errorf("update %s: empty patch: %w", table, core.ErrInvalidInput)
	}

	for _, row := range m.tables[table] {
		if row[schema.ColID] == id {
			for k, v := range patch {
				row[k] = v
			}
			return nil
		}
	}

	return fmt.Errorf("update %s: %w", table, core.ErrNotFound)
}

func (m *Memory) Delete(
	ctx context.Context,
	table schema.Entity,
	id string,
) (err error) {
	_, span := startSpan(ctx, driverMemory, "delete", table)
	defer func() { endSpan(span, err) }()

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check("delete", table); err != nil {
		return err
	}

	rows := m.tables[table]
	for i, row := range rows {
		if row[schema.ColID] == id {
			m.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}

	return fmt.Errorf("delete %s: %w", table, core.ErrNotFound)
}

func (m *Memory) Ping(_ context.Context) error {
	return nil
}

// Count reports how many rows a table holds.
func (m *Memory) Count(table schema.Entity) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tables[table])
}

func (m *Memory) check(op string, table schema.Entity) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if m.fault != nil {
		if err := m.fault(op, table); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) matches(q schema.Query, row map[string]any) bool {
	for _, f := range q.Filters {
		if f.Embedded != "" {
			continue
		}
		if !matchFilter(f, row) {
			return false
		}
	}

	for _, j := range q.Joins {
		var embedded []schema.Filter
		for _, f := range q.Filters {
			if f.Embedded == j.Alias {
				embedded = append(embedded, f)
			}
		}
		if !j.Inner && len(embedded) == 0 {
			continue
		}
		if m.related(j, row, embedded) == nil {
			return false
		}
	}

	if len(q.AnyOf) == 0 {
		return true
	}
	for _, group := range q.AnyOf {
		ok := true
		for _, f := range group {
			if !matchFilter(f, row) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func (m *Memory) related(
	j schema.Join,
	row map[string]any,
	filters []schema.Filter,
) map[string]any {
	key := row[j.LocalKey]
	if key == nil {
		return nil
	}

	for _, candidate := range m.tables[j.Table] {
		if candidate[j.ForeignKey] != key {
			continue
		}
		ok := true
		for _, f := range filters {
			if !matchFilter(f, candidate) {
				ok = false
				break
			}
		}
		if ok {
			return candidate
		}
	}
	return nil
}

func (m *Memory) project(q schema.Query, row map[string]any) map[string]any {
	out := make(map[string]any, len(row)+len(q.Joins))
	if q.AllColumns() {
		for k, v := range row {
			out[k] = v
		}
	} else {
		for _, c := range q.Columns {
			out[c] = row[c]
		}
		if q.Order != nil {
			out[q.Order.Column] = row[q.Order.Column]
		}
	}

	for _, j := range q.Joins {
		rel := m.related(j, row, nil)
		if rel == nil {
			out[j.Alias] = nil
			continue
		}
		if len(j.Columns) == 0 {
			out[j.Alias] = copyObject(rel)
			continue
		}
		sub := make(map[string]any, len(j.Columns))
		for _, c := range j.Columns {
			sub[c] = rel[c]
		}
		out[j.Alias] = sub
	}

	return out
}

func matchFilter(f schema.Filter, row map[string]any) bool {
	v, ok := row[f.Column]
	if !ok || v == nil {
		return false
	}
	s := fmt.Sprint(v)

	switch f.Op {
	case schema.OpEq:
		return s == f.Value
	case schema.OpILike:
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Value))
	default:
		return false
	}
}

func compareValues(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		at, aerr := time.Parse(time.RFC3339Nano, as)
		bt, berr := time.Parse(time.RFC3339Nano, bs)
		if aerr == nil && berr == nil {
			return at.Compare(bt)
		}
		return strings.Compare(as, bs)
	}

	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toObject(row any) (map[string]any, error) {
	raw, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode row: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("row must encode as an object: %w", core.ErrInvalidInput)
	}
	return obj, nil
}

func copyObject(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	return out
}

func remarshal(v any, dest any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode rows: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode rows: %w", err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
