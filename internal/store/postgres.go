// AngelaMos | 2026
// postgres.go

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/sharaka/internal/config"
	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
)

const driverPostgres = "postgres"

// Postgres reaches the backend's database directly. Every select is
// compiled into one statement returning a JSON array, so rows decode the
// same way they do from the REST driver.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(
	ctx context.Context,
	cfg config.BackendConfig,
) (*Postgres, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(jitteredDuration(cfg.ConnMaxLifetime))
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close() //nolint:errcheck // cleanup on connection failure
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{db: db}, nil
}

func NewPostgresFromDB(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := p.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}

func (p *Postgres) Stats() sql.DBStats {
	return p.db.Stats()
}

func (p *Postgres) Select(ctx context.Context, q schema.Query, dest any) (err error) {
	ctx, span := startSpan(ctx, driverPostgres, "select", q.Table)
	defer func() { endSpan(span, err) }()

	query, args, err := compileSelect(q)
	if err != nil {
		return err
	}

	var raw []byte
	if err := p.db.GetContext(ctx, &raw, query, args...); err != nil {
		return fmt.Errorf("select %s: %w", q.Table, mapPgError(err))
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", q.Table, err)
	}

	return nil
}

func (p *Postgres) Insert(
	ctx context.Context,
	table schema.Entity,
	row any,
	dest any,
) (err error) {
	ctx, span := startSpan(ctx, driverPostgres, "insert", table)
	defer func() { endSpan(span, err) }()

	query, arg, err := compileInsert(table, row)
	if err != nil {
		return err
	}

	var raw []byte
	if err := p.db.GetContext(ctx, &raw, query, arg); err != nil {
		return fmt.Errorf("insert %s: %w", table, mapPgError(err))
	}

	if dest == nil {
		return nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}

	return nil
}

func (p *Postgres) Update(
	ctx context.Context,
	table schema.Entity,
	id string,
	patch map[string]any,
) (err error) {
	ctx, span := startSpan(ctx, driverPostgres, "update", table)
	defer func() { endSpan(span, err) }()

	query, args, err := compileUpdate(table, id, patch)
	if err != nil {
		return err
	}

	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, mapPgError(err))
	}

	return expectAffected(result, table, "update")
}

func (p *Postgres) Delete(
	ctx context.Context,
	table schema.Entity,
	id string,
) (err error) {
	ctx, span := startSpan(ctx, driverPostgres, "delete", table)
	defer func() { endSpan(span, err) }()

	if err := checkTable(table); err != nil {
		return err
	}

	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1",
		ident(table.Table()),
		ident(schema.ColID),
	)

	result, err := p.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, mapPgError(err))
	}

	return expectAffected(result, table, "delete")
}

func expectAffected(result sql.Result, table schema.Entity, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, table, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", op, table, core.ErrNotFound)
	}
	return nil
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

const orderKey = "__order"

// compileSelect turns q into a single statement yielding a JSON array of
// rows. Joins become correlated sub-selects; filters on a joined alias (and
// inner joins) become EXISTS predicates.
func compileSelect(q schema.Query) (string, []any, error) {
	if err := checkTable(q.Table); err != nil {
		return "", nil, err
	}

	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	cols := []string{"t.*"}
	if !q.AllColumns() {
		cols = cols[:0]
		for _, c := range q.Columns {
			if err := checkIdent(c); err != nil {
				return "", nil, err
			}
			cols = append(cols, "t."+ident(c))
		}
	}

	for _, j := range q.Joins {
		sub, err := joinProjection(j)
		if err != nil {
			return "", nil, err
		}
		cols = append(cols, sub)
	}

	if q.Order != nil {
		if err := checkIdent(q.Order.Column); err != nil {
			return "", nil, err
		}
		cols = append(cols, "t."+ident(q.Order.Column)+" AS "+orderKey)
	}

	var where []string
	for _, f := range q.Filters {
		if f.Embedded != "" {
			continue
		}
		cond, err := filterSQL("t", f, bind)
		if err != nil {
			return "", nil, err
		}
		where = append(where, cond)
	}

	for _, j := range q.Joins {
		var conds []string
		for _, f := range q.Filters {
			if f.Embedded != j.Alias {
				continue
			}
			cond, err := filterSQL("e", f, bind)
			if err != nil {
				return "", nil, err
			}
			conds = append(conds, cond)
		}
		if !j.Inner && len(conds) == 0 {
			continue
		}
		link := fmt.Sprintf("e.%s = t.%s", ident(j.ForeignKey), ident(j.LocalKey))
		conds = append([]string{link}, conds...)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s e WHERE %s)",
			ident(j.Table.Table()),
			strings.Join(conds, " AND "),
		))
	}

	for _, f := range q.Filters {
		if f.Embedded == "" {
			continue
		}
		if _, ok := q.Join(f.Embedded); !ok {
			return "", nil, fmt.Errorf("filter on unknown join %q: %w", f.Embedded, core.ErrInvalidInput)
		}
	}

	if len(q.AnyOf) > 0 {
		groups := make([]string, 0, len(q.AnyOf))
		for _, group := range q.AnyOf {
			terms := make([]string, 0, len(group))
			for _, f := range group {
				cond, err := filterSQL("t", f, bind)
				if err != nil {
					return "", nil, err
				}
				terms = append(terms, cond)
			}
			groups = append(groups, "("+strings.Join(terms, " AND ")+")")
		}
		where = append(where, "("+strings.Join(groups, " OR ")+")")
	}

	inner := fmt.Sprintf("SELECT %s FROM %s t", strings.Join(cols, ", "), ident(q.Table.Table()))
	if len(where) > 0 {
		inner += " WHERE " + strings.Join(where, " AND ")
	}

	agg := "jsonb_agg(to_jsonb(r))"
	if q.Order != nil {
		dir := "DESC"
		if q.Order.Ascending {
			dir = "ASC"
		}
		agg = fmt.Sprintf("jsonb_agg(to_jsonb(r) - '%s' ORDER BY r.%s %s)", orderKey, orderKey, dir)
	}

	return fmt.Sprintf("SELECT COALESCE(%s, '[]'::jsonb) FROM (%s) r", agg, inner), args, nil
}

func joinProjection(j schema.Join) (string, error) {
	for _, name := range []string{j.Alias, j.LocalKey, j.ForeignKey} {
		if err := checkIdent(name); err != nil {
			return "", err
		}
	}
	if err := checkTable(j.Table); err != nil {
		return "", err
	}

	cols := "j.*"
	if len(j.Columns) > 0 {
		parts := make([]string, 0, len(j.Columns))
		for _, c := range j.Columns {
			if err := checkIdent(c); err != nil {
				return "", err
			}
			parts = append(parts, "j."+ident(c))
		}
		cols = strings.Join(parts, ", ")
	}

	return fmt.Sprintf(
		"(SELECT to_jsonb(s) FROM (SELECT %s FROM %s j WHERE j.%s = t.%s LIMIT 1) s) AS %s",
		cols,
		ident(j.Table.Table()),
		ident(j.ForeignKey),
		ident(j.LocalKey),
		ident(j.Alias),
	), nil
}

func filterSQL(alias string, f schema.Filter, bind func(any) string) (string, error) {
	if err := checkIdent(f.Column); err != nil {
		return "", err
	}
	col := alias + "." + ident(f.Column)

	switch f.Op {
	case schema.OpEq:
		return fmt.Sprintf("%s::text = %s", col, bind(f.Value)), nil
	case schema.OpILike:
		return fmt.Sprintf("%s ILIKE %s", col, bind("%"+escapePattern(f.Value)+"%")), nil
	default:
		return "", fmt.Errorf("filter operator %q: %w", f.Op, core.ErrInvalidInput)
	}
}

func sortedColumns(obj map[string]any) ([]string, error) {
	cols := make([]string, 0, len(obj))
	for k := range obj {
		if err := checkIdent(k); err != nil {
			return nil, err
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, nil
}

func quotedList(cols []string, prefix string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = prefix + ident(c)
	}
	return strings.Join(parts, ", ")
}

// compileInsert inserts the JSON encoding of row, letting Postgres coerce
// each field to its column type through json_populate_record.
func compileInsert(table schema.Entity, row any) (string, string, error) {
	if err := checkTable(table); err != nil {
		return "", "", err
	}

	obj, err := toObject(row)
	if err != nil {
		return "", "", err
	}
	if len(obj) == 0 {
		return "", "", fmt.Errorf("insert %s: empty row: %w", table, core.ErrInvalidInput)
	}

	cols, err := sortedColumns(obj)
	if err != nil {
		return "", "", err
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return "", "", fmt.Errorf("encode row: %w", err)
	}

	tbl := ident(table.Table())
	query := fmt.Sprintf(
		"WITH ins AS (INSERT INTO %s (%s) SELECT %s FROM json_populate_record(NULL::%s, $1::json) p RETURNING *) "+
			"SELECT COALESCE(jsonb_agg(to_jsonb(ins)), '[]'::jsonb) FROM ins",
		tbl,
		quotedList(cols, ""),
		quotedList(cols, "p."),
		tbl,
	)

	return query, string(raw), nil
}

func compileUpdate(
	table schema.Entity,
	id string,
	patch map[string]any,
) (string, []any, error) {
	if err := checkTable(table); err != nil {
		return "", nil, err
	}
	if len(patch) == 0 {
		return "", nil, fmt.Errorf("update %s: empty patch: %w", table, core.ErrInvalidInput)
	}

	cols, err := sortedColumns(patch)
	if err != nil {
		return "", nil, err
	}

	raw, err := json.Marshal(patch)
	if err != nil {
		return "", nil, fmt.Errorf("encode patch: %w", err)
	}

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = p.%s", ident(c), ident(c))
	}

	tbl := ident(table.Table())
	query := fmt.Sprintf(
		"UPDATE %s AS t SET %s FROM json_populate_record(NULL::%s, $1::json) p WHERE t.%s::text = $2",
		tbl,
		strings.Join(sets, ", "),
		tbl,
		ident(schema.ColID),
	)

	return query, []any{string(raw), id}, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	status := http.StatusBadGateway
	switch pgErr.Code {
	case "23505":
		status = http.StatusConflict
	case "23502", "23503", "23514", "22P02":
		status = http.StatusBadRequest
	case "42501":
		status = http.StatusForbidden
	}

	return &Error{
		Status:  status,
		Code:    pgErr.Code,
		Message: pgErr.Message,
		Details: pgErr.Detail,
		Hint:    pgErr.Hint,
	}
}

func jitteredDuration(base time.Duration) time.Duration {
	if base <= 0 {
		return base
	}
	//nolint:gosec // G404: non-security-sensitive jitter for connection pool
	jitter := time.Duration(rand.Int64N(int64(base/7) + 1))
	return base + jitter
}
