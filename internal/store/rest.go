// AngelaMos | 2026
// rest.go

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
)

const driverREST = "rest"

// REST talks to the backend's PostgREST table API.
type REST struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewREST(baseURL, apiKey string, timeout time.Duration) *REST {
	return &REST{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (r *REST) Select(ctx context.Context, q schema.Query, dest any) (err error) {
	ctx, span := startSpan(ctx, driverREST, "select", q.Table)
	defer func() { endSpan(span, err) }()

	if err := checkTable(q.Table); err != nil {
		return err
	}

	params, err := encodeQuery(q)
	if err != nil {
		return err
	}

	body, err := r.do(ctx, http.MethodGet, q.Table, params, nil)
	if err != nil {
		return fmt.Errorf("select %s: %w", q.Table, err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", q.Table, err)
	}

	return nil
}

func (r *REST) Insert(
	ctx context.Context,
	table schema.Entity,
	row any,
	dest any,
) (err error) {
	ctx, span := startSpan(ctx, driverREST, "insert", table)
	defer func() { endSpan(span, err) }()

	if err := checkTable(table); err != nil {
		return err
	}

	payload, err := json.Marshal([]any{row})
	if err != nil {
		return fmt.Errorf("encode %s row: %w", table, err)
	}

	body, err := r.do(ctx, http.MethodPost, table, nil, payload)
	if err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}

	if dest == nil {
		return nil
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}

	return nil
}

func (r *REST) Update(
	ctx context.Context,
	table schema.Entity,
	id string,
	patch map[string]any,
) (err error) {
	ctx, span := startSpan(ctx, driverREST, "update", table)
	defer func() { endSpan(span, err) }()

	if err := checkTable(table); err != nil {
		return err
	}
	if len(patch) == 0 {
		return fmt.Errorf("update %s: empty patch: %w", table, core.ErrInvalidInput)
	}

	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode %s patch: %w", table, err)
	}

	params := url.Values{}
	params.Set(schema.ColID, "eq."+id)

	body, err := r.do(ctx, http.MethodPatch, table, params, payload)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}

	return expectRows(body, table, "update")
}

func (r *REST) Delete(
	ctx context.Context,
	table schema.Entity,
	id string,
) (err error) {
	ctx, span := startSpan(ctx, driverREST, "delete", table)
	defer func() { endSpan(span, err) }()

	if err := checkTable(table); err != nil {
		return err
	}

	params := url.Values{}
	params.Set(schema.ColID, "eq."+id)

	body, err := r.do(ctx, http.MethodDelete, table, params, nil)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}

	return expectRows(body, table, "delete")
}

func (r *REST) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(pingCtx, http.MethodGet, r.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	req.Header.Set("apikey", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("backend ping failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("backend ping failed: status %d", resp.StatusCode)
	}

	return nil
}

func (r *REST) do(
	ctx context.Context,
	method string,
	table schema.Entity,
	params url.Values,
	payload []byte,
) ([]byte, error) {
	endpoint := r.baseURL + "/" + table.Table()
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	token := AccessToken(ctx)
	if token == "" {
		token = r.apiKey
	}

	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &Error{
			Status:  http.StatusBadGateway,
			Message: err.Error(),
		}
	}
	defer resp.Body.Close() //nolint:errcheck // body fully read below

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, body)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return []byte("[]"), nil
	}

	return body, nil
}

type restErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func decodeError(status int, body []byte) *Error {
	var parsed restErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Message == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &Error{Status: status, Message: msg}
	}

	return &Error{
		Status:  status,
		Code:    parsed.Code,
		Message: parsed.Message,
		Details: parsed.Details,
		Hint:    parsed.Hint,
	}
}

func expectRows(body []byte, table schema.Entity, op string) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("decode %s result: %w", op, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s %s: %w", op, table, core.ErrNotFound)
	}
	return nil
}

// encodeQuery renders q in PostgREST's query-string dialect.
func encodeQuery(q schema.Query) (url.Values, error) {
	params := url.Values{}

	sel, err := selectClause(q)
	if err != nil {
		return nil, err
	}
	params.Set("select", sel)

	for _, f := range q.Filters {
		if err := checkFilter(f); err != nil {
			return nil, err
		}
		key := f.Column
		if f.Embedded != "" {
			key = f.Embedded + "." + f.Column
		}
		params.Add(key, filterValue(f))
	}

	if len(q.AnyOf) > 0 {
		groups := make([]string, 0, len(q.AnyOf))
		for _, group := range q.AnyOf {
			terms := make([]string, 0, len(group))
			for _, f := range group {
				if err := checkFilter(f); err != nil {
					return nil, err
				}
				op, value := opValue(f)
				terms = append(terms, f.Column+"."+op+"."+quoteValue(value))
			}
			groups = append(groups, "and("+strings.Join(terms, ",")+")")
		}
		params.Set("or", "("+strings.Join(groups, ",")+")")
	}

	if q.Order != nil {
		if err := checkIdent(q.Order.Column); err != nil {
			return nil, err
		}
		dir := "desc"
		if q.Order.Ascending {
			dir = "asc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}

	return params, nil
}

func selectClause(q schema.Query) (string, error) {
	parts := []string{"*"}
	if !q.AllColumns() {
		parts = parts[:0]
		for _, c := range q.Columns {
			if err := checkIdent(c); err != nil {
				return "", err
			}
			parts = append(parts, c)
		}
	}

	for _, j := range q.Joins {
		if err := checkIdent(j.Alias); err != nil {
			return "", err
		}
		if err := checkIdent(j.LocalKey); err != nil {
			return "", err
		}

		cols := "*"
		if len(j.Columns) > 0 {
			for _, c := range j.Columns {
				if err := checkIdent(c); err != nil {
					return "", err
				}
			}
			cols = strings.Join(j.Columns, ",")
		}

		hint := j.LocalKey
		if j.Inner {
			hint += "!inner"
		}
		parts = append(parts, fmt.Sprintf("%s:%s(%s)", j.Alias, hint, cols))
	}

	return strings.Join(parts, ","), nil
}

func checkFilter(f schema.Filter) error {
	if err := checkIdent(f.Column); err != nil {
		return err
	}
	if f.Embedded != "" {
		if err := checkIdent(f.Embedded); err != nil {
			return err
		}
	}
	switch f.Op {
	case schema.OpEq, schema.OpILike:
		return nil
	default:
		return fmt.Errorf("filter operator %q: %w", f.Op, core.ErrInvalidInput)
	}
}

func filterValue(f schema.Filter) string {
	op, value := opValue(f)
	return op + "." + value
}

// opValue returns the PostgREST operator and operand for f. PostgREST turns
// every * in a like pattern into %, so a substring holding a literal * is
// sent as a quoted case-insensitive regex instead.
func opValue(f schema.Filter) (string, string) {
	if f.Op != schema.OpILike {
		return string(f.Op), f.Value
	}
	if strings.Contains(f.Value, "*") {
		return "imatch", regexp.QuoteMeta(f.Value)
	}
	return string(f.Op), "*" + escapePattern(f.Value) + "*"
}

func escapePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}

// quoteValue wraps values containing PostgREST list delimiters in double
// quotes so they survive inside or=(...).
func quoteValue(v string) string {
	if !strings.ContainsAny(v, `,.:()" \`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
