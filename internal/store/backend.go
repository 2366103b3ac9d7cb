// AngelaMos | 2026
// backend.go

package store

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
)

// Backend is the table-scoped contract of the managed data backend.
// Select and Insert decode the returned rows (a JSON array) into dest,
// which must be a pointer to a slice; Insert accepts a nil dest.
type Backend interface {
	Select(ctx context.Context, q schema.Query, dest any) error
	Insert(ctx context.Context, table schema.Entity, row any, dest any) error
	Update(ctx context.Context, table schema.Entity, id string, patch map[string]any) error
	Delete(ctx context.Context, table schema.Entity, id string) error
	Ping(ctx context.Context) error
}

// Error is a failure reported by the backend. Message is the backend's own
// text and is surfaced to the UI unchanged.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) UserMessage() string {
	return e.Message
}

func (e *Error) HTTPStatus() int {
	switch {
	case e.Status == http.StatusNotFound, e.Code == "PGRST116":
		return http.StatusNotFound
	case e.Status == http.StatusConflict, e.Code == "23505":
		return http.StatusConflict
	case e.Status == http.StatusUnauthorized:
		return http.StatusUnauthorized
	case e.Status == http.StatusForbidden, e.Code == "42501":
		return http.StatusForbidden
	case e.Status == http.StatusBadRequest,
		e.Code == "23502", e.Code == "23503", e.Code == "23514", e.Code == "22P02":
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (e *Error) Unwrap() error {
	switch e.HTTPStatus() {
	case http.StatusNotFound:
		return core.ErrNotFound
	case http.StatusConflict:
		return core.ErrDuplicateKey
	case http.StatusUnauthorized:
		return core.ErrUnauthorized
	case http.StatusForbidden:
		return core.ErrForbidden
	case http.StatusBadRequest:
		return core.ErrInvalidInput
	default:
		return nil
	}
}

type accessTokenKey struct{}

// WithAccessToken attaches the signed-in user's access token so the backend
// applies that user's row-level policies.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

func AccessToken(ctx context.Context) string {
	if token, ok := ctx.Value(accessTokenKey{}).(string); ok {
		return token
	}
	return ""
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("identifier %q: %w", name, core.ErrInvalidInput)
	}
	return nil
}

func checkTable(table schema.Entity) error {
	if !table.Valid() {
		return fmt.Errorf("table %q: %w", table, core.ErrInvalidInput)
	}
	return nil
}

var tracer = otel.Tracer("github.com/carterperez-dev/sharaka/internal/store")

func startSpan(
	ctx context.Context,
	driver, op string,
	table schema.Entity,
) (context.Context, trace.Span) {
	return tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("store.driver", driver),
			attribute.String("store.table", string(table)),
		),
	)
}

func endSpan(span trace.Span, err error) {
	core.EndSpan(span, err)
}
