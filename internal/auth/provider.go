// AngelaMos | 2026
// provider.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	gotrue "github.com/supabase-community/auth-go"
	gotypes "github.com/supabase-community/auth-go/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/sharaka/internal/core"
)

// Provider is the external authentication service.
type Provider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*ProviderSession, error)
	SignUp(ctx context.Context, email, password string, profile Profile) (*SignUpOutcome, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*ProviderSession, error)
}

type ProviderUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Role is the application role the provider stores in app metadata.
func (u ProviderUser) Role() string {
	if role, ok := u.AppMetadata["role"].(string); ok && role != "" {
		return role
	}
	return RoleUser
}

type ProviderSession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         ProviderUser `json:"user"`
}

// Expiry is when the access token stops being accepted.
func (s ProviderSession) Expiry(now time.Time) time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0).UTC()
	}
	return now.Add(time.Duration(s.ExpiresIn) * time.Second).UTC()
}

// SignUpOutcome carries the created user. Session is nil while the
// provider waits for the email to be confirmed.
type SignUpOutcome struct {
	User    ProviderUser
	Session *ProviderSession
}

// Profile is the public profile stored with a new account. The backend
// copies it into the users table.
type Profile struct {
	FullName          string   `json:"full_name"`
	Phone             string   `json:"phone,omitempty"`
	Skills            []string `json:"skills"`
	Bio               string   `json:"bio,omitempty"`
	Location          string   `json:"location,omitempty"`
	TypeOfPartnership string   `json:"type_of_partnership,omitempty"`
}

// ProviderError is a failure reported by the auth provider. Message is the
// provider's own text.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) UserMessage() string {
	return e.Message
}

func (e *ProviderError) HTTPStatus() int {
	switch {
	case e.Code == "invalid_grant", e.Code == "invalid_credentials",
		e.Status == http.StatusUnauthorized:
		return http.StatusUnauthorized
	case e.Status == http.StatusForbidden:
		return http.StatusForbidden
	case e.Status == http.StatusTooManyRequests:
		return http.StatusTooManyRequests
	case e.Status == http.StatusBadRequest, e.Status == http.StatusUnprocessableEntity:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func (e *ProviderError) Unwrap() error {
	switch e.HTTPStatus() {
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

// metadata is the profile in the shape the provider stores as user
// metadata.
func (p Profile) metadata() map[string]any {
	data := map[string]any{
		"full_name": p.FullName,
		"skills":    p.Skills,
	}
	for key, value := range map[string]string{
		"phone":               p.Phone,
		"bio":                 p.Bio,
		"location":            p.Location,
		"type_of_partnership": p.TypeOfPartnership,
	} {
		if value != "" {
			data[key] = value
		}
	}
	return data
}

// GoTrue talks to a GoTrue-compatible auth API through the auth-go client.
// Each call gets its own HTTP client so the request carries the caller's
// context.
type GoTrue struct {
	client  gotrue.Client
	timeout time.Duration
}

func NewGoTrue(baseURL, apiKey string, timeout time.Duration) *GoTrue {
	return &GoTrue{
		client:  gotrue.New("", apiKey).WithCustomAuthURL(strings.TrimRight(baseURL, "/")),
		timeout: timeout,
	}
}

var tracer = otel.Tracer("github.com/carterperez-dev/sharaka/internal/auth")

func (g *GoTrue) SignInWithPassword(
	ctx context.Context,
	email, password string,
) (session *ProviderSession, err error) {
	ctx, span := startSpan(ctx, "sign_in")
	defer func() { core.EndSpan(span, err) }()

	resp, err := g.call(ctx, nil).SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, providerError(err)
	}
	return providerSession(resp.Session), nil
}

// SignUp returns a session only when the provider confirms accounts
// automatically; otherwise the response is the bare user.
func (g *GoTrue) SignUp(
	ctx context.Context,
	email, password string,
	profile Profile,
) (outcome *SignUpOutcome, err error) {
	ctx, span := startSpan(ctx, "sign_up")
	defer func() { core.EndSpan(span, err) }()

	resp, err := g.call(ctx, nil).Signup(gotypes.SignupRequest{
		Email:    email,
		Password: password,
		Data:     profile.metadata(),
	})
	if err != nil {
		return nil, providerError(err)
	}

	if resp.AccessToken != "" {
		session := providerSession(resp.Session)
		return &SignUpOutcome{User: session.User, Session: session}, nil
	}
	return &SignUpOutcome{User: providerUser(resp.User)}, nil
}

func (g *GoTrue) ResetPasswordForEmail(
	ctx context.Context,
	email, redirectTo string,
) (err error) {
	ctx, span := startSpan(ctx, "reset_password")
	defer func() { core.EndSpan(span, err) }()

	var query url.Values
	if redirectTo != "" {
		query = url.Values{"redirect_to": {redirectTo}}
	}

	if err := g.call(ctx, query).Recover(gotypes.RecoverRequest{Email: email}); err != nil {
		return providerError(err)
	}
	return nil
}

func (g *GoTrue) SignOut(ctx context.Context, accessToken string) (err error) {
	ctx, span := startSpan(ctx, "sign_out")
	defer func() { core.EndSpan(span, err) }()

	if err := g.call(ctx, nil).WithToken(accessToken).Logout(); err != nil {
		return providerError(err)
	}
	return nil
}

func (g *GoTrue) RefreshSession(
	ctx context.Context,
	refreshToken string,
) (session *ProviderSession, err error) {
	ctx, span := startSpan(ctx, "refresh")
	defer func() { core.EndSpan(span, err) }()

	resp, err := g.call(ctx, nil).RefreshToken(refreshToken)
	if err != nil {
		return nil, providerError(err)
	}
	return providerSession(resp.Session), nil
}

func (g *GoTrue) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := g.call(pingCtx, nil).HealthCheck(); err != nil {
		return fmt.Errorf("auth provider ping: %w", providerError(err))
	}
	return nil
}

func (g *GoTrue) call(ctx context.Context, query url.Values) gotrue.Client {
	return g.client.WithClient(http.Client{
		Timeout: g.timeout,
		Transport: &callTransport{
			ctx:   ctx,
			query: query,
			base:  http.DefaultTransport,
		},
	})
}

// callTransport binds requests made by the auth-go client to ctx and adds
// query parameters the client has no field for.
type callTransport struct {
	ctx   context.Context
	query url.Values
	base  http.RoundTripper
}

func (t *callTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(t.ctx)
	if len(t.query) > 0 {
		q := req.URL.Query()
		for key, values := range t.query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
	return t.base.RoundTrip(req)
}

func startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "auth."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("auth.operation", op)),
	)
}

func providerSession(s gotypes.Session) *ProviderSession {
	return &ProviderSession{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    int64(s.ExpiresIn),
		ExpiresAt:    s.ExpiresAt,
		User:         providerUser(s.User),
	}
}

func providerUser(u gotypes.User) ProviderUser {
	return ProviderUser{
		ID:           u.ID.String(),
		Email:        u.Email,
		AppMetadata:  u.AppMetadata,
		UserMetadata: u.UserMetadata,
		CreatedAt:    u.CreatedAt,
	}
}

// auth-go reports a rejected request as "response status code N: <body>".
var statusPattern = regexp.MustCompile(`(?s)response status code (\d+)(?::\s*(.*))?`)

// providerError turns an auth-go error into a ProviderError carrying the
// provider's own message.
func providerError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if errors.Is(urlErr, context.Canceled) || errors.Is(urlErr, context.DeadlineExceeded) {
			return fmt.Errorf("auth provider: %w", urlErr.Err)
		}
		return &ProviderError{Status: http.StatusBadGateway, Message: err.Error()}
	}

	m := statusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return &ProviderError{Status: http.StatusBadGateway, Message: err.Error()}
	}

	status, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return &ProviderError{Status: http.StatusBadGateway, Message: err.Error()}
	}
	return decodeProviderError(status, []byte(m[2]))
}

type providerErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func decodeProviderError(status int, raw []byte) *ProviderError {
	var body providerErrorBody
	_ = json.Unmarshal(raw, &body) //nolint:errcheck // non-JSON bodies fall through

	msg := firstNonEmpty(body.ErrorDescription, body.Msg, body.Message, body.Error)
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	return &ProviderError{
		Status:  status,
		Code:    firstNonEmpty(body.ErrorCode, body.Error),
		Message: msg,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
