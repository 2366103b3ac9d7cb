// AngelaMos | 2026
// auth_test.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
)

const (
	ahmadID = "7b1e4c2a-3f5d-4e8a-9c61-0d2f8a4b5e17"
	saraID  = "c3a9d0f4-8e21-4b6c-a7d5-1f0e9b3c2a48"
)

// fakeGoTrue records every call and answers with canned bodies.
type fakeGoTrue struct {
	mu      sync.Mutex
	calls   []string
	bodies  []map[string]any
	bearers []string
	handle  func(path string, body map[string]any) (int, any)
}

func (f *fakeGoTrue) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, r.URL.RequestURI())
	f.bodies = append(f.bodies, body)
	f.bearers = append(f.bearers, r.Header.Get("Authorization"))
	f.mu.Unlock()

	status, resp := f.handle(r.URL.RequestURI(), body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if resp != nil {
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (f *fakeGoTrue) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func sessionBody(access, refresh string, expiresAt int64) map[string]any {
	return map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"expires_in":    3600,
		"expires_at":    expiresAt,
		"user": map[string]any{
			"id":           ahmadID,
			"email":        "ahmad@example.com",
			"app_metadata": map[string]any{"role": "admin"},
		},
	}
}

type harness struct {
	svc      *Service
	provider *fakeGoTrue
	redis    *miniredis.Miniredis
	now      time.Time
}

func newHarness(t *testing.T, handle func(path string, body map[string]any) (int, any)) *harness {
	t.Helper()

	fake := &fakeGoTrue{handle: handle}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	svc := NewService(
		NewGoTrue(srv.URL, "anon-key", 5*time.Second),
		NewSessionStore(client, 24*time.Hour),
		ServiceConfig{MinPasswordLength: 6, RefreshLeeway: 30 * time.Second, PasswordRedirectTo: "https://app.example.com/reset"},
		nil,
	)
	svc.now = func() time.Time { return now }

	return &harness{svc: svc, provider: fake, redis: mr, now: now}
}

func TestSignUpRejectsShortPasswordLocally(t *testing.T) {
	h := newHarness(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{}
	})

	_, _, err := h.svc.SignUp(context.Background(), SignUpRequest{
		Email: "a@example.com", Password: "abc", ConfirmPassword: "abc", FullName: "A",
	}, ClientMeta{})
	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, "password must be at least 6 characters", core.Message(err))
	assert.Zero(t, h.provider.callCount())
}

func TestSignUpRejectsMismatchLocally(t *testing.T) {
	h := newHarness(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{}
	})

	_, _, err := h.svc.SignUp(context.Background(), SignUpRequest{
		Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret2", FullName: "A",
	}, ClientMeta{})
	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, "passwords do not match", core.Message(err))
	assert.Zero(t, h.provider.callCount())
}

func TestSignUpArabicMessages(t *testing.T) {
	h := newHarness(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{}
	})
	h.svc.cfg.Locale = derive.Arabic

	_, _, err := h.svc.SignUp(context.Background(), SignUpRequest{
		Password: "abc", ConfirmPassword: "abcd",
	}, ClientMeta{})
	assert.Equal(t, "كلمات المرور غير متطابقة", core.Message(err))
}

func TestSignUpSendsProfileAndWaitsForConfirmation(t *testing.T) {
	h := newHarness(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"id": saraID, "email": "sara@example.com"}
	})

	user, session, err := h.svc.SignUp(context.Background(), SignUpRequest{
		Email:           " sara@example.com ",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		FullName:        "Sara",
		Skills:          "marketing, sales,, ",
	}, ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, saraID, user.ID)
	assert.Nil(t, session)

	require.Equal(t, 1, h.provider.callCount())
	assert.Equal(t, "/signup", h.provider.calls[0])
	data, ok := h.provider.bodies[0]["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Sara", data["full_name"])
	assert.Equal(t, []any{"marketing", "sales"}, data["skills"])
	assert.Equal(t, "sara@example.com", h.provider.bodies[0]["email"])
}

func TestSignUpWithImmediateSession(t *testing.T) {
	h := newHarness(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, sessionBody("access-1", "refresh-1", 0)
	})

	_, session, err := h.svc.SignUp(context.Background(), SignUpRequest{
		Email: "a@example.com", Password: "secret1", ConfirmPassword: "secret1", FullName: "A",
	}, ClientMeta{})
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, h.now.Add(time.Hour), session.ExpiresAt)
	assert.True(t, h.redis.Exists("session:"+session.ID))
}

func TestSignInStoresSession(t *testing.T) {
	h := newHarness(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, sessionBody("access-1", "refresh-1", h0().Add(time.Hour).Unix())
	})

	session, err := h.svc.SignIn(context.Background(),
		SignInRequest{Email: "ahmad@example.com", Password: "secret1"},
		ClientMeta{UserAgent: "test", IPAddress: "10.0.0.1"},
	)
	require.NoError(t, err)
	assert.Equal(t, ahmadID, session.UserID)
	assert.Equal(t, "admin", session.Role)
	assert.Equal(t, "/token?grant_type=password", h.provider.calls[0])

	restored, err := h.svc.Restore(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-1", restored.AccessToken)
	assert.Equal(t, 1, h.provider.callCount())

	sessions, err := h.svc.Sessions(context.Background(), ahmadID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "10.0.0.1", sessions[0].IPAddress)
}

func h0() time.Time {
	return time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
}

func TestSignInSurfacesProviderMessage(t *testing.T) {
	h := newHarness(t, func(string, map[string]any) (int, any) {
		return http.StatusBadRequest, map[string]any{
			"error":             "invalid_grant",
			"error_description": "Invalid login credentials",
		}
	})

	_, err := h.svc.SignIn(context.Background(),
		SignInRequest{Email: "ahmad@example.com", Password: "wrong"}, ClientMeta{})
	require.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, "Invalid login credentials", core.Message(err))
	assert.Equal(t, http.StatusUnauthorized, core.StatusCode(err))
}

func TestRestoreRefreshesExpiredSession(t *testing.T) {
	var refreshed bool
	h := newHarness(t, func(path string, body map[string]any) (int, any) {
		if path == "/token?grant_type=refresh_token" {
			refreshed = true
			if body["refresh_token"] != "refresh-1" {
				return http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "bad"}
			}
			return http.StatusOK, sessionBody("access-2", "refresh-2", h0().Add(time.Hour).Unix())
		}
		return http.StatusOK, sessionBody("access-1", "refresh-1", h0().Add(10*time.Second).Unix())
	})
	ctx := context.Background()

	session, err := h.svc.SignIn(ctx, SignInRequest{Email: "ahmad@example.com", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)

	restored, err := h.svc.Restore(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, "access-2", restored.AccessToken)
	assert.Equal(t, "refresh-2", restored.RefreshToken)

	again, err := h.svc.Restore(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", again.AccessToken)
	assert.Equal(t, 2, h.provider.callCount())
}

func TestRestoreDropsSessionWhenRefreshRefused(t *testing.T) {
	h := newHarness(t, func(path string, _ map[string]any) (int, any) {
		if path == "/token?grant_type=refresh_token" {
			return http.StatusBadRequest, map[string]any{"error": "invalid_grant", "error_description": "Refresh Token Not Found"}
		}
		return http.StatusOK, sessionBody("access-1", "refresh-1", h0().Unix())
	})
	ctx := context.Background()

	session, err := h.svc.SignIn(ctx, SignInRequest{Email: "ahmad@example.com", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)

	_, err = h.svc.Restore(ctx, session.ID)
	require.Error(t, err)
	assert.Equal(t, "Refresh Token Not Found", core.Message(err))
	assert.False(t, h.redis.Exists("session:"+session.ID))

	_, err = h.svc.Restore(ctx, session.ID)
	require.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestSignOut(t *testing.T) {
	h := newHarness(t, func(path string, _ map[string]any) (int, any) {
		if path == "/logout" {
			return http.StatusNoContent, nil
		}
		return http.StatusOK, sessionBody("access-1", "refresh-1", h0().Add(time.Hour).Unix())
	})
	ctx := context.Background()

	session, err := h.svc.SignIn(ctx, SignInRequest{Email: "ahmad@example.com", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, h.svc.SignOut(ctx, session.ID))
	assert.Equal(t, "/logout", h.provider.calls[1])
	assert.Equal(t, "Bearer access-1", h.provider.bearers[1])
	assert.False(t, h.redis.Exists("session:"+session.ID))

	require.NoError(t, h.svc.SignOut(ctx, session.ID))
	assert.Equal(t, 2, h.provider.callCount())
}

func TestResetPassword(t *testing.T) {
	h := newHarness(t, func(string, map[string]any) (int, any) {
		return http.StatusOK, map[string]any{}
	})
	ctx := context.Background()

	err := h.svc.ResetPassword(ctx, "  ")
	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Equal(t, "please enter your email", core.Message(err))
	assert.Zero(t, h.provider.callCount())

	require.NoError(t, h.svc.ResetPassword(ctx, "ahmad@example.com"))
	assert.Equal(t, "/recover?redirect_to=https%3A%2F%2Fapp.example.com%2Freset", h.provider.calls[0])
}

func TestSplitSkills(t *testing.T) {
	assert.Equal(t, []string{"go", "sql", "design"}, SplitSkills("go, sql,,design "))
	assert.Equal(t, []string{}, SplitSkills(""))
}

func TestProviderErrorDecoding(t *testing.T) {
	err := providerError(errors.New(
		`response status code 422: {"code":422,"error_code":"weak_password","msg":"Password should be at least 6 characters."}` + "\n",
	))
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "weak_password", pe.Code)
	assert.Equal(t, "Password should be at least 6 characters.", core.Message(err))
	assert.Equal(t, http.StatusBadRequest, core.StatusCode(err))

	err = providerError(errors.New("response status code 500"))
	assert.Equal(t, "Internal Server Error", core.Message(err))
	assert.Equal(t, http.StatusBadGateway, core.StatusCode(err))

	err = providerError(&url.Error{Op: "Post", URL: "http://auth.local/token", Err: errors.New("connection refused")})
	assert.Equal(t, http.StatusBadGateway, core.StatusCode(err))
	assert.Contains(t, core.Message(err), "connection refused")
}

func TestProviderCallsFollowContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	provider := NewGoTrue(srv.URL, "anon-key", 5*time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := provider.SignInWithPassword(ctx, "ahmad@example.com", "secret1")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProviderPing(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"version":"v2","name":"GoTrue","description":"auth"}`))
	}))
	t.Cleanup(srv.Close)

	provider := NewGoTrue(srv.URL, "anon-key", time.Second)
	require.NoError(t, provider.Ping(context.Background()))

	status.Store(http.StatusServiceUnavailable)
	require.Error(t, provider.Ping(context.Background()))
}
