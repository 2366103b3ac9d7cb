// AngelaMos | 2026
// partnership_test.go

package partnership

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
	"github.com/carterperez-dev/sharaka/internal/middleware"
	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

func seed(t *testing.T) *store.Memory {
	t.Helper()

	mem := store.NewMemory()
	require.NoError(t, mem.Seed(schema.Users,
		map[string]any{"id": "owner", "full_name": "Ahmad", "email": "a@example.com"},
		map[string]any{"id": "sara", "full_name": "Sara", "email": "s@example.com"},
		map[string]any{"id": "omar", "full_name": "Omar", "email": "o@example.com"},
	))
	require.NoError(t, mem.Seed(schema.Projects,
		map[string]any{"id": "p1", "title": "Clinic", "owner_id": "owner", "status": "active"},
		map[string]any{"id": "p2", "title": "Cafe", "owner_id": "sara", "status": "active"},
	))
	require.NoError(t, mem.Seed(schema.Partnerships,
		map[string]any{"id": "s1", "project_id": "p1", "partner_id": "sara", "status": "pending", "created_at": "2026-06-01T09:00:00Z"},
		map[string]any{"id": "s2", "project_id": "p2", "partner_id": "omar", "status": "pending", "created_at": "2026-06-01T10:00:00Z"},
		map[string]any{"id": "s3", "project_id": "p1", "partner_id": "omar", "status": "pending", "created_at": "2026-06-01T11:00:00Z"},
	))
	return mem
}

func TestRequestsForOwner(t *testing.T) {
	svc := NewService(NewRepository(seed(t)), nil)

	got, err := svc.RequestsForOwner(context.Background(), "owner")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s3", got[0].ID)
	assert.Equal(t, "s1", got[1].ID)

	require.NotNil(t, got[0].Project)
	assert.Equal(t, "Clinic", got[0].Project.Title)
	require.NotNil(t, got[0].Partner)
	assert.Equal(t, "Omar", got[0].Partner.FullName)

	none, err := svc.RequestsForOwner(context.Background(), "omar")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.RequestsForOwner(context.Background(), "")
	require.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestRequest(t *testing.T) {
	mem := seed(t)
	svc := NewService(NewRepository(mem), nil)
	ctx := context.Background()

	created, err := svc.Request(ctx, "omar", CreatePartnershipRequest{ProjectID: " p2 ", Message: " keen "})
	require.NoError(t, err)
	assert.Equal(t, "p2", created.ProjectID)
	assert.Equal(t, "keen", created.Message)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, 4, mem.Count(schema.Partnerships))

	_, err = svc.Request(ctx, "omar", CreatePartnershipRequest{})
	require.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Request(ctx, "", CreatePartnershipRequest{ProjectID: "p2"})
	require.ErrorIs(t, err, core.ErrUnauthorized)

	assert.Equal(t, 4, mem.Count(schema.Partnerships))
}

func TestRequestDuplicateSurfacesConflict(t *testing.T) {
	mem := seed(t)
	mem.SetFault(func(op string, _ schema.Entity) error {
		if op == "insert" {
			return &store.Error{Status: 409, Code: "23505", Message: `duplicate key value violates unique constraint "partnerships_project_partner_key"`}
		}
		return nil
	})
	svc := NewService(NewRepository(mem), nil)

	_, err := svc.Request(context.Background(), "sara", CreatePartnershipRequest{ProjectID: "p1"})
	require.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.Equal(t, http.StatusConflict, core.StatusCode(err))
}

type stubVerifier map[string]*middleware.AccessTokenClaims

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (*middleware.AccessTokenClaims, error) {
	if c, ok := s[token]; ok {
		return c, nil
	}
	return nil, core.ErrTokenInvalid
}

func TestHandlers(t *testing.T) {
	mem := seed(t)
	h := NewHandler(NewService(NewRepository(mem), nil), derive.English)
	h.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	h.RegisterRoutes(r, middleware.Authenticator(stubVerifier{
		"owner-token": {UserID: "owner"},
		"omar-token":  {UserID: "omar"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/partnerships/requests", nil)
	req.Header.Set("Authorization", "Bearer owner-token")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data []RequestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Len(t, env.Data, 2)
	assert.Equal(t, "Clinic", env.Data[0].ProjectTitle)
	assert.Equal(t, "Omar", env.Data[0].PartnerName)
	assert.Equal(t, "O", env.Data[0].PartnerInitial)
	assert.Equal(t, "1 hour ago", env.Data[0].TimeRequested)

	req = httptest.NewRequest(http.MethodPost, "/partnerships",
		strings.NewReader(`{"project_id":"p2"}`))
	req.Header.Set("Authorization", "Bearer omar-token")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 4, mem.Count(schema.Partnerships))
}
