// AngelaMos | 2026
// rest_test.go

package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
)

type row struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

func TestEncodeQueryProjects(t *testing.T) {
	q := schema.ProjectsQuery(schema.ProjectFilter{Category: "tech", City: "Riy_adh"})

	params, err := encodeQuery(q)
	require.NoError(t, err)

	assert.Equal(t, "*,users:owner_id(id,full_name,email,avatar_url)", params.Get("select"))
	assert.Equal(t, "eq.tech", params.Get("category"))
	assert.Equal(t, `ilike.*Riy\_adh*`, params.Get("city"))
	assert.Equal(t, "created_at.desc", params.Get("order"))
}

func TestEncodeQueryLiteralStar(t *testing.T) {
	params, err := encodeQuery(schema.ProjectsQuery(schema.ProjectFilter{City: "a*b.c"}))
	require.NoError(t, err)
	assert.Equal(t, `imatch.a\*b\.c`, params.Get("city"))

	params, err = encodeQuery(schema.Query{
		Table: schema.Projects,
		AnyOf: [][]schema.Filter{{schema.ILike("title", "5*")}},
	})
	require.NoError(t, err)
	assert.Equal(t, `(and(title.imatch."5\\*"))`, params.Get("or"))
}

func TestEncodeQueryThreadUsesOrGroups(t *testing.T) {
	params, err := encodeQuery(schema.MessagesThreadQuery("u1", "u2"))
	require.NoError(t, err)

	assert.Equal(t,
		"(and(sender_id.eq.u1,receiver_id.eq.u2),and(sender_id.eq.u2,receiver_id.eq.u1))",
		params.Get("or"),
	)
	assert.Equal(t, "created_at.asc", params.Get("order"))
}

func TestEncodeQueryEmbeddedFilter(t *testing.T) {
	params, err := encodeQuery(schema.PartnershipRequestsQuery("owner-1"))
	require.NoError(t, err)

	assert.Equal(t,
		"*,projects:project_id!inner(*),partner:partner_id(id,full_name,avatar_url)",
		params.Get("select"),
	)
	assert.Equal(t, "eq.owner-1", params.Get("projects.owner_id"))
}

func TestEncodeQueryRejectsBadIdentifiers(t *testing.T) {
	q := schema.Query{
		Table:   schema.Projects,
		Filters: []schema.Filter{schema.Eq("title;drop", "x")},
	}

	_, err := encodeQuery(q)
	require.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestQuoteValue(t *testing.T) {
	assert.Equal(t, "abc-123", quoteValue("abc-123"))
	assert.Equal(t, `"a,b"`, quoteValue("a,b"))
	assert.Equal(t, `"say \"hi\""`, quoteValue(`say "hi"`))
}

func TestRESTSelectSendsHeadersAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/projects", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		assert.Equal(t, "eq.mvp", r.URL.Query().Get("stage"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1","title":"One","status":"active"}]`))
	}))
	defer srv.Close()

	rest := NewREST(srv.URL+"/rest/v1/", "anon", time.Second)
	ctx := WithAccessToken(context.Background(), "user-token")

	var rows []row
	err := rest.Select(ctx, schema.ProjectsQuery(schema.ProjectFilter{Stage: "mvp"}), &rows)
	require.NoError(t, err)
	assert.Equal(t, []row{{ID: "p1", Title: "One", Status: "active"}}, rows)
}

func TestRESTAnonymousUsesAPIKeyAsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rest := NewREST(srv.URL, "anon", time.Second)

	var rows []row
	require.NoError(t, rest.Select(context.Background(), schema.UsersQuery(schema.UserFilter{}), &rows))
	assert.Empty(t, rows)
}

func TestRESTErrorMessageIsVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"users_email_key\""}`))
	}))
	defer srv.Close()

	rest := NewREST(srv.URL, "anon", time.Second)
	err := rest.Insert(context.Background(), schema.Users, map[string]any{"email": "a@b.c"}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
	assert.Equal(t,
		`duplicate key value violates unique constraint "users_email_key"`,
		core.Message(err),
	)
	assert.Equal(t, http.StatusConflict, core.StatusCode(err))
}

func TestRESTInsertPostsArrayAndDecodesRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var sent []map[string]any
		require.NoError(t, json.Unmarshal(body, &sent))
		require.Len(t, sent, 1)
		assert.Equal(t, "New", sent[0]["title"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`[{"id":"p9","title":"New","status":"pending"}]`))
	}))
	defer srv.Close()

	rest := NewREST(srv.URL, "anon", time.Second)

	var created []row
	err := rest.Insert(context.Background(), schema.Projects, map[string]any{"title": "New"}, &created)
	require.NoError(t, err)
	assert.Equal(t, "p9", created[0].ID)
}

func TestRESTUpdateWithoutMatchIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.missing", r.URL.Query().Get("id"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	rest := NewREST(srv.URL, "anon", time.Second)
	err := rest.Update(context.Background(), schema.Projects, "missing", map[string]any{"status": "active"})

	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestRESTDeleteSucceedsWhenRowReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		_, _ = w.Write([]byte(`[{"id":"p1"}]`))
	}))
	defer srv.Close()

	rest := NewREST(srv.URL, "anon", time.Second)
	require.NoError(t, rest.Delete(context.Background(), schema.Projects, "p1"))
}

func TestRESTNonJSONErrorFallsBackToBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	rest := NewREST(srv.URL, "anon", time.Second)

	var rows []row
	err := rest.Select(context.Background(), schema.UsersQuery(schema.UserFilter{}), &rows)
	require.Error(t, err)
	assert.Equal(t, "upstream down", core.Message(err))
}
