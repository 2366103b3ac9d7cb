// AngelaMos | 2026
// core_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstreamErr struct {
	msg    string
	status int
}

func (e *upstreamErr) Error() string       { return "upstream: " + e.msg }
func (e *upstreamErr) UserMessage() string { return e.msg }
func (e *upstreamErr) HTTPStatus() int     { return e.status }

func TestMessageAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		msg    string
		status int
	}{
		{
			name:   "app error wrapped",
			err:    fmt.Errorf("load: %w", NotFoundError("project")),
			msg:    "project not found",
			status: http.StatusNotFound,
		},
		{
			name:   "upstream message passes through",
			err:    fmt.Errorf("select: %w", &upstreamErr{msg: "permission denied for table users", status: http.StatusForbidden}),
			msg:    "permission denied for table users",
			status: http.StatusForbidden,
		},
		{
			name:   "sentinel",
			err:    fmt.Errorf("update user: %w", ErrUnauthorized),
			msg:    "update user: unauthorized",
			status: http.StatusUnauthorized,
		},
		{
			name:   "duplicate key",
			err:    fmt.Errorf("insert rating: %w", ErrDuplicateKey),
			msg:    "insert rating: duplicate key",
			status: http.StatusConflict,
		},
		{
			name:   "expired token",
			err:    fmt.Errorf("verify: %w", ErrTokenExpired),
			msg:    "verify: token expired",
			status: http.StatusUnauthorized,
		},
		{
			name:   "unknown",
			err:    errors.New("connection reset by peer"),
			msg:    "connection reset by peer",
			status: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.msg, Message(tt.err))
			assert.Equal(t, tt.status, StatusCode(tt.err))
		})
	}

	assert.Empty(t, Message(nil))
}

func TestEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]int{"count": 2})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"count":2},"error":null}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	Fail(rec, req, ValidationError("title is required"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"data":null,"error":"title is required"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	Fail(rec, req, errors.New("backend unreachable"))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, "backend unreachable", *env.Error)
}

func TestValidateFormatsFields(t *testing.T) {
	type form struct {
		FullName        string `validate:"required"`
		Email           string `validate:"required,email"`
		Password        string `validate:"min=6"`
		ConfirmPassword string `validate:"eqfield=Password"`
		Stage           string `validate:"oneof=idea mvp"`
	}

	err := Validate(NewValidator(), form{
		Email:           "nope",
		Password:        "abc",
		ConfirmPassword: "abd",
		Stage:           "launch",
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t,
		"full_name is required; email must be a valid email; password must be at least 6; "+
			"confirm_password must match password; stage must be one of: idea mvp",
		Message(err),
	)
}
