// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope is the {data, error} shape every UI-facing call resolves to.
// Error is nil on success and a human-readable message otherwise.
type Envelope struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}

func Success(data any) Envelope {
	return Envelope{Data: data}
}

func Failure(err error) Envelope {
	msg := Message(err)
	return Envelope{Error: &msg}
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(body)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

func JSONError(w http.ResponseWriter, err error) {
	JSON(w, StatusCode(err), Failure(err))
}

func BadRequest(w http.ResponseWriter, message string) {
	JSONError(w, ValidationError(message))
}

// Fail answers with the error's message, logging anything that is not a
// client-side problem.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"status", status,
			"trace_id", TraceIDFromContext(r.Context()),
			"error", err,
		)
	}
	JSON(w, status, Failure(err))
}
