// AngelaMos | 2026
// handler.go

package rating

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Post("/ratings", h.Create)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.service.Rate(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	summary, err := h.service.Aggregate(r.Context(), created.RatedUserID)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.Created(w, map[string]any{
		"rating":  created,
		"summary": summary,
	})
}
