// AngelaMos | 2026
// handler.go

package partnership

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
	"github.com/carterperez-dev/sharaka/internal/middleware"
)

type Handler struct {
	service *Service
	locale  derive.Locale
	now     func() time.Time
}

func NewHandler(service *Service, locale derive.Locale) *Handler {
	return &Handler{
		service: service,
		locale:  locale,
		now:     time.Now,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/partnerships", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/requests", h.Requests)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePartnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.service.Request(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.Created(w, created)
}

func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.RequestsForOwner(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, ToRequestResponseList(rows, h.now(), h.locale))
}
