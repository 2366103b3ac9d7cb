// AngelaMos | 2026
// handler.go

package message

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
	r.Route("/messages", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Send)
		r.Get("/{peerID}", h.Thread)
	})
}

func (h *Handler) Thread(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.GetUserID(r.Context())

	msgs, err := h.service.Thread(r.Context(), viewer, chi.URLParam(r, "peerID"))
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, ToMessageResponseList(msgs, viewer, h.now(), h.locale))
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	sender := middleware.GetUserID(r.Context())
	sent, err := h.service.Send(r.Context(), sender, req)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.Created(w, ToMessageResponse(*sent, sender, h.now(), h.locale))
}
