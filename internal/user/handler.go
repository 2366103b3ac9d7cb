// AngelaMos | 2026
// handler.go

package user

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
	"github.com/carterperez-dev/sharaka/internal/middleware"
	"github.com/carterperez-dev/sharaka/internal/schema"
)

// RatingReader supplies the aggregate rating shown on a profile.
type RatingReader interface {
	Aggregate(ctx context.Context, userID string) (derive.RatingSummary, error)
}

type Handler struct {
	service   *Service
	ratings   RatingReader
	validator *validator.Validate
	locale    derive.Locale
}

func NewHandler(service *Service, ratings RatingReader, locale derive.Locale) *Handler {
	return &Handler{
		service:   service,
		ratings:   ratings,
		validator: core.NewValidator(),
		locale:    locale,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(authenticator).Get("/me", h.GetMe)
		r.With(authenticator).Put("/me", h.UpdateMe)

		r.Get("/{userID}", h.GetProfile)
		r.Get("/{userID}/rating", h.GetRating)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.AdminList)
		r.Post("/refresh", h.Refresh)
		r.Put("/{userID}/status", h.UpdateStatus)
	})
}

// List is the partner directory. Only the status filter is recognized;
// other query keys are ignored.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	values := make(map[string]string)
	for key := range r.URL.Query() {
		values[key] = r.URL.Query().Get(key)
	}

	filter, unknown := schema.ParseUserFilter(values)
	if len(unknown) > 0 {
		slog.DebugContext(r.Context(), "ignoring unknown user filters",
			"keys", unknown,
		)
	}

	users, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		rating, err := h.ratings.Aggregate(r.Context(), u.ID)
		if err != nil {
			core.Fail(w, r, err)
			return
		}
		out = append(out, ToUserResponse(u, rating, h.locale))
	}

	core.OK(w, out)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, chi.URLParam(r, "userID"))
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.writeProfile(w, r, middleware.GetUserID(r.Context()))
}

func (h *Handler) writeProfile(w http.ResponseWriter, r *http.Request, id string) {
	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	rating, err := h.ratings.Aggregate(r.Context(), u.ID)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(*u, rating, h.locale))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	u, err := h.service.UpdateUser(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	rating, err := h.ratings.Aggregate(r.Context(), u.ID)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, ToUserResponse(*u, rating, h.locale))
}

func (h *Handler) GetRating(w http.ResponseWriter, r *http.Request) {
	summary, err := h.ratings.Aggregate(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		core.Fail(w, r, err)
		return
	}
	core.OK(w, summary)
}

// AdminList serves the console's user table, loaded unfiltered and narrowed
// by the search and status query parameters.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	st := h.service.Fetch(r.Context(), schema.UserFilter{})

	q := r.URL.Query()
	rows := ToAdminResponseList(
		h.service.Search(q.Get("search"), q.Get("status")),
		h.locale,
	)

	writeState(w, rows, st.Err)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	st := h.service.Refetch(r.Context())
	writeState(w, ToAdminResponseList(st.Data, h.locale), st.Err)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := core.Validate(h.validator, req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.SetStatus(r.Context(), userID, req.Status); err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, map[string]string{"id": userID, "status": req.Status})
}

func writeState(w http.ResponseWriter, data any, errMsg string) {
	env := core.Success(data)
	if errMsg != "" {
		env.Error = &errMsg
	}
	core.JSON(w, http.StatusOK, env)
}
