// AngelaMos | 2026
// handler.go

package project

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
	"github.com/carterperez-dev/sharaka/internal/middleware"
	"github.com/carterperez-dev/sharaka/internal/moderation"
	"github.com/carterperez-dev/sharaka/internal/schema"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	locale    derive.Locale
	now       func() time.Time
}

func NewHandler(service *Service, locale derive.Locale) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
		locale:    locale,
		now:       time.Now,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", h.List)
		r.With(authenticator).Post("/", h.Create)
	})
}

// RegisterAdminRoutes registers the console's project moderation endpoints.
func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/projects", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.AdminList)
		r.Post("/refresh", h.Refresh)
		r.Put("/{projectID}/status", h.UpdateStatus)
		r.Delete("/{projectID}", h.Delete)
	})
}

// List returns marketplace cards for the category, stage and city filters
// in the query string.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	values := make(map[string]string)
	for key := range r.URL.Query() {
		values[key] = r.URL.Query().Get(key)
	}

	filter, unknown := schema.ParseProjectFilter(values)
	if len(unknown) > 0 {
		slog.DebugContext(r.Context(), "ignoring unknown project filters",
			"keys", unknown,
		)
	}

	projects, err := h.service.List(r.Context(), filter)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, ToCardResponseList(projects, h.now(), h.locale))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	created, err := h.service.CreateProject(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
	)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.Created(w, ToCardResponse(*created, h.now(), h.locale))
}

// AdminList serves the console table. The console always loads every
// project and narrows by search text and status locally; a failed reload
// still returns the last loaded rows alongside the error.
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	st := h.service.Fetch(r.Context(), schema.ProjectFilter{})

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
	projectID := chi.URLParam(r, "projectID")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := core.Validate(h.validator, req); err != nil {
		core.JSONError(w, err)
		return
	}

	if err := h.service.SetStatus(r.Context(), projectID, req.Status); err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, map[string]string{"id": projectID, "status": req.Status})
}

// Delete requires ?confirm=true. Without it nothing is sent to the backend
// and the response reports deleted=false.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	deleted, err := h.service.Delete(
		r.Context(),
		projectID,
		moderation.Confirmed(confirmed),
	)
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, map[string]any{"id": projectID, "deleted": deleted})
}

func writeState(w http.ResponseWriter, data any, errMsg string) {
	env := core.Success(data)
	if errMsg != "" {
		env.Error = &errMsg
	}
	core.JSON(w, http.StatusOK, env)
}
