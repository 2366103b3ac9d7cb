// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/middleware"
)

// SessionHeader carries the session ID on restore and sign-out.
const SessionHeader = "X-Session-ID"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the auth endpoints. limiter wraps the endpoints
// that accept credentials.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, limiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}
			r.Post("/signin", h.SignIn)
			r.Post("/signup", h.SignUp)
			r.Post("/reset", h.ResetPassword)
		})

		r.Post("/signout", h.SignOut)
		r.Get("/session", h.Session)
		r.With(authenticator).Get("/sessions", h.Sessions)
	})
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	session, err := h.service.SignIn(r.Context(), req, clientMeta(r))
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, ToSessionResponse(session))
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	user, session, err := h.service.SignUp(r.Context(), req, clientMeta(r))
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	resp := SignUpResponse{
		User: UserResponse{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role(),
		},
		ConfirmationRequired: session == nil,
		Message:              h.service.text(msgSignUpConfirm),
	}
	if session != nil {
		sr := ToSessionResponse(session)
		resp.Session = &sr
		resp.Message = h.service.text(msgSignUpDone)
	}

	core.Created(w, resp)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Email); err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, map[string]string{"message": h.service.text(msgResetSent)})
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" && r.ContentLength != 0 {
		var req SignOutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			sessionID = req.SessionID
		}
	}

	if err := h.service.SignOut(r.Context(), sessionID); err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, map[string]bool{"signed_out": true})
}

// Session restores the caller's session, refreshing it when needed.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Restore(r.Context(), r.Header.Get(SessionHeader))
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	core.OK(w, ToSessionResponse(session))
}

func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.Sessions(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.Fail(w, r, err)
		return
	}

	current := r.Header.Get(SessionHeader)
	out := make([]SessionInfo, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionInfo{
			ID:          s.ID,
			UserAgent:   s.UserAgent,
			IPAddress:   s.IPAddress,
			CreatedAt:   s.CreatedAt,
			RefreshedAt: s.RefreshedAt,
			Current:     s.ID == current,
		})
	}

	core.OK(w, out)
}

func clientMeta(r *http.Request) ClientMeta {
	return ClientMeta{
		UserAgent: r.UserAgent(),
		IPAddress: extractIPAddress(r),
	}
}

func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
