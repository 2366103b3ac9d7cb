// AngelaMos | 2026
// dto.go

package auth

import (
	"strings"
	"time"
)

type SignInRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// SignUpRequest is the sign-up form. Skills arrive as one comma-separated
// string.
type SignUpRequest struct {
	Email             string `json:"email"               validate:"required,email,max=255"`
	Password          string `json:"password"            validate:"required,max=128"`
	ConfirmPassword   string `json:"confirm_password"`
	FullName          string `json:"full_name"           validate:"required,max=100"`
	Phone             string `json:"phone"               validate:"max=30"`
	Skills            string `json:"skills"              validate:"max=1000"`
	Bio               string `json:"bio"                 validate:"max=2000"`
	Location          string `json:"location"            validate:"max=100"`
	TypeOfPartnership string `json:"type_of_partnership" validate:"max=50"`
}

type ResetPasswordRequest struct {
	Email string `json:"email"`
}

type SignOutRequest struct {
	SessionID string `json:"session_id"`
}

// SplitSkills turns "go, sql,,design " into ["go" "sql" "design"].
func SplitSkills(raw string) []string {
	out := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// SessionResponse is what the UI keeps: the session ID to restore with and
// a bearer token for API calls.
type SessionResponse struct {
	SessionID   string       `json:"session_id"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

type SignUpResponse struct {
	User                 UserResponse     `json:"user"`
	Session              *SessionResponse `json:"session"`
	ConfirmationRequired bool             `json:"confirmation_required"`
	Message              string           `json:"message"`
}

type SessionInfo struct {
	ID          string    `json:"id"`
	UserAgent   string    `json:"user_agent"`
	IPAddress   string    `json:"ip_address"`
	CreatedAt   time.Time `json:"created_at"`
	RefreshedAt time.Time `json:"refreshed_at"`
	Current     bool      `json:"current"`
}

func ToSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		SessionID:   s.ID,
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   s.ExpiresAt,
		User: UserResponse{
			ID:    s.UserID,
			Email: s.Email,
			Role:  s.Role,
		},
	}
}
