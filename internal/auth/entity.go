// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RoleUser is the application role of accounts without one assigned.
const RoleUser = "user"

// Session is a signed-in UI session held by the BFF. The refresh token
// never leaves the server; clients refer to the session by ID.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	RefreshedAt  time.Time `json:"refreshed_at"`
	UserAgent    string    `json:"user_agent"`
	IPAddress    string    `json:"ip_address"`
}

// NeedsRefresh reports whether the access token expires within leeway
// of now.
func (s *Session) NeedsRefresh(now time.Time, leeway time.Duration) bool {
	return !now.Add(leeway).Before(s.ExpiresAt)
}

func (s *Session) apply(ps *ProviderSession, now time.Time) {
	s.UserID = ps.User.ID
	s.Email = ps.User.Email
	s.Role = ps.User.Role()
	s.AccessToken = ps.AccessToken
	if ps.RefreshToken != "" {
		s.RefreshToken = ps.RefreshToken
	}
	s.ExpiresAt = ps.Expiry(now)
	s.RefreshedAt = now
}
