// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                string    `json:"id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	Bio               string    `json:"bio"`
	Skills            []string  `json:"skills"`
	Location          string    `json:"location,omitempty"`
	TypeOfPartnership string    `json:"type_of_partnership,omitempty"`
	AvatarURL         *string   `json:"avatar_url"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

func (u User) ModerationID() string {
	return u.ID
}

func (u User) ModerationStatus() string {
	return u.Status
}

func (u User) WithStatus(status string) User {
	u.Status = status
	return u
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)
