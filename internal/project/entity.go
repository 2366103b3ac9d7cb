// AngelaMos | 2026
// entity.go

package project

import (
	"time"
)

// Owner is the slice of the owning user expanded into each project row.
type Owner struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url"`
}

type Project struct {
	ID                    string    `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	Category              string    `json:"category"`
	Stage                 string    `json:"stage"`
	City                  string    `json:"city"`
	NeededSkills          []string  `json:"needed_skills"`
	PartnershipPercentage float64   `json:"partnership_percentage"`
	Status                string    `json:"status"`
	OwnerID               string    `json:"owner_id"`
	CreatedAt             time.Time `json:"created_at"`
	Owner                 *Owner    `json:"users"`
}

func (p Project) ModerationID() string {
	return p.ID
}

func (p Project) ModerationStatus() string {
	return p.Status
}

func (p Project) WithStatus(status string) Project {
	p.Status = status
	return p
}

func (p Project) OwnerName() string {
	if p.Owner == nil {
		return ""
	}
	return p.Owner.FullName
}

const (
	StageIdea    = "idea"
	StageMVP     = "mvp"
	StageRunning = "running"
)
