// AngelaMos | 2026
// entity.go

package partnership

import (
	"time"
)

// Partnership is a request by a partner to join a project.
type Partnership struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	PartnerID string    `json:"partner_id"`
	Message   string    `json:"message,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	Project *ProjectRef `json:"projects,omitempty"`
	Partner *PartnerRef `json:"partner,omitempty"`
}

type ProjectRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	OwnerID string `json:"owner_id"`
	Status  string `json:"status"`
}

type PartnerRef struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}
