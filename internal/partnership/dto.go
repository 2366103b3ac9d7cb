// AngelaMos | 2026
// dto.go

package partnership

import (
	"time"

	"github.com/carterperez-dev/sharaka/internal/derive"
)

type CreatePartnershipRequest struct {
	ProjectID string `json:"project_id" validate:"required,max=64"`
	Message   string `json:"message"    validate:"max=2000"`
}

type newPartnership struct {
	ProjectID string `json:"project_id"`
	PartnerID string `json:"partner_id"`
	Message   string `json:"message,omitempty"`
}

type RequestResponse struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	ProjectTitle   string  `json:"project_title"`
	PartnerID      string  `json:"partner_id"`
	PartnerName    string  `json:"partner_name"`
	PartnerInitial string  `json:"partner_initial"`
	AvatarURL      *string `json:"avatar_url"`
	Message        string  `json:"message,omitempty"`
	Status         string  `json:"status"`
	TimeRequested  string  `json:"time_requested"`
}

func ToRequestResponse(p Partnership, now time.Time, loc derive.Locale) RequestResponse {
	resp := RequestResponse{
		ID:            p.ID,
		ProjectID:     p.ProjectID,
		PartnerID:     p.PartnerID,
		Message:       p.Message,
		Status:        p.Status,
		TimeRequested: derive.TimeAgo(p.CreatedAt, now, loc),
	}
	if p.Project != nil {
		resp.ProjectTitle = p.Project.Title
	}
	if p.Partner != nil {
		resp.PartnerName = p.Partner.FullName
		resp.AvatarURL = p.Partner.AvatarURL
	}
	resp.PartnerInitial = derive.Initial(resp.PartnerName, "")
	return resp
}

func ToRequestResponseList(ps []Partnership, now time.Time, loc derive.Locale) []RequestResponse {
	out := make([]RequestResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, ToRequestResponse(p, now, loc))
	}
	return out
}
