// AngelaMos | 2026
// dto.go

package project

import (
	"time"

	"github.com/carterperez-dev/sharaka/internal/derive"
	"github.com/carterperez-dev/sharaka/internal/moderation"
)

type CreateProjectRequest struct {
	Title                 string   `json:"title"                  validate:"required,min=1,max=200"`
	Description           string   `json:"description"            validate:"required,max=5000"`
	Category              string   `json:"category"               validate:"required,max=50"`
	Stage                 string   `json:"stage"                  validate:"required,oneof=idea mvp running"`
	City                  string   `json:"city"                   validate:"omitempty,max=100"`
	NeededSkills          []string `json:"needed_skills"          validate:"omitempty,max=20,dive,min=1,max=50"`
	PartnershipPercentage float64  `json:"partnership_percentage" validate:"gte=0,lte=100"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active completed suspended"`
}

// newProject is the row inserted for a create request. Status and
// timestamps are left to backend defaults.
type newProject struct {
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	Category              string   `json:"category"`
	Stage                 string   `json:"stage"`
	City                  string   `json:"city,omitempty"`
	NeededSkills          []string `json:"needed_skills"`
	PartnershipPercentage float64  `json:"partnership_percentage"`
	OwnerID               string   `json:"owner_id"`
}

// CardResponse is the marketplace card view of a project.
type CardResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Stage           string   `json:"stage"`
	StageLabel      string   `json:"stage_label"`
	Category        string   `json:"category"`
	CategoryLabel   string   `json:"category_label"`
	Location        string   `json:"location"`
	Skills          []string `json:"skills"`
	SharePercentage string   `json:"share_percentage"`
	OwnerID         string   `json:"owner_id"`
	OwnerName       string   `json:"owner_name"`
	TimePosted      string   `json:"time_posted"`
}

// AdminResponse is a row of the admin console's project table.
type AdminResponse struct {
	ID                    string              `json:"id"`
	Title                 string              `json:"title"`
	DescriptionPreview    string              `json:"description_preview"`
	Category              string              `json:"category"`
	Stage                 string              `json:"stage"`
	StageLabel            string              `json:"stage_label"`
	Status                string              `json:"status"`
	StatusLabel           string              `json:"status_label"`
	PartnershipPercentage string              `json:"partnership_percentage"`
	OwnerName             string              `json:"owner_name"`
	OwnerEmail            string              `json:"owner_email"`
	CreatedAt             string              `json:"created_at"`
	Actions               []moderation.Action `json:"actions"`
}

const descriptionPreviewLen = 50

func anonymousOwner(loc derive.Locale) string {
	if loc == derive.Arabic {
		return "مستخدم مجهول"
	}
	return "Anonymous user"
}

func ToCardResponse(p Project, now time.Time, loc derive.Locale) CardResponse {
	owner := p.OwnerName()
	if owner == "" {
		owner = anonymousOwner(loc)
	}

	skills := p.NeededSkills
	if skills == nil {
		skills = []string{}
	}

	return CardResponse{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		Stage:           p.Stage,
		StageLabel:      derive.StageLabel(p.Stage, loc),
		Category:        p.Category,
		CategoryLabel:   derive.CategoryLabel(p.Category, loc),
		Location:        p.City,
		Skills:          skills,
		SharePercentage: derive.Percentage(p.PartnershipPercentage),
		OwnerID:         p.OwnerID,
		OwnerName:       owner,
		TimePosted:      derive.TimeAgo(p.CreatedAt, now, loc),
	}
}

func ToCardResponseList(projects []Project, now time.Time, loc derive.Locale) []CardResponse {
	out := make([]CardResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToCardResponse(p, now, loc))
	}
	return out
}

func ToAdminResponse(p Project, loc derive.Locale) AdminResponse {
	resp := AdminResponse{
		ID:                    p.ID,
		Title:                 p.Title,
		DescriptionPreview:    derive.Truncate(p.Description, descriptionPreviewLen),
		Category:              p.Category,
		Stage:                 p.Stage,
		StageLabel:            derive.StageLabel(p.Stage, loc),
		Status:                p.Status,
		StatusLabel:           derive.ProjectStatusLabel(p.Status, loc),
		PartnershipPercentage: derive.Percentage(p.PartnershipPercentage),
		OwnerName:             p.OwnerName(),
		CreatedAt:             derive.FormatDate(p.CreatedAt, loc),
		Actions:               moderation.ProjectPolicy.Actions(p.Status),
	}
	if p.Owner != nil {
		resp.OwnerEmail = p.Owner.Email
	}
	return resp
}

func ToAdminResponseList(projects []Project, loc derive.Locale) []AdminResponse {
	out := make([]AdminResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToAdminResponse(p, loc))
	}
	return out
}
