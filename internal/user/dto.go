// AngelaMos | 2026
// dto.go

package user

import (
	"github.com/carterperez-dev/sharaka/internal/derive"
	"github.com/carterperez-dev/sharaka/internal/moderation"
)

type UpdateUserRequest struct {
	FullName  *string  `json:"full_name,omitempty"  validate:"omitempty,min=1,max=100"`
	Phone     *string  `json:"phone,omitempty"      validate:"omitempty,max=30"`
	Bio       *string  `json:"bio,omitempty"        validate:"omitempty,max=2000"`
	Skills    []string `json:"skills,omitempty"     validate:"omitempty,max=30,dive,min=1,max=50"`
	Location  *string  `json:"location,omitempty"   validate:"omitempty,max=100"`
	AvatarURL *string  `json:"avatar_url,omitempty" validate:"omitempty,url,max=500"`
}

func (r UpdateUserRequest) patch() map[string]any {
	p := make(map[string]any)
	if r.FullName != nil {
		p["full_name"] = *r.FullName
	}
	if r.Phone != nil {
		p["phone"] = *r.Phone
	}
	if r.Bio != nil {
		p["bio"] = *r.Bio
	}
	if r.Skills != nil {
		p["skills"] = r.Skills
	}
	if r.Location != nil {
		p["location"] = *r.Location
	}
	if r.AvatarURL != nil {
		p["avatar_url"] = *r.AvatarURL
	}
	return p
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending active suspended"`
}

// UserResponse is the public profile view.
type UserResponse struct {
	ID                string               `json:"id"`
	FullName          string               `json:"full_name"`
	Initial           string               `json:"initial"`
	Bio               string               `json:"bio"`
	Skills            []string             `json:"skills"`
	Location          string               `json:"location,omitempty"`
	TypeOfPartnership string               `json:"type_of_partnership,omitempty"`
	AvatarURL         *string              `json:"avatar_url"`
	Rating            derive.RatingSummary `json:"rating"`
	JoinedAt          string               `json:"joined_at"`
}

// AdminResponse is a row of the admin console's user table.
type AdminResponse struct {
	ID          string              `json:"id"`
	FullName    string              `json:"full_name"`
	Email       string              `json:"email"`
	Initial     string              `json:"initial"`
	BioPreview  string              `json:"bio_preview"`
	Status      string              `json:"status"`
	StatusLabel string              `json:"status_label"`
	JoinedAt    string              `json:"joined_at"`
	Actions     []moderation.Action `json:"actions"`
}

const bioPreviewLen = 50

func noBio(loc derive.Locale) string {
	if loc == derive.Arabic {
		return "لا يوجد وصف"
	}
	return "No bio"
}

func ToUserResponse(u User, rating derive.RatingSummary, loc derive.Locale) UserResponse {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}

	return UserResponse{
		ID:                u.ID,
		FullName:          u.FullName,
		Initial:           derive.Initial(u.FullName, u.Email),
		Bio:               u.Bio,
		Skills:            skills,
		Location:          u.Location,
		TypeOfPartnership: u.TypeOfPartnership,
		AvatarURL:         u.AvatarURL,
		Rating:            rating,
		JoinedAt:          derive.FormatDate(u.CreatedAt, loc),
	}
}

func ToAdminResponse(u User, loc derive.Locale) AdminResponse {
	bio := noBio(loc)
	if u.Bio != "" {
		bio = derive.Truncate(u.Bio, bioPreviewLen)
	}

	return AdminResponse{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		Initial:     derive.Initial(u.FullName, u.Email),
		BioPreview:  bio,
		Status:      u.Status,
		StatusLabel: derive.UserStatusLabel(u.Status, loc),
		JoinedAt:    derive.FormatDate(u.CreatedAt, loc),
		Actions:     moderation.UserPolicy.Actions(u.Status),
	}
}

func ToAdminResponseList(users []User, loc derive.Locale) []AdminResponse {
	out := make([]AdminResponse, 0, len(users))
	for _, u := range users {
		out = append(out, ToAdminResponse(u, loc))
	}
	return out
}
