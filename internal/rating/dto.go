// AngelaMos | 2026
// dto.go

package rating

type CreateRatingRequest struct {
	RatedUserID string `json:"rated_user_id" validate:"required,max=64"`
	Score       int    `json:"score"         validate:"required,min=1,max=5"`
	Comment     string `json:"comment"       validate:"max=500"`
}

type newRating struct {
	RaterID     string `json:"rater_id"`
	RatedUserID string `json:"rated_user_id"`
	Score       int    `json:"score"`
	Comment     string `json:"comment,omitempty"`
}
