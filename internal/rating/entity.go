// AngelaMos | 2026
// entity.go

package rating

import (
	"time"
)

type Rating struct {
	ID          string    `json:"id"`
	RaterID     string    `json:"rater_id"`
	RatedUserID string    `json:"rated_user_id"`
	Score       float64   `json:"score"`
	Comment     string    `json:"comment,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
