// AngelaMos | 2026
// entity.go

package message

import (
	"time"
)

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	ProjectID  *string   `json:"project_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
