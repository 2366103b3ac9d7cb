// AngelaMos | 2026
// dto.go

package message

import (
	"time"

	"github.com/carterperez-dev/sharaka/internal/derive"
)

type SendMessageRequest struct {
	ReceiverID string  `json:"receiver_id" validate:"required,max=64"`
	Content    string  `json:"content"     validate:"required,max=4000"`
	ProjectID  *string `json:"project_id"  validate:"omitempty,max=64"`
}

type newMessage struct {
	SenderID   string  `json:"sender_id"`
	ReceiverID string  `json:"receiver_id"`
	Content    string  `json:"content"`
	ProjectID  *string `json:"project_id,omitempty"`
}

type MessageResponse struct {
	ID        string `json:"id"`
	SenderID  string `json:"sender_id"`
	Content   string `json:"content"`
	Mine      bool   `json:"mine"`
	TimeSent  string `json:"time_sent"`
	CreatedAt string `json:"created_at"`
}

func ToMessageResponse(m Message, viewerID string, now time.Time, loc derive.Locale) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Mine:      m.SenderID == viewerID,
		TimeSent:  derive.TimeAgo(m.CreatedAt, now, loc),
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func ToMessageResponseList(
	msgs []Message,
	viewerID string,
	now time.Time,
	loc derive.Locale,
) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageResponse(m, viewerID, now, loc))
	}
	return out
}
