// AngelaMos | 2026
// service.go

package message

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/sharaka/internal/core"
)

type Service struct {
	repo      Repository
	validator *validator.Validate
	logger    *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		validator: core.NewValidator(),
		logger:    logger,
	}
}

// Thread returns the conversation between a and b in both directions,
// oldest first.
func (s *Service) Thread(ctx context.Context, a, b string) ([]Message, error) {
	if a == "" {
		return nil, fmt.Errorf("read thread: %w", core.ErrUnauthorized)
	}
	if b == "" {
		return nil, core.ValidationError("peer is required")
	}
	return s.repo.Thread(ctx, a, b)
}

func (s *Service) Send(
	ctx context.Context,
	senderID string,
	req SendMessageRequest,
) (*Message, error) {
	if senderID == "" {
		return nil, fmt.Errorf("send message: %w", core.ErrUnauthorized)
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := core.Validate(s.validator, req); err != nil {
		return nil, err
	}
	if req.ReceiverID == senderID {
		return nil, core.ValidationError("you cannot message yourself")
	}

	sent, err := s.repo.Create(ctx, newMessage{
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    req.Content,
		ProjectID:  req.ProjectID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "message sent",
		"message_id", sent.ID,
		"receiver_id", req.ReceiverID,
	)
	return sent, nil
}
