// AngelaMos | 2026
// service.go

package partnership

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/sharaka/internal/core"
)

// Service records partnership requests and lists the ones made against a
// user's projects. Accepting or declining a request happens outside this
// service.
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

func (s *Service) Request(
	ctx context.Context,
	partnerID string,
	req CreatePartnershipRequest,
) (*Partnership, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("request partnership: %w", core.ErrUnauthorized)
	}

	req.ProjectID = strings.TrimSpace(req.ProjectID)
	req.Message = strings.TrimSpace(req.Message)
	if err := core.Validate(s.validator, req); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, newPartnership{
		ProjectID: req.ProjectID,
		PartnerID: partnerID,
		Message:   req.Message,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "partnership requested",
		"partnership_id", created.ID,
		"project_id", req.ProjectID,
		"partner_id", partnerID,
	)
	return created, nil
}

// RequestsForOwner lists requests made against any project owned by
// ownerID, newest first.
func (s *Service) RequestsForOwner(
	ctx context.Context,
	ownerID string,
) ([]Partnership, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("list partnership requests: %w", core.ErrUnauthorized)
	}
	return s.repo.ForOwner(ctx, ownerID)
}
