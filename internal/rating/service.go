// AngelaMos | 2026
// service.go

package rating

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
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

func (s *Service) Rate(
	ctx context.Context,
	raterID string,
	req CreateRatingRequest,
) (*Rating, error) {
	if raterID == "" {
		return nil, fmt.Errorf("rate user: %w", core.ErrUnauthorized)
	}
	if err := core.Validate(s.validator, req); err != nil {
		return nil, err
	}
	if req.RatedUserID == raterID {
		return nil, core.ValidationError("you cannot rate yourself")
	}

	created, err := s.repo.Create(ctx, newRating{
		RaterID:     raterID,
		RatedUserID: req.RatedUserID,
		Score:       req.Score,
		Comment:     req.Comment,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user rated",
		"rated_user_id", req.RatedUserID,
		"score", req.Score,
	)
	return created, nil
}

// Aggregate recomputes the user's rating from every stored score.
func (s *Service) Aggregate(
	ctx context.Context,
	userID string,
) (derive.RatingSummary, error) {
	scores, err := s.repo.Scores(ctx, userID)
	if err != nil {
		return derive.RatingSummary{}, err
	}
	return derive.Aggregate(scores), nil
}
