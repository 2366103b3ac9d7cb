// AngelaMos | 2026
// repository.go

package rating

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

type Repository interface {
	Create(ctx context.Context, r newRating) (*Rating, error)
	Scores(ctx context.Context, ratedUserID string) ([]float64, error)
}

type repository struct {
	backend store.Backend
}

func NewRepository(backend store.Backend) Repository {
	return &repository{backend: backend}
}

func (r *repository) Create(ctx context.Context, row newRating) (*Rating, error) {
	var created []Rating
	if err := r.backend.Insert(ctx, schema.Ratings, row, &created); err != nil {
		return nil, fmt.Errorf("create rating: %w", err)
	}

	if len(created) == 0 {
		return nil, errors.New("create rating: backend returned no row")
	}
	return &created[0], nil
}

func (r *repository) Scores(ctx context.Context, ratedUserID string) ([]float64, error) {
	var rows []struct {
		Score float64 `json:"score"`
	}
	if err := r.backend.Select(ctx, schema.RatingScoresQuery(ratedUserID), &rows); err != nil {
		return nil, fmt.Errorf("list rating scores: %w", err)
	}

	scores := make([]float64, 0, len(rows))
	for _, row := range rows {
		scores = append(scores, row.Score)
	}
	return scores, nil
}
