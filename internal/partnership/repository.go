// AngelaMos | 2026
// repository.go

package partnership

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

type Repository interface {
	Create(ctx context.Context, p newPartnership) (*Partnership, error)
	ForOwner(ctx context.Context, ownerID string) ([]Partnership, error)
}

type repository struct {
	backend store.Backend
}

func NewRepository(backend store.Backend) Repository {
	return &repository{backend: backend}
}

func (r *repository) Create(ctx context.Context, p newPartnership) (*Partnership, error) {
	var created []Partnership
	if err := r.backend.Insert(ctx, schema.Partnerships, p, &created); err != nil {
		return nil, fmt.Errorf("create partnership: %w", err)
	}

	if len(created) == 0 {
		return nil, errors.New("create partnership: backend returned no row")
	}
	return &created[0], nil
}

func (r *repository) ForOwner(ctx context.Context, ownerID string) ([]Partnership, error) {
	var rows []Partnership
	q := schema.PartnershipRequestsQuery(ownerID)
	if err := r.backend.Select(ctx, q, &rows); err != nil {
		return nil, fmt.Errorf("list partnership requests: %w", err)
	}

	if rows == nil {
		rows = []Partnership{}
	}
	return rows, nil
}
