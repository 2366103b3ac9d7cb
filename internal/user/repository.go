// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, id string, patch map[string]any) error
	List(ctx context.Context, filter schema.UserFilter) ([]User, error)
}

type repository struct {
	backend store.Backend
}

func NewRepository(backend store.Backend) Repository {
	return &repository{backend: backend}
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	var users []User
	if err := r.backend.Select(ctx, schema.UserQuery(id), &users); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if len(users) == 0 {
		return nil, core.NotFoundError("user")
	}
	return &users[0], nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	patch map[string]any,
) error {
	if err := r.backend.Update(ctx, schema.Users, id, patch); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *repository) List(
	ctx context.Context,
	filter schema.UserFilter,
) ([]User, error) {
	var users []User
	if err := r.backend.Select(ctx, schema.UsersQuery(filter), &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	if users == nil {
		users = []User{}
	}
	return users, nil
}
