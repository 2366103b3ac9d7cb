// AngelaMos | 2026
// repository.go

package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

type Repository interface {
	List(ctx context.Context, filter schema.ProjectFilter) ([]Project, error)
	Create(ctx context.Context, p newProject) (*Project, error)
}

type repository struct {
	backend store.Backend
}

func NewRepository(backend store.Backend) Repository {
	return &repository{backend: backend}
}

func (r *repository) List(
	ctx context.Context,
	filter schema.ProjectFilter,
) ([]Project, error) {
	var projects []Project
	if err := r.backend.Select(ctx, schema.ProjectsQuery(filter), &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	if projects == nil {
		projects = []Project{}
	}
	return projects, nil
}

func (r *repository) Create(ctx context.Context, p newProject) (*Project, error) {
	var created []Project
	if err := r.backend.Insert(ctx, schema.Projects, p, &created); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	if len(created) == 0 {
		return nil, errors.New("create project: backend returned no row")
	}
	return &created[0], nil
}
