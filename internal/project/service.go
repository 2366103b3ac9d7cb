// AngelaMos | 2026
// service.go

package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/sharaka/internal/collection"
	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/derive"
	"github.com/carterperez-dev/sharaka/internal/moderation"
	"github.com/carterperez-dev/sharaka/internal/schema"
	"github.com/carterperez-dev/sharaka/internal/store"
)

// Service is the projects hook: a cached collection of projects for the
// current filter, plus the create and moderation actions that act on it.
type Service struct {
	repo      Repository
	projects  *collection.Collection[schema.ProjectFilter, Project]
	moderator *moderation.Moderator[schema.ProjectFilter, Project]
	validator *validator.Validate
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	backend store.Backend,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	projects := collection.New("projects", repo.List, logger)

	return &Service{
		repo:      repo,
		projects:  projects,
		moderator: moderation.NewModerator(moderation.ProjectPolicy, projects, backend, logger),
		validator: core.NewValidator(),
		logger:    logger,
	}
}

// Fetch returns the collection for filter, loading it when the filter
// differs from the last one used.
func (s *Service) Fetch(
	ctx context.Context,
	filter schema.ProjectFilter,
) collection.State[Project] {
	return s.projects.Use(ctx, filter)
}

func (s *Service) Refetch(ctx context.Context) collection.State[Project] {
	return s.projects.Refetch(ctx)
}

func (s *Service) State() collection.State[Project] {
	return s.projects.State()
}

// List reads projects for filter without touching the cached collection.
// Concurrent marketplace requests with different filters use this.
func (s *Service) List(
	ctx context.Context,
	filter schema.ProjectFilter,
) ([]Project, error) {
	return s.repo.List(ctx, filter)
}

// CreateProject inserts a project owned by ownerID and marks the console
// collection out of date, so the next admin read reloads it under the
// admin's own token and sees the backend-assigned fields. Nothing is
// inserted locally ahead of the backend; a failed insert leaves the
// collection as it was.
func (s *Service) CreateProject(
	ctx context.Context,
	ownerID string,
	req CreateProjectRequest,
) (*Project, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("create project: %w", core.ErrUnauthorized)
	}

	req.Title = strings.TrimSpace(req.Title)
	req.City = strings.TrimSpace(req.City)
	if err := core.Validate(s.validator, req); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, newProject{
		Title:                 req.Title,
		Description:           req.Description,
		Category:              req.Category,
		Stage:                 req.Stage,
		City:                  req.City,
		NeededSkills:          cleanSkills(req.NeededSkills),
		PartnershipPercentage: req.PartnershipPercentage,
		OwnerID:               ownerID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "project created",
		"project_id", created.ID,
		"owner_id", ownerID,
	)

	s.projects.Invalidate()

	return created, nil
}

func (s *Service) SetStatus(ctx context.Context, id, status string) error {
	return s.moderator.SetStatus(ctx, id, status)
}

func (s *Service) Delete(
	ctx context.Context,
	id string,
	confirm moderation.Confirmer,
) (bool, error) {
	return s.moderator.Delete(ctx, id, confirm)
}

// Search filters the cached collection by free text over title and
// description, and by status.
func (s *Service) Search(query, status string) []Project {
	var out []Project
	for _, p := range s.projects.State().Data {
		if derive.MatchesQuery(query, p.Title, p.Description) &&
			derive.MatchesStatus(p.Status, status) {
			out = append(out, p)
		}
	}
	if out == nil {
		out = []Project{}
	}
	return out
}

// CountByStatus tallies the cached collection by status.
func (s *Service) CountByStatus() map[string]int {
	counts := make(map[string]int, len(moderation.ProjectPolicy.Statuses))
	for _, status := range moderation.ProjectPolicy.Statuses {
		counts[status] = 0
	}
	for _, p := range s.projects.State().Data {
		counts[p.Status]++
	}
	return counts
}

// Summary loads the console collection when it has not been loaded yet and
// counts it by status. The message is the last load error, if any.
func (s *Service) Summary(ctx context.Context) (map[string]int, string) {
	st := s.projects.Use(ctx, schema.ProjectFilter{})
	return s.CountByStatus(), st.Err
}

// Reload refetches the console collection and returns the load error
// message, if any.
func (s *Service) Reload(ctx context.Context) string {
	return s.projects.Refetch(ctx).Err
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
