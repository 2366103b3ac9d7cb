// AngelaMos | 2026
// service.go

package user

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

// Service is the users hook used by the admin console, plus profile reads
// and self-service updates for the marketplace.
type Service struct {
	repo      Repository
	users     *collection.Collection[schema.UserFilter, User]
	moderator *moderation.Moderator[schema.UserFilter, User]
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

	users := collection.New("users", repo.List, logger)

	return &Service{
		repo:      repo,
		users:     users,
		moderator: moderation.NewModerator(moderation.UserPolicy, users, backend, logger),
		validator: core.NewValidator(),
		logger:    logger,
	}
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, core.NotFoundError("user")
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateUser applies the non-nil fields of req to the user's own profile.
// Status is not part of the request; it only changes through moderation.
func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("update user: %w", core.ErrUnauthorized)
	}

	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		req.FullName = &trimmed
	}
	if req.Skills != nil {
		req.Skills = cleanSkills(req.Skills)
	}
	if err := core.Validate(s.validator, req); err != nil {
		return nil, err
	}

	patch := req.patch()
	if len(patch) == 0 {
		return s.repo.GetByID(ctx, id)
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "profile updated", "user_id", id)

	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	filter schema.UserFilter,
) ([]User, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Fetch(
	ctx context.Context,
	filter schema.UserFilter,
) collection.State[User] {
	return s.users.Use(ctx, filter)
}

func (s *Service) Refetch(ctx context.Context) collection.State[User] {
	return s.users.Refetch(ctx)
}

func (s *Service) State() collection.State[User] {
	return s.users.State()
}

func (s *Service) SetStatus(ctx context.Context, id, status string) error {
	return s.moderator.SetStatus(ctx, id, status)
}

// Search filters the cached collection by free text over full name and
// email, and by status.
func (s *Service) Search(query, status string) []User {
	out := []User{}
	for _, u := range s.users.State().Data {
		if derive.MatchesQuery(query, u.FullName, u.Email) &&
			derive.MatchesStatus(u.Status, status) {
			out = append(out, u)
		}
	}
	return out
}

func (s *Service) CountByStatus() map[string]int {
	counts := make(map[string]int, len(moderation.UserPolicy.Statuses))
	for _, status := range moderation.UserPolicy.Statuses {
		counts[status] = 0
	}
	for _, u := range s.users.State().Data {
		counts[u.Status]++
	}
	return counts
}

// Summary loads the console collection when it has not been loaded yet and
// counts it by status. The message is the last load error, if any.
func (s *Service) Summary(ctx context.Context) (map[string]int, string) {
	st := s.users.Use(ctx, schema.UserFilter{})
	return s.CountByStatus(), st.Err
}

// Reload refetches the console collection and returns the load error
// message, if any.
func (s *Service) Reload(ctx context.Context) string {
	return s.users.Refetch(ctx).Err
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
