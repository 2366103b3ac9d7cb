// AngelaMos | 2026
// policy.go

package moderation

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/carterperez-dev/sharaka/internal/core"
	"github.com/carterperez-dev/sharaka/internal/schema"
)

const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusCompleted = "completed"
)

// Action is an admin control offered for an item in a given status.
// Delete actions carry no target status.
type Action struct {
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

const ActionDelete = "delete"

// Policy is the status workflow of one moderated entity.
type Policy struct {
	Entity    schema.Entity
	Statuses  []string
	Deletable bool

	actions []Action
	allow   func(from, to string) bool
}

// UserPolicy lets an admin activate any user that is not active and
// suspend any user that is not suspended. Users are never deleted here.
var UserPolicy = Policy{
	Entity:   schema.Users,
	Statuses: []string{StatusPending, StatusActive, StatusSuspended},
	actions: []Action{
		{Name: "activate", Status: StatusActive},
		{Name: "suspend", Status: StatusSuspended},
	},
	allow: func(from, to string) bool {
		return (to == StatusActive || to == StatusSuspended) && from != to
	},
}

// ProjectPolicy only moves pending projects, to active (approve) or to
// suspended (reject). Projects may be deleted in any status.
var ProjectPolicy = Policy{
	Entity:    schema.Projects,
	Statuses:  []string{StatusPending, StatusActive, StatusCompleted, StatusSuspended},
	Deletable: true,
	actions: []Action{
		{Name: "approve", Status: StatusActive},
		{Name: "reject", Status: StatusSuspended},
	},
	allow: func(from, to string) bool {
		return from == StatusPending && (to == StatusActive || to == StatusSuspended)
	},
}

func (p Policy) Known(status string) bool {
	return slices.Contains(p.Statuses, status)
}

func (p Policy) CanTransition(from, to string) bool {
	return p.Known(to) && p.allow(from, to)
}

// Check explains why from -> to is refused, or returns nil.
func (p Policy) Check(from, to string) error {
	if !p.Known(to) {
		return core.ValidationError(fmt.Sprintf("unknown %s status %q", p.noun(), to))
	}
	if !p.allow(from, to) {
		return core.NewAppError(
			"INVALID_TRANSITION",
			fmt.Sprintf("cannot change %s status from %s to %s", p.noun(), from, to),
			http.StatusConflict,
			core.ErrInvalidInput,
		)
	}
	return nil
}

// Actions lists the controls an admin sees for an item in status.
func (p Policy) Actions(status string) []Action {
	out := make([]Action, 0, len(p.actions)+1)
	for _, a := range p.actions {
		if p.allow(status, a.Status) {
			out = append(out, a)
		}
	}
	if p.Deletable {
		out = append(out, Action{Name: ActionDelete})
	}
	return out
}

func (p Policy) noun() string {
	switch p.Entity {
	case schema.Users:
		return "user"
	case schema.Projects:
		return "project"
	default:
		return string(p.Entity)
	}
}
