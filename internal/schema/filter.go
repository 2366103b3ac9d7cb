// AngelaMos | 2026
// filter.go

package schema

import (
	"sort"
	"strings"
)

// ProjectFilter is the set of filters the marketplace and console can
// apply to the projects collection. Category, Stage, Status and OwnerID are
// exact matches; City is a case-insensitive substring match. Empty fields
// do not filter.
type ProjectFilter struct {
	Category string
	Stage    string
	City     string
	Status   string
	OwnerID  string
}

const (
	KeyCategory = "category"
	KeyStage    = "stage"
	KeyCity     = "city"
	KeyStatus   = "status"
	KeyOwnerID  = "owner_id"
)

func (f ProjectFilter) Filters() []Filter {
	var out []Filter
	if f.Category != "" {
		out = append(out, Eq(KeyCategory, f.Category))
	}
	if f.Stage != "" {
		out = append(out, Eq(KeyStage, f.Stage))
	}
	if f.City != "" {
		out = append(out, ILike(KeyCity, f.City))
	}
	if f.Status != "" {
		out = append(out, Eq(KeyStatus, f.Status))
	}
	if f.OwnerID != "" {
		out = append(out, Eq(KeyOwnerID, f.OwnerID))
	}
	return out
}

// ParseProjectFilter reads recognized keys from values. Keys it does not
// recognize are returned, sorted, rather than treated as an error.
func ParseProjectFilter(values map[string]string) (ProjectFilter, []string) {
	var f ProjectFilter
	var unknown []string

	for key, raw := range values {
		v := strings.TrimSpace(raw)
		switch key {
		case KeyCategory:
			f.Category = v
		case KeyStage:
			f.Stage = v
		case KeyCity:
			f.City = v
		case KeyStatus:
			f.Status = v
		case KeyOwnerID:
			f.OwnerID = v
		default:
			unknown = append(unknown, key)
		}
	}

	sort.Strings(unknown)
	return f, unknown
}

// UserFilter narrows the users collection by exact status.
type UserFilter struct {
	Status string
}

func (f UserFilter) Filters() []Filter {
	if f.Status == "" {
		return nil
	}
	return []Filter{Eq(KeyStatus, f.Status)}
}

func ParseUserFilter(values map[string]string) (UserFilter, []string) {
	var f UserFilter
	var unknown []string

	for key, raw := range values {
		switch key {
		case KeyStatus:
			f.Status = strings.TrimSpace(raw)
		default:
			unknown = append(unknown, key)
		}
	}

	sort.Strings(unknown)
	return f, unknown
}
