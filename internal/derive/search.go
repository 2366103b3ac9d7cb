// AngelaMos | 2026
// search.go

package derive

import (
	"strings"

	"golang.org/x/text/cases"
)

// StatusAll is the filter sentinel that matches every status.
const StatusAll = "all"

// MatchesQuery reports whether query occurs in any of fields, comparing
// under Unicode case folding. An empty query matches everything.
func MatchesQuery(query string, fields ...string) bool {
	if query == "" {
		return true
	}

	fold := cases.Fold()
	needle := fold.String(query)
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}

func MatchesStatus(status, filter string) bool {
	return filter == "" || filter == StatusAll || status == filter
}
