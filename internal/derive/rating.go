// AngelaMos | 2026
// rating.go

package derive

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// Aggregate averages scores. An empty input is a zero summary, never NaN.
func Aggregate(scores []float64) RatingSummary {
	if len(scores) == 0 {
		return RatingSummary{}
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}

	return RatingSummary{
		Average: sum / float64(len(scores)),
		Count:   len(scores),
	}
}

func Percentage(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d%%", int64(n))
	}
	return fmt.Sprintf("%g%%", n)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// Initial is the single upper-case letter shown in an avatar placeholder:
// the first letter of the name, else of the email, else "U".
func Initial(name, email string) string {
	for _, s := range []string{name, email} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		return strings.ToUpper(string(r))
	}
	return "U"
}
