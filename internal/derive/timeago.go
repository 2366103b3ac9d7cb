// AngelaMos | 2026
// timeago.go

package derive

import (
	"fmt"
	"strings"
	"time"
)

type Locale string

const (
	English Locale = "en"
	Arabic  Locale = "ar"
)

// ParseLocale maps a configured locale tag to a supported Locale. Anything
// that is not Arabic falls back to English.
func ParseLocale(tag string) Locale {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == string(Arabic) || strings.HasPrefix(tag, "ar-") || strings.HasPrefix(tag, "ar_") {
		return Arabic
	}
	return English
}

const (
	minute = 60
	hour   = 60 * minute
	day    = 24 * hour
	week   = 7 * day
	month  = 30 * day
)

type unit int

const (
	unitMinute unit = iota
	unitHour
	unitDay
	unitWeek
	unitMonth
)

var englishUnits = map[unit][2]string{
	unitMinute: {"minute", "minutes"},
	unitHour:   {"hour", "hours"},
	unitDay:    {"day", "days"},
	unitWeek:   {"week", "weeks"},
	unitMonth:  {"month", "months"},
}

var arabicUnits = map[unit]string{
	unitMinute: "دقيقة",
	unitHour:   "ساعة",
	unitDay:    "يوم",
	unitWeek:   "أسبوع",
	unitMonth:  "شهر",
}

// TimeAgo renders how long before now t happened, in whole units. Each
// bucket's count is the elapsed seconds divided by that bucket's unit,
// rounded down. Times in the future read as just now.
func TimeAgo(t, now time.Time, loc Locale) string {
	secs := int64(now.Sub(t) / time.Second)

	var (
		n int64
		u unit
	)
	switch {
	case secs < minute:
		return justNow(loc)
	case secs < hour:
		n, u = secs/minute, unitMinute
	case secs < day:
		n, u = secs/hour, unitHour
	case secs < week:
		n, u = secs/day, unitDay
	case secs < month:
		n, u = secs/week, unitWeek
	default:
		n, u = secs/month, unitMonth
	}

	if loc == Arabic {
		return fmt.Sprintf("منذ %d %s", n, arabicUnits[u])
	}

	forms := englishUnits[u]
	word := forms[1]
	if n == 1 {
		word = forms[0]
	}
	return fmt.Sprintf("%d %s ago", n, word)
}

// TimeAgoString parses an RFC 3339 timestamp as the backend returns it.
// Unparseable input yields an empty string.
func TimeAgoString(ts string, now time.Time, loc Locale) string {
	t, err := ParseTime(ts)
	if err != nil {
		return ""
	}
	return TimeAgo(t, now, loc)
}

func justNow(loc Locale) string {
	if loc == Arabic {
		return "منذ لحظات"
	}
	return "moments ago"
}

// ParseTime accepts the timestamp shapes the backend emits: RFC 3339 with
// or without fractional seconds, and Postgres' space separated form.
func ParseTime(ts string) (time.Time, error) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05.999999-07",
		"2006-01-02 15:04:05.999999-07:00",
	}

	var err error
	for _, layout := range layouts {
		var t time.Time
		if t, err = time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
}

// FormatDate renders a calendar date for list views, e.g. "Mar 1, 2026".
func FormatDate(t time.Time, loc Locale) string {
	if loc == Arabic {
		return fmt.Sprintf("%d %s %d", t.Day(), arabicMonths[t.Month()-1], t.Year())
	}
	return t.Format("Jan 2, 2006")
}

var arabicMonths = [12]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}
