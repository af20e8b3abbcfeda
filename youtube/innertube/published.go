package innertube

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativeTimeRe matches strings like "3 weeks ago" or "1 month ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago$`)

// ParseRelativeTime converts a /search publishedTimeText ("3 weeks ago",
// "Streamed 2 years ago") into an approximate upload time relative to now.
// The result is the newest time consistent with the text, so a later
// earliest-date filter never drops a video that might still be new enough.
// Returns false when the text is not a recognized relative time.
func ParseRelativeTime(s string, now time.Time) (time.Time, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "streamed ")
	s = strings.TrimPrefix(s, "premiered ")

	m := relativeTimeRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return time.Time{}, false
	}

	switch m[2] {
	case "second":
		return now.Add(-time.Duration(n) * time.Second), true
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute), true
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -n), true
	case "week":
		return now.AddDate(0, 0, -7*n), true
	case "month":
		return now.AddDate(0, -n, 0), true
	case "year":
		return now.AddDate(-n, 0, 0), true
	}
	return time.Time{}, false
}
