package claudeexport

import (
	"strings"
	"time"
)

// now is swapped out in tests
var now = time.Now

// Layouts tried in order. Zoned layouts come first; the rest are naive and
// interpreted in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp converts an ISO-8601 timestamp to Unix milliseconds.
// Timestamps are best effort: anything unparseable yields the current time.
func ParseTimestamp(ts string) int64 {
	t, ok := parseTime(ts)
	if !ok {
		return now().UnixMilli()
	}
	return t.UnixMilli()
}

// ParseTime is ParseTimestamp without the fallback
func ParseTime(ts string) (time.Time, bool) {
	return parseTime(ts)
}

func parseTime(ts string) (time.Time, bool) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, ts, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
