package detect

import (
	"strings"
	"time"
)

// isoDate is the wire format for calendar dates throughout the engine.
const isoDate = "2006-01-02"

// bareDateTime matches ISO datetimes that carry no zone offset.
const bareDateTime = "2006-01-02T15:04:05"

// DateOf truncates a timestamp to its calendar date, normalized to UTC
// midnight. All per-day maps in the engine are keyed by such values.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseValidTime parses an NWS-style timestamp. It accepts a bare ISO
// datetime, an ISO datetime with an explicit +HH:MM/-HH:MM offset, and either
// of those followed by a slash and a duration token (e.g.
// "2026-01-25T06:00:00+00:00/PT6H"). The calendar date is taken from the
// timestamp's own wall clock, never shifted into UTC.
func ParseValidTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	s := raw
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(bareDateTime, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// weekdayNames maps lowercase day names to time.Weekday values for period-name
// date resolution.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ResolvePeriodDate derives the calendar date of a named forecast period
// ("Tonight", "Saturday Night", ...) relative to the as-of date. Day names
// resolve to the next occurrence of that weekday; a day name matching the
// as-of weekday means one week out, matching how forecast offices label
// periods. Returns false when the name carries no recognizable date.
func ResolvePeriodDate(name string, asOfDate time.Time) (time.Time, bool) {
	n := strings.ToLower(strings.TrimSpace(name))

	for _, today := range []string{"today", "tonight", "this afternoon", "this morning"} {
		if strings.Contains(n, today) {
			return DateOf(asOfDate), true
		}
	}

	for dayName, weekday := range weekdayNames {
		if !strings.Contains(n, dayName) {
			continue
		}
		ahead := int(weekday) - int(asOfDate.Weekday())
		if ahead <= 0 {
			ahead += 7
		}
		return DateOf(asOfDate).AddDate(0, 0, ahead), true
	}

	return time.Time{}, false
}
