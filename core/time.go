package core

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// ISODate is the layout of every date column in the paste formats.
const ISODate = "2006-01-02"

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Timestamp layouts accepted in addition to plain ISO dates. Stored
// createdAt values may carry a time part when they came from an export.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses an ISO date or timestamp. All results are UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(ISODate, s); err == nil {
		return t, true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// IsISODateLike requires the strict YYYY-MM-DD shape and a real calendar
// date, so "2025-13-40" is rejected.
func IsISODateLike(s string) bool {
	s = strings.TrimSpace(s)
	if !isoDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(ISODate, s)
	return err == nil
}

// AddDaysISO adds days to a date. Invalid input yields "".
func AddDaysISO(iso string, days int) string {
	t, ok := ParseDate(iso)
	if !ok {
		return ""
	}
	return t.AddDate(0, 0, days).Format(ISODate)
}

// DaysDiff returns the whole days from -> to, floor-rounded.
// ok is false when either side is not a date.
func DaysDiff(from, to string) (days int, ok bool) {
	a, ok := ParseDate(from)
	if !ok {
		return 0, false
	}
	b, ok := ParseDate(to)
	if !ok {
		return 0, false
	}
	return daysBetween(a, b), true
}

// DaysSince is DaysDiff measured against the given day.
func DaysSince(from string, today time.Time) (int, bool) {
	a, ok := ParseDate(from)
	if !ok {
		return 0, false
	}
	return daysBetween(a, StartOfDay(today)), true
}

func daysBetween(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

// StartOfDay truncates t to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar day.
func Today() time.Time { return StartOfDay(time.Now().UTC()) }
