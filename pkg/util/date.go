package util

import (
	"strconv"
	"time"
)

// ISODateFormat is the YYYY-MM-DD layout used in asset codes and cache keys.
const ISODateFormat = "2006-01-02"

// ParseTime tries RFC3339, plain ISO date, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(ISODateFormat, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ISODate formats t as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(ISODateFormat)
}

// StartOfDay truncates t to midnight.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay moves t to the last millisecond of its day.
func EndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999e6, t.Location())
}

// FirstOfMonth returns the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// LastOfMonth returns the last day of t's month.
func LastOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// DatesRange returns every calendar day from start to end inclusive.
func DatesRange(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := StartOfDay(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// BusinessDaysRange returns every weekday from start to end inclusive.
func BusinessDaysRange(start, end time.Time) []time.Time {
	var dates []time.Time
	for _, d := range DatesRange(start, end) {
		if !IsWeekend(d) {
			dates = append(dates, d)
		}
	}
	return dates
}

// BusinessDaysInYear counts the weekdays of a calendar year.
func BusinessDaysInYear(year int) int {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return len(BusinessDaysRange(start, end))
}

// SplitDateRanges chunks [start, end] into consecutive sub-ranges no longer
// than maxYears each, the next range starting 1ms after the previous end.
// Used to respect upstream per-request date-span limits.
func SplitDateRanges(start, end time.Time, maxYears int) [][2]time.Time {
	maxSpan := time.Duration(maxYears) * 365 * 24 * time.Hour

	if end.Sub(start) <= maxSpan {
		return [][2]time.Time{{start, end}}
	}

	var ranges [][2]time.Time
	cur := start
	for cur.Before(end) {
		next := cur.Add(maxSpan)
		if next.After(end) {
			next = end
		}
		ranges = append(ranges, [2]time.Time{cur, next})
		cur = next.Add(time.Millisecond)
	}
	return ranges
}

// LogicalDay derives the cache bucket id for now: the ISO date of now in UTC
// shifted back offsetHours. Cached upstream results keyed on it expire
// naturally when the bucket rolls over, without a background sweep.
func LogicalDay(now time.Time, offsetHours int) string {
	return ISODate(now.UTC().Add(-time.Duration(offsetHours) * time.Hour))
}
