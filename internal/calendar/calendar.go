// Package calendar holds the date-only arithmetic shared by the agenda,
// plan, and push packages. Every function is pure and total: "today" is
// always an explicit parameter, never read from the system clock.
package calendar

import "time"

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextWeekday returns the first date on or after from that falls on wd,
// at midnight in from's location. If from already falls on wd, the result
// is from's own date: today counts.
func NextWeekday(from time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(from.Weekday()) + 7) % 7
	return StartOfDay(from).AddDate(0, 0, offset)
}

// DaysBetween returns the whole-day difference from a to b, comparing only
// the calendar date of each value in its own location. Positive when b is
// after a.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar date, each in
// its own location.
func SameDay(a, b time.Time) bool {
	return DaysBetween(a, b) == 0
}

// DayLabel renders d relative to today the way agenda rows are labeled:
// "Today", "Tomorrow", a weekday name within the coming week, or a short
// date beyond that. Dates in the past fall through to the short form.
func DayLabel(d, today time.Time) string {
	switch diff := DaysBetween(today, d); {
	case diff == 0:
		return "Today"
	case diff == 1:
		return "Tomorrow"
	case diff > 1 && diff < 7:
		return d.Weekday().String()
	default:
		return d.Format("Jan 2")
	}
}
