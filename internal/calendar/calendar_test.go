package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStartOfDay(t *testing.T) {
	in := time.Date(2024, 6, 15, 18, 45, 12, 999, time.UTC)
	got := StartOfDay(in)
	want := date(2024, 6, 15)
	if !got.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", got, want)
	}
}

func TestStartOfDayKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	in := time.Date(2024, 6, 15, 23, 30, 0, 0, loc)
	got := StartOfDay(in)
	if got.Location() != loc {
		t.Errorf("location = %v, want %v", got.Location(), loc)
	}
	if got.Day() != 15 || got.Hour() != 0 {
		t.Errorf("got %v, want midnight on the 15th", got)
	}
}

func TestNextWeekday(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		wd   time.Weekday
		want time.Time
	}{
		{"same day counts", date(2024, 6, 16), time.Sunday, date(2024, 6, 16)},
		{"saturday to sunday", date(2024, 6, 15), time.Sunday, date(2024, 6, 16)},
		{"sunday to saturday", date(2024, 6, 16), time.Saturday, date(2024, 6, 22)},
		{"mid week forward", date(2024, 1, 8), time.Wednesday, date(2024, 1, 10)},
		{"wraps month boundary", date(2024, 1, 30), time.Monday, date(2024, 2, 5)},
		{"time of day ignored", time.Date(2024, 6, 16, 23, 59, 0, 0, time.UTC), time.Sunday, date(2024, 6, 16)},
	}

	for _, tt := range tests {
		got := NextWeekday(tt.from, tt.wd)
		if !got.Equal(tt.want) {
			t.Errorf("%s: NextWeekday(%v, %v) = %v, want %v", tt.name, tt.from, tt.wd, got, tt.want)
		}
		if got.Weekday() != tt.wd {
			t.Errorf("%s: result weekday = %v, want %v", tt.name, got.Weekday(), tt.wd)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b time.Time
		want int
	}{
		{date(2024, 6, 1), date(2024, 6, 1), 0},
		{date(2024, 6, 1), date(2024, 6, 3), 2},
		{date(2024, 6, 3), date(2024, 6, 1), -2},
		{date(2024, 2, 28), date(2024, 3, 1), 2},  // leap year
		{date(2023, 2, 28), date(2023, 3, 1), 1},  // non-leap
		{date(2023, 12, 31), date(2024, 1, 1), 1}, // year boundary
	}

	for _, tt := range tests {
		if got := DaysBetween(tt.a, tt.b); got != tt.want {
			t.Errorf("DaysBetween(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	b := time.Date(2024, 6, 2, 0, 1, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 1 {
		t.Errorf("DaysBetween = %d, want 1", got)
	}
}

func TestDaysBetweenCrossesZones(t *testing.T) {
	// Same instant, different wall-clock dates: the comparison is date-only
	// in each value's own location.
	east := time.FixedZone("UTC+9", 9*3600)
	a := time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)
	b := a.In(east) // June 2 at 05:00 in UTC+9
	if got := DaysBetween(a, b); got != 1 {
		t.Errorf("DaysBetween = %d, want 1", got)
	}
}

func TestDayLabel(t *testing.T) {
	today := date(2024, 6, 15) // a Saturday

	tests := []struct {
		d    time.Time
		want string
	}{
		{date(2024, 6, 15), "Today"},
		{date(2024, 6, 16), "Tomorrow"},
		{date(2024, 6, 18), "Tuesday"},
		{date(2024, 6, 21), "Friday"},
		{date(2024, 6, 22), "Jun 22"},
		{date(2024, 6, 10), "Jun 10"},
	}

	for _, tt := range tests {
		if got := DayLabel(tt.d, today); got != tt.want {
			t.Errorf("DayLabel(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
