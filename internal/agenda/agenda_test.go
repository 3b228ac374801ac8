package agenda

import (
	"errors"
	"testing"
	"time"

	"github.com/calebhs/koinonia/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func oneShot(id int64, d time.Time, start string) model.EventDefinition {
	return model.EventDefinition{
		ID:        id,
		Title:     "Youth Night",
		Category:  model.CategoryOther,
		Date:      d,
		StartTime: start,
	}
}

func weekly(id int64, wd int, end *time.Time) model.EventDefinition {
	return model.EventDefinition{
		ID:        id,
		Title:     "Sunday Service",
		Category:  model.CategoryService,
		Recurring: true,
		Weekday:   wd,
		EndDate:   end,
		StartTime: "10:00",
		CreatedAt: date(2023, 1, 1),
	}
}

func TestResolveOneShotUpcoming(t *testing.T) {
	def := oneShot(1, date(2024, 6, 20), "19:00")
	occ, err := Resolve(&def, date(2024, 6, 15))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if occ == nil {
		t.Fatal("expected occurrence, got nil")
	}
	if !occ.Date.Equal(date(2024, 6, 20)) {
		t.Errorf("date = %v, want 2024-06-20", occ.Date)
	}
	if occ.IsVirtual {
		t.Error("one-shot occurrence should not be virtual")
	}
}

func TestResolveOneShotBoundaryInclusive(t *testing.T) {
	def := oneShot(1, date(2024, 6, 15), "19:00")

	occ, err := Resolve(&def, date(2024, 6, 15))
	if err != nil {
		t.Fatalf("resolve on event date: %v", err)
	}
	if occ == nil {
		t.Fatal("event on today's date should still resolve")
	}
	if occ.DayLabel != "Today" {
		t.Errorf("day label = %q, want Today", occ.DayLabel)
	}

	occ, err = Resolve(&def, date(2024, 6, 16))
	if err != nil {
		t.Fatalf("resolve one day later: %v", err)
	}
	if occ != nil {
		t.Errorf("past one-shot should resolve to nil, got %v", occ.Date)
	}
}

func TestResolveRecurringNextSlot(t *testing.T) {
	// Sunday recurrence resolved on a Saturday lands on the next day.
	def := weekly(1, 0, nil)
	occ, err := Resolve(&def, date(2024, 6, 15))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if occ == nil {
		t.Fatal("expected occurrence")
	}
	if !occ.Date.Equal(date(2024, 6, 16)) {
		t.Errorf("date = %v, want 2024-06-16", occ.Date)
	}
	if occ.Date.Weekday() != time.Sunday {
		t.Errorf("weekday = %v, want Sunday", occ.Date.Weekday())
	}
	if !occ.IsVirtual {
		t.Error("recurring occurrence should be virtual")
	}
}

func TestResolveRecurringTodayCounts(t *testing.T) {
	def := weekly(1, 0, nil)
	occ, err := Resolve(&def, date(2024, 6, 16)) // a Sunday
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if occ == nil || !occ.Date.Equal(date(2024, 6, 16)) {
		t.Fatalf("expected occurrence today, got %+v", occ)
	}
}

func TestResolveRecurringEnded(t *testing.T) {
	end := date(2024, 1, 10)
	def := weekly(1, 3, &end) // Wednesdays until Jan 10
	occ, err := Resolve(&def, date(2024, 1, 12))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if occ != nil {
		t.Errorf("ended recurrence should resolve to nil, got %v", occ.Date)
	}
}

func TestResolveRecurringNextSlotPastEndDate(t *testing.T) {
	// End date is still in the future, but the next Wednesday falls after it.
	end := date(2024, 6, 17) // a Monday
	def := weekly(1, 3, &end)
	occ, err := Resolve(&def, date(2024, 6, 15)) // Saturday; next Wed is the 19th
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if occ != nil {
		t.Errorf("expected nil when next slot passes expiry, got %v", occ.Date)
	}
}

func TestResolveUnboundedNeverNil(t *testing.T) {
	def := weekly(1, 0, nil)
	for d := date(2024, 1, 1); d.Before(date(2024, 3, 1)); d = d.AddDate(0, 0, 1) {
		occ, err := Resolve(&def, d)
		if err != nil {
			t.Fatalf("resolve at %v: %v", d, err)
		}
		if occ == nil {
			t.Fatalf("unbounded recurrence resolved to nil at %v", d)
		}
		if occ.Date.Weekday() != time.Sunday {
			t.Fatalf("occurrence at %v falls on %v", occ.Date, occ.Date.Weekday())
		}
	}
}

func TestResolveInvalidWeekday(t *testing.T) {
	def := weekly(1, 7, nil)
	_, err := Resolve(&def, date(2024, 6, 15))
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("err = %v, want ErrInvalidDefinition", err)
	}
}

func TestResolveEndDateBeforeFirstOccurrence(t *testing.T) {
	def := weekly(1, 0, nil)
	def.CreatedAt = date(2024, 6, 10) // a Monday; first Sunday is the 16th
	end := date(2024, 6, 12)
	def.EndDate = &end
	_, err := Resolve(&def, date(2024, 6, 11))
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("err = %v, want ErrInvalidDefinition", err)
	}
}

func TestProjectSortsByDateThenStartTime(t *testing.T) {
	defs := []model.EventDefinition{
		oneShot(1, date(2024, 6, 20), "19:00"),
		weekly(2, 0, nil),                     // resolves to 2024-06-16
		oneShot(3, date(2024, 6, 16), "08:30"),
		oneShot(4, date(2024, 6, 16), "18:00"),
	}

	p := Project(defs, date(2024, 6, 15))
	if len(p.Occurrences) != 4 {
		t.Fatalf("got %d occurrences, want 4", len(p.Occurrences))
	}

	wantOrder := []int64{3, 2, 4, 1} // 08:30, 10:00, 18:00 on the 16th, then the 20th
	for i, want := range wantOrder {
		if got := p.Occurrences[i].Event.ID; got != want {
			t.Errorf("occurrence[%d] = event %d, want %d", i, got, want)
		}
	}

	for i := 1; i < len(p.Occurrences); i++ {
		prev, cur := p.Occurrences[i-1], p.Occurrences[i]
		if cur.Date.Before(prev.Date) {
			t.Errorf("occurrences out of date order at %d", i)
		}
	}
}

func TestProjectSkipsInvalidDefinitions(t *testing.T) {
	defs := []model.EventDefinition{
		weekly(1, 9, nil), // malformed weekday
		oneShot(2, date(2024, 6, 20), "19:00"),
	}

	p := Project(defs, date(2024, 6, 15))
	if len(p.Occurrences) != 1 || p.Occurrences[0].Event.ID != 2 {
		t.Fatalf("expected only event 2 to survive, got %+v", p.Occurrences)
	}
	if len(p.SkippedIDs) != 1 || p.SkippedIDs[0] != 1 {
		t.Errorf("skipped = %v, want [1]", p.SkippedIDs)
	}
}

func TestProjectDropsExpired(t *testing.T) {
	end := date(2024, 1, 10)
	defs := []model.EventDefinition{
		oneShot(1, date(2024, 1, 5), "19:00"),
		weekly(2, 3, &end),
	}
	p := Project(defs, date(2024, 6, 15))
	if len(p.Occurrences) != 0 {
		t.Errorf("expected empty projection, got %d occurrences", len(p.Occurrences))
	}
	if len(p.SkippedIDs) != 0 {
		t.Errorf("expired definitions are not skips, got %v", p.SkippedIDs)
	}
}

func TestProjectEmptyInput(t *testing.T) {
	p := Project(nil, date(2024, 6, 15))
	if len(p.Occurrences) != 0 || len(p.SkippedIDs) != 0 {
		t.Errorf("empty input should yield empty projection, got %+v", p)
	}
}
