package store

import (
	"errors"
	"testing"
	"time"

	"github.com/calebhs/koinonia/internal/database"
	"github.com/calebhs/koinonia/internal/model"
)

func setupAttendanceTestDB(t *testing.T) (*AttendanceStore, *EventStore, *MemberStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAttendanceStore(db), NewEventStore(db), NewMemberStore(db)
}

func TestCheckInOncePerOccurrence(t *testing.T) {
	as, es, ms := setupAttendanceTestDB(t)

	m, _ := ms.Create("amy@example.com", "Amy", "secret123")
	ev, err := es.Create(&model.EventDefinition{
		Title: "Sunday Service", Category: model.CategoryService,
		Recurring: true, Weekday: 0, StartTime: "10:00",
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := as.CheckIn(ev.ID, m.ID, sunday); err != nil {
		t.Fatalf("check in: %v", err)
	}

	_, err = as.CheckIn(ev.ID, m.ID, sunday)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("second check-in err = %v, want ErrDuplicate", err)
	}

	// Next week's occurrence is a different row.
	if _, err := as.CheckIn(ev.ID, m.ID, sunday.AddDate(0, 0, 7)); err != nil {
		t.Fatalf("next-week check-in: %v", err)
	}

	n, err := as.CountByMember(m.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestListByEvent(t *testing.T) {
	as, es, ms := setupAttendanceTestDB(t)

	amy, _ := ms.Create("amy@example.com", "Amy", "secret123")
	ben, _ := ms.Create("ben@example.com", "Ben", "secret123")
	ev, _ := es.Create(&model.EventDefinition{
		Title: "Bible Study", Category: model.CategoryStudy,
		Recurring: true, Weekday: 3, StartTime: "18:30",
	})

	wed := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	as.CheckIn(ev.ID, amy.ID, wed)
	as.CheckIn(ev.ID, ben.ID, wed)
	as.CheckIn(ev.ID, amy.ID, wed.AddDate(0, 0, 7))

	records, err := as.ListByEvent(ev.ID, wed)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records for the occurrence, want 2", len(records))
	}
}
