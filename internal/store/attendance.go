package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calebhs/koinonia/internal/model"
)

type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

func scanAttendance(scanner interface{ Scan(...any) error }) (*model.Attendance, error) {
	var a model.Attendance
	err := scanner.Scan(&a.ID, &a.EventID, &a.MemberID, &a.OccurredOn, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const attendanceCols = `id, event_id, member_id, occurred_on, created_at`

// CheckIn records attendance for one occurrence date. The unique index on
// (event_id, member_id, occurred_on) rejects a second check-in for the
// same occurrence with ErrDuplicate.
func (s *AttendanceStore) CheckIn(eventID, memberID int64, occurredOn time.Time) (*model.Attendance, error) {
	result, err := s.db.Exec(
		`INSERT INTO event_attendance (event_id, member_id, occurred_on) VALUES (?, ?, ?)`,
		eventID, memberID, occurredOn.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert attendance: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+attendanceCols+` FROM event_attendance WHERE id = ?`, id)
	return scanAttendance(row)
}

func (s *AttendanceStore) ListByEvent(eventID int64, occurredOn time.Time) ([]model.Attendance, error) {
	rows, err := s.db.Query(
		`SELECT `+attendanceCols+` FROM event_attendance WHERE event_id = ? AND occurred_on = ? ORDER BY created_at ASC`,
		eventID, occurredOn.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var records []model.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, *a)
	}
	return records, rows.Err()
}

func (s *AttendanceStore) CountByMember(memberID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM event_attendance WHERE member_id = ?`, memberID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return n, nil
}
