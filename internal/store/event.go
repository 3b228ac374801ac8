package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calebhs/koinonia/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.EventDefinition, error) {
	var e model.EventDefinition
	var lat, lng sql.NullFloat64
	var recurring int
	var date, endDate sql.NullTime
	var createdBy sql.NullInt64

	err := scanner.Scan(
		&e.ID, &e.Title, &e.Description, &e.Category, &e.Location, &lat, &lng,
		&recurring, &date, &e.Weekday, &endDate, &e.StartTime, &e.EndTime,
		&createdBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Recurring = recurring != 0
	if lat.Valid {
		e.Latitude = &lat.Float64
	}
	if lng.Valid {
		e.Longitude = &lng.Float64
	}
	if date.Valid {
		e.Date = date.Time
	}
	if endDate.Valid {
		e.EndDate = &endDate.Time
	}
	if createdBy.Valid {
		e.CreatedBy = &createdBy.Int64
	}
	return &e, nil
}

const eventCols = `id, title, description, category, location, latitude, longitude, recurring, date, weekday, end_date, start_time, end_time, created_by, created_at, updated_at`

func (s *EventStore) Create(e *model.EventDefinition) (*model.EventDefinition, error) {
	var recurring int
	if e.Recurring {
		recurring = 1
	}
	var date sql.NullTime
	if !e.Date.IsZero() {
		date = sql.NullTime{Time: e.Date.UTC(), Valid: true}
	}
	var endDate sql.NullTime
	if e.EndDate != nil {
		endDate = sql.NullTime{Time: e.EndDate.UTC(), Valid: true}
	}
	var lat, lng sql.NullFloat64
	if e.Latitude != nil {
		lat = sql.NullFloat64{Float64: *e.Latitude, Valid: true}
	}
	if e.Longitude != nil {
		lng = sql.NullFloat64{Float64: *e.Longitude, Valid: true}
	}
	var createdBy sql.NullInt64
	if e.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *e.CreatedBy, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO event_definitions (title, description, category, location, latitude, longitude, recurring, date, weekday, end_date, start_time, end_time, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Description, e.Category, e.Location, lat, lng, recurring, date, e.Weekday, endDate, e.StartTime, e.EndTime, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.EventDefinition, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM event_definitions WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListUpcoming returns every recurring definition plus one-shot events on
// or after the given date. This is the projector's pre-filter: expired
// one-shots never leave the database.
func (s *EventStore) ListUpcoming(onOrAfter time.Time) ([]model.EventDefinition, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM event_definitions
		 WHERE recurring = 1 OR date >= ?
		 ORDER BY id ASC`,
		onOrAfter.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *EventStore) List() ([]model.EventDefinition, error) {
	rows, err := s.db.Query(`SELECT ` + eventCols + ` FROM event_definitions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]model.EventDefinition, error) {
	var events []model.EventDefinition
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(id int64, e *model.EventDefinition) (*model.EventDefinition, error) {
	var recurring int
	if e.Recurring {
		recurring = 1
	}
	var date sql.NullTime
	if !e.Date.IsZero() {
		date = sql.NullTime{Time: e.Date.UTC(), Valid: true}
	}
	var endDate sql.NullTime
	if e.EndDate != nil {
		endDate = sql.NullTime{Time: e.EndDate.UTC(), Valid: true}
	}
	var lat, lng sql.NullFloat64
	if e.Latitude != nil {
		lat = sql.NullFloat64{Float64: *e.Latitude, Valid: true}
	}
	if e.Longitude != nil {
		lng = sql.NullFloat64{Float64: *e.Longitude, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE event_definitions
		 SET title = ?, description = ?, category = ?, location = ?, latitude = ?, longitude = ?,
		     recurring = ?, date = ?, weekday = ?, end_date = ?, start_time = ?, end_time = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		e.Title, e.Description, e.Category, e.Location, lat, lng, recurring, date, e.Weekday, endDate, e.StartTime, e.EndTime, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a definition. For a recurring definition this drops every
// future virtual occurrence at once; there is no per-occurrence deletion.
func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM event_definitions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
