package model

import "time"

const (
	CategoryService   = "service"
	CategoryRehearsal = "rehearsal"
	CategoryStudy     = "study"
	CategoryMeeting   = "meeting"
	CategoryOther     = "other"
)

// ValidCategory reports whether c is one of the known event categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryService, CategoryRehearsal, CategoryStudy, CategoryMeeting, CategoryOther:
		return true
	}
	return false
}

// EventDefinition is a plannable calendar item: either a one-shot event on a
// fixed date, or a weekly recurring slot. Recurring definitions are never
// materialized into stored occurrences; the agenda package derives the next
// occurrence on demand.
type EventDefinition struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Recurring   bool       `json:"recurring"`
	Date        time.Time  `json:"date"`                // one-shot only
	Weekday     int        `json:"weekday"`             // recurring only, 0=Sunday..6=Saturday
	EndDate     *time.Time `json:"end_date,omitempty"`  // recurring only, inclusive
	StartTime   string     `json:"start_time"`          // "HH:MM"
	EndTime     string     `json:"end_time,omitempty"`  // "HH:MM", may be empty
	CreatedBy   *int64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Attendance struct {
	ID         int64     `json:"id"`
	EventID    int64     `json:"event_id"`
	MemberID   int64     `json:"member_id"`
	OccurredOn time.Time `json:"occurred_on"` // occurrence date being attended
	CreatedAt  time.Time `json:"created_at"`
}
