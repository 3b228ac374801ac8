// Package agenda turns event definitions into the occurrences shown on the
// upcoming-events view. A recurring definition contributes at most one
// occurrence per pass: the next slot on or after today. Callers that need a
// full calendar must advance the "today" cursor themselves.
package agenda

import (
	"errors"
	"fmt"
	"time"

	"github.com/calebhs/koinonia/internal/calendar"
	"github.com/calebhs/koinonia/internal/model"
)

// ErrInvalidDefinition marks an event definition that can never produce an
// occurrence: a weekday outside Sunday..Saturday, or an end date the rule
// can never reach. The projector skips such definitions instead of failing
// the whole batch.
var ErrInvalidDefinition = errors.New("invalid event definition")

// Occurrence is the materialized, displayable instance of a definition for
// "now". It is derived state and is never persisted.
type Occurrence struct {
	Event     *model.EventDefinition `json:"event"`
	Date      time.Time              `json:"date"`
	DayLabel  string                 `json:"day_label"`
	IsVirtual bool                   `json:"is_virtual"`
}

// Resolve produces the single upcoming occurrence of def as of today, or
// nil when the definition has nothing left to show: a one-shot in the past,
// or a recurrence whose end date has been passed.
func Resolve(def *model.EventDefinition, today time.Time) (*Occurrence, error) {
	if !def.Recurring {
		// Boundary is inclusive: an event on today's date is still upcoming.
		if calendar.DaysBetween(today, def.Date) < 0 {
			return nil, nil
		}
		return &Occurrence{
			Event:     def,
			Date:      calendar.StartOfDay(def.Date),
			DayLabel:  calendar.DayLabel(def.Date, today),
			IsVirtual: false,
		}, nil
	}

	if def.Weekday < 0 || def.Weekday > 6 {
		return nil, fmt.Errorf("%w: weekday %d out of range", ErrInvalidDefinition, def.Weekday)
	}
	if def.EndDate != nil && !def.CreatedAt.IsZero() {
		first := calendar.NextWeekday(def.CreatedAt, time.Weekday(def.Weekday))
		if calendar.DaysBetween(first, *def.EndDate) < 0 {
			return nil, fmt.Errorf("%w: end date precedes first occurrence", ErrInvalidDefinition)
		}
	}

	// Recurrence already over.
	if def.EndDate != nil && calendar.DaysBetween(today, *def.EndDate) < 0 {
		return nil, nil
	}

	candidate := calendar.NextWeekday(today, time.Weekday(def.Weekday))
	if def.EndDate != nil && calendar.DaysBetween(*def.EndDate, candidate) > 0 {
		// The very next slot falls after expiry.
		return nil, nil
	}

	return &Occurrence{
		Event:     def,
		Date:      candidate,
		DayLabel:  calendar.DayLabel(candidate, today),
		IsVirtual: true,
	}, nil
}
