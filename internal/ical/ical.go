// Package ical renders resolved agenda occurrences as an iCalendar feed so
// members can subscribe from their phone's calendar app.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/calebhs/koinonia/internal/agenda"
)

const defaultDuration = time.Hour

// Render serializes occurrences into a VCALENDAR. Each occurrence becomes
// one VEVENT; recurring definitions contribute only their next resolved
// occurrence, matching what the agenda endpoint shows.
func Render(occurrences []agenda.Occurrence, loc *time.Location) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//koinonia//agenda//EN")

	for i := range occurrences {
		occ := &occurrences[i]
		def := occ.Event

		start, ok := combine(occ.Date, def.StartTime, loc)
		if !ok {
			continue
		}
		end, ok := combine(occ.Date, def.EndTime, loc)
		if !ok || !end.After(start) {
			end = start.Add(defaultDuration)
		}

		uid := fmt.Sprintf("event-%d-%s@koinonia", def.ID, occ.Date.Format("20060102"))
		ev := cal.AddEvent(uid)
		ev.SetSummary(def.Title)
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		if def.Description != "" {
			ev.SetDescription(def.Description)
		}
		if def.Location != "" {
			ev.SetLocation(def.Location)
		}
		if def.Latitude != nil && def.Longitude != nil {
			ev.SetGeo(*def.Latitude, *def.Longitude)
		}
	}

	return cal.Serialize()
}

// combine builds a concrete timestamp from an occurrence date and an
// "HH:MM" clock string in loc.
func combine(date time.Time, clock string, loc *time.Location) (time.Time, bool) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, loc), true
}
