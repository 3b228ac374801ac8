package agenda

import (
	"sort"
	"time"

	"github.com/calebhs/koinonia/internal/calendar"
	"github.com/calebhs/koinonia/internal/model"
)

// Projection is the chronologically sorted agenda view, plus the ids of any
// definitions that were skipped as invalid.
type Projection struct {
	Occurrences []Occurrence
	SkippedIDs  []int64
}

// Project resolves every definition against today and returns the surviving
// occurrences sorted ascending by (date, start time). Ties keep the input
// order. A malformed definition is recorded in SkippedIDs and never aborts
// the rest of the batch.
func Project(defs []model.EventDefinition, today time.Time) Projection {
	var p Projection
	for i := range defs {
		occ, err := Resolve(&defs[i], today)
		if err != nil {
			p.SkippedIDs = append(p.SkippedIDs, defs[i].ID)
			continue
		}
		if occ != nil {
			p.Occurrences = append(p.Occurrences, *occ)
		}
	}

	sort.SliceStable(p.Occurrences, func(i, j int) bool {
		a, b := p.Occurrences[i], p.Occurrences[j]
		if d := calendar.DaysBetween(b.Date, a.Date); d != 0 {
			return d < 0
		}
		return a.Event.StartTime < b.Event.StartTime
	})

	return p
}
