package plan

import (
	"time"

	"github.com/calebhs/koinonia/internal/calendar"
)

// Streak returns the number of consecutive calendar days ending at today on
// which at least one completion occurred. A day with no completion breaks
// the walk, and a streak requires a completion today: yesterday-only
// activity yields 0. The log is recomputed from scratch each call, which is
// fine at the volumes a single member produces.
func Streak(completedAt []time.Time, today time.Time) int {
	if len(completedAt) == 0 {
		return 0
	}

	days := make(map[int]bool, len(completedAt))
	for _, t := range completedAt {
		days[calendar.DaysBetween(t, today)] = true
	}

	streak := 0
	for days[streak] {
		streak++
	}
	return streak
}
