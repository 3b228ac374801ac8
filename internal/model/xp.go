package model

import "time"

const (
	XPReasonStepCompleted = "step_completed"
	XPReasonPlanFinished  = "plan_finished"
	XPReasonAttendance    = "attendance"
)

// XPAward is one append-only grant of experience points. Balances are
// derived sums; awards are never edited or deleted.
type XPAward struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	RefID     *int64    `json:"ref_id,omitempty"` // step, plan, or event id
	CreatedAt time.Time `json:"created_at"`
}

type XPBalance struct {
	MemberID   int64  `json:"member_id"`
	MemberName string `json:"member_name"`
	Total      int    `json:"total"`
	Level      int    `json:"level"`
}

// xpLevelThresholds is the cumulative XP needed to move past level n+1.
// Everyone starts at level 1; crossing the last entry caps the ladder.
var xpLevelThresholds = []int{100, 250, 500, 1000, 1750, 2750, 4000, 5500, 7500}

// LevelFor converts an XP total into a level.
func LevelFor(total int) int {
	level := 1
	for _, threshold := range xpLevelThresholds {
		if total < threshold {
			break
		}
		level++
	}
	return level
}

// NextLevelAt returns the XP total required for the next level, or 0 when
// the member has reached the top of the ladder.
func NextLevelAt(total int) int {
	for _, threshold := range xpLevelThresholds {
		if total < threshold {
			return threshold
		}
	}
	return 0
}
