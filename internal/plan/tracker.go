// Package plan implements the sequential progress engine shared by
// devotionals, reading plans, and spiritual routines: a 1-indexed day
// cursor over an ordered list of steps, plus streak computation over the
// completion log. Everything here is pure; persistence and the real
// at-most-once guarantee live in the store layer.
package plan

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrOutOfRange means the progress cursor points past the plan's last
	// day without the plan having been marked complete. That is a caller
	// state bug, so it is surfaced rather than clamped.
	ErrOutOfRange = errors.New("current day out of plan range")

	// ErrAlreadyCompleted means today's step already has a completion
	// record. The check is advisory: the completion store's unique index
	// is what actually prevents a double-tap from double-counting.
	ErrAlreadyCompleted = errors.New("step already completed")
)

// Step is the content assigned for one day of a plan.
type Step struct {
	ID         int64
	DayNumber  int
	Title      string
	Reference  string
	Reflection string
	ActionItem string
}

// Progress is a member's cursor within a plan. CurrentDay stays in
// [1, TotalDays+1]; reaching TotalDays+1 means the plan is finished.
type Progress struct {
	CurrentDay  int
	StartedAt   time.Time
	CompletedAt *time.Time
	IsActive    bool
}

// Definition is the fixed shape of a plan the tracker needs: its length and
// its ordered steps.
type Definition struct {
	TotalDays int
	Steps     []Step
}

// StepAt returns the step for the given 1-indexed day.
func (d Definition) StepAt(day int) (Step, error) {
	if day < 1 || day > d.TotalDays {
		return Step{}, fmt.Errorf("%w: day %d of %d", ErrOutOfRange, day, d.TotalDays)
	}
	for _, s := range d.Steps {
		if s.DayNumber == day {
			return s, nil
		}
	}
	return Step{}, fmt.Errorf("%w: no step for day %d", ErrOutOfRange, day)
}

// Start returns a fresh cursor at day 1. Deactivating any other active
// progress of the same kind is the caller's job, done before this.
func Start(now time.Time) Progress {
	return Progress{CurrentDay: 1, StartedAt: now, IsActive: true}
}

// TodayStep returns the step assigned at the progress cursor.
func TodayStep(def Definition, prog Progress) (Step, error) {
	return def.StepAt(prog.CurrentDay)
}

// IsTodayCompleted reports whether the step at the cursor already has a
// completion record. completedStepIDs is the member's log for this plan.
func IsTodayCompleted(def Definition, prog Progress, completedStepIDs map[int64]bool) bool {
	step, err := def.StepAt(prog.CurrentDay)
	if err != nil {
		return false
	}
	return completedStepIDs[step.ID]
}

// Advance is the result of completing today's step.
type Advance struct {
	Progress  Progress
	Step      Step
	Completed bool // the whole plan just finished
}

// CompleteToday advances the cursor by one day, or finishes the plan when
// the last day was just completed. It refuses with ErrAlreadyCompleted if
// the log already holds today's step; callers append the completion record
// through the store, whose unique index is the real race guard.
func CompleteToday(def Definition, prog Progress, completedStepIDs map[int64]bool, now time.Time) (Advance, error) {
	step, err := def.StepAt(prog.CurrentDay)
	if err != nil {
		return Advance{}, err
	}
	if completedStepIDs[step.ID] {
		return Advance{}, ErrAlreadyCompleted
	}

	next := prog
	next.CurrentDay = prog.CurrentDay + 1
	if next.CurrentDay > def.TotalDays {
		done := now
		next.CompletedAt = &done
		next.IsActive = false
		return Advance{Progress: next, Step: step, Completed: true}, nil
	}
	return Advance{Progress: next, Step: step, Completed: false}, nil
}

// PercentComplete reports how far through the plan the cursor is, for
// progress bars. A finished plan reads 100.
func PercentComplete(def Definition, prog Progress) int {
	if def.TotalDays <= 0 {
		return 0
	}
	done := prog.CurrentDay - 1
	if done > def.TotalDays {
		done = def.TotalDays
	}
	return done * 100 / def.TotalDays
}
