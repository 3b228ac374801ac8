package model

import "time"

const (
	PlanKindDevotional = "devotional"
	PlanKindReading    = "reading"
	PlanKindRoutine    = "routine"
)

// Plan is an ordered, fixed-length sequence of daily steps shared by every
// member who starts it. Steps are immutable once the plan is published.
type Plan struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Kind        string    `json:"kind"`
	TotalDays   int       `json:"total_days"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
}

type PlanStep struct {
	ID         int64  `json:"id"`
	PlanID     int64  `json:"plan_id"`
	DayNumber  int    `json:"day_number"` // 1-indexed
	Title      string `json:"title"`
	Reference  string `json:"reference"` // scripture reference(s)
	Reflection string `json:"reflection"`
	ActionItem string `json:"action_item,omitempty"`
}

// PlanProgress is one member's cursor within one plan. CurrentDay is
// 1-indexed and self-paced: missing calendar days never moves it.
// CurrentDay == TotalDays+1 together with a non-nil CompletedAt means the
// plan is finished.
type PlanProgress struct {
	ID          int64      `json:"id"`
	MemberID    int64      `json:"member_id"`
	PlanID      int64      `json:"plan_id"`
	CurrentDay  int        `json:"current_day"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}

// Completion is one append-only record of a member finishing a plan step.
// The store enforces at-most-once per (member, step).
type Completion struct {
	ID          int64     `json:"id"`
	MemberID    int64     `json:"member_id"`
	StepID      int64     `json:"step_id"`
	PlanID      int64     `json:"plan_id"`
	Notes       string    `json:"notes,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
