package plan

import (
	"errors"
	"testing"
	"time"
)

func fiveDayPlan() Definition {
	def := Definition{TotalDays: 5}
	for d := 1; d <= 5; d++ {
		def.Steps = append(def.Steps, Step{
			ID:        int64(100 + d),
			DayNumber: d,
			Title:     "Day step",
		})
	}
	return def
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStart(t *testing.T) {
	now := date(2024, 6, 1)
	prog := Start(now)
	if prog.CurrentDay != 1 {
		t.Errorf("current day = %d, want 1", prog.CurrentDay)
	}
	if !prog.IsActive {
		t.Error("new progress should be active")
	}
	if prog.CompletedAt != nil {
		t.Error("new progress should not be completed")
	}
}

func TestTodayStep(t *testing.T) {
	def := fiveDayPlan()
	step, err := TodayStep(def, Progress{CurrentDay: 3})
	if err != nil {
		t.Fatalf("today step: %v", err)
	}
	if step.DayNumber != 3 || step.ID != 103 {
		t.Errorf("got step %+v, want day 3 (id 103)", step)
	}
}

func TestTodayStepOutOfRange(t *testing.T) {
	def := fiveDayPlan()
	_, err := TodayStep(def, Progress{CurrentDay: 6})
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
	_, err = TodayStep(def, Progress{CurrentDay: 0})
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestIsTodayCompleted(t *testing.T) {
	def := fiveDayPlan()
	prog := Progress{CurrentDay: 2}

	if IsTodayCompleted(def, prog, nil) {
		t.Error("empty log should not report completed")
	}
	if !IsTodayCompleted(def, prog, map[int64]bool{102: true}) {
		t.Error("log with today's step should report completed")
	}
	if IsTodayCompleted(def, prog, map[int64]bool{101: true}) {
		t.Error("log with a different step should not report completed")
	}
}

func TestCompleteTodayAdvances(t *testing.T) {
	def := fiveDayPlan()
	now := date(2024, 6, 3)

	adv, err := CompleteToday(def, Progress{CurrentDay: 2, IsActive: true}, nil, now)
	if err != nil {
		t.Fatalf("complete today: %v", err)
	}
	if adv.Completed {
		t.Error("mid-plan completion should not finish the plan")
	}
	if adv.Progress.CurrentDay != 3 {
		t.Errorf("current day = %d, want 3", adv.Progress.CurrentDay)
	}
	if !adv.Progress.IsActive {
		t.Error("progress should stay active mid-plan")
	}
	if adv.Step.ID != 102 {
		t.Errorf("completed step id = %d, want 102", adv.Step.ID)
	}
}

func TestCompleteTodayFinishesPlan(t *testing.T) {
	def := fiveDayPlan()
	now := date(2024, 6, 10)

	adv, err := CompleteToday(def, Progress{CurrentDay: 5, IsActive: true}, nil, now)
	if err != nil {
		t.Fatalf("complete final day: %v", err)
	}
	if !adv.Completed {
		t.Error("completing day 5 of 5 should finish the plan")
	}
	if adv.Progress.CurrentDay != 6 {
		t.Errorf("current day = %d, want 6", adv.Progress.CurrentDay)
	}
	if adv.Progress.IsActive {
		t.Error("finished plan should be inactive")
	}
	if adv.Progress.CompletedAt == nil || !adv.Progress.CompletedAt.Equal(now) {
		t.Errorf("completed_at = %v, want %v", adv.Progress.CompletedAt, now)
	}
}

func TestCompleteTodayRefusesDouble(t *testing.T) {
	def := fiveDayPlan()
	log := map[int64]bool{102: true}

	_, err := CompleteToday(def, Progress{CurrentDay: 2, IsActive: true}, log, date(2024, 6, 3))
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestCompleteTodayPastEnd(t *testing.T) {
	def := fiveDayPlan()
	_, err := CompleteToday(def, Progress{CurrentDay: 6}, nil, date(2024, 6, 3))
	if !errors.Is(err, ErrOutOfRange) {
		t.Errorf("err = %v, want ErrOutOfRange", err)
	}
}

func TestPercentComplete(t *testing.T) {
	def := fiveDayPlan()
	tests := []struct {
		day  int
		want int
	}{
		{1, 0},
		{2, 20},
		{4, 60},
		{5, 80},
		{6, 100},
	}
	for _, tt := range tests {
		if got := PercentComplete(def, Progress{CurrentDay: tt.day}); got != tt.want {
			t.Errorf("PercentComplete(day=%d) = %d, want %d", tt.day, got, tt.want)
		}
	}
}

func TestStreak(t *testing.T) {
	today := date(2024, 6, 3)

	tests := []struct {
		name string
		log  []time.Time
		want int
	}{
		{"empty log", nil, 0},
		{"today only", []time.Time{date(2024, 6, 3)}, 1},
		{"three consecutive ending today", []time.Time{date(2024, 6, 1), date(2024, 6, 2), date(2024, 6, 3)}, 3},
		{"gap before run", []time.Time{date(2024, 5, 30), date(2024, 6, 2), date(2024, 6, 3)}, 2},
		{"yesterday only", []time.Time{date(2024, 6, 2)}, 0},
		{"long past run without today", []time.Time{date(2024, 5, 1), date(2024, 5, 2), date(2024, 5, 3)}, 0},
		{"duplicate completions same day", []time.Time{date(2024, 6, 3), date(2024, 6, 3).Add(4 * time.Hour), date(2024, 6, 2)}, 2},
	}

	for _, tt := range tests {
		if got := Streak(tt.log, today); got != tt.want {
			t.Errorf("%s: Streak = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestStreakIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2024, 6, 3, 23, 50, 0, 0, time.UTC)
	log := []time.Time{
		time.Date(2024, 6, 2, 0, 5, 0, 0, time.UTC),
		time.Date(2024, 6, 3, 7, 0, 0, 0, time.UTC),
	}
	if got := Streak(log, today); got != 2 {
		t.Errorf("Streak = %d, want 2", got)
	}
}
