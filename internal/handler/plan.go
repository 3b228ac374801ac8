package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/model"
	"github.com/calebhs/koinonia/internal/plan"
	"github.com/calebhs/koinonia/internal/store"
)

const (
	xpPerStep    = 10
	xpPlanFinish = 50
)

type PlanHandler struct {
	planStore *store.PlanStore
	xpStore   *store.XPStore
	loc       *time.Location
	logger    *slog.Logger
}

func NewPlanHandler(ps *store.PlanStore, xs *store.XPStore, loc *time.Location, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{planStore: ps, xpStore: xs, loc: loc, logger: logger}
}

func validPlanKind(kind string) bool {
	switch kind {
	case model.PlanKindDevotional, model.PlanKindReading, model.PlanKindRoutine:
		return true
	}
	return false
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageEvents(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "leader role required"})
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Kind        string `json:"kind"`
		TotalDays   int    `json:"total_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !validPlanKind(req.Kind) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown plan kind"})
		return
	}
	if req.TotalDays < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "total_days must be at least 1"})
		return
	}

	created, err := h.planStore.Create(req.Name, strings.TrimSpace(req.Description), req.Kind, req.TotalDays)
	if err != nil {
		h.logger.Error("create plan", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create plan"})
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *PlanHandler) AddStep(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageEvents(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "leader role required"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		DayNumber  int    `json:"day_number"`
		Title      string `json:"title"`
		Reference  string `json:"reference"`
		Reflection string `json:"reflection"`
		ActionItem string `json:"action_item"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}

	step, err := h.planStore.AddStep(id, req.DayNumber, strings.TrimSpace(req.Title), req.Reference, req.Reflection, req.ActionItem)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPlanPublished):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "published plans cannot be edited"})
		case errors.Is(err, store.ErrDuplicate):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "a step for that day already exists"})
		default:
			h.logger.Error("add plan step", "plan_id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add step"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, step)
}

func (h *PlanHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageEvents(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "leader role required"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	// Every day needs content before the plan goes live.
	p, steps, ok := h.loadPlan(w, id)
	if !ok {
		return
	}
	if len(steps) != p.TotalDays {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "plan needs a step for every day before publishing"})
		return
	}

	published, err := h.planStore.Publish(id)
	if err != nil {
		h.logger.Error("publish plan", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to publish plan"})
		return
	}

	writeJSON(w, http.StatusOK, published)
}

func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != "" && !validPlanKind(kind) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown plan kind"})
		return
	}

	plans, err := h.planStore.ListPublished(kind)
	if err != nil {
		h.logger.Error("list plans", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list plans"})
		return
	}
	if plans == nil {
		plans = []model.Plan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	p, steps, ok := h.loadPlan(w, id)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plan":  p,
		"steps": steps,
	})
}

// Start begins (or restarts) the caller's progress through a plan. Starting
// a plan deactivates any other active plan of the same kind.
func (h *PlanHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	p, _, ok := h.loadPlan(w, id)
	if !ok {
		return
	}
	if !p.Published {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "plan is not published"})
		return
	}

	memberID := auth.MemberID(r.Context())
	progress, err := h.planStore.StartProgress(memberID, id, p.Kind, time.Now().In(h.loc))
	if err != nil {
		h.logger.Error("start plan", "plan_id", id, "member_id", memberID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to start plan"})
		return
	}

	writeJSON(w, http.StatusCreated, progress)
}

type todayResponse struct {
	Plan            *model.Plan         `json:"plan"`
	Progress        *model.PlanProgress `json:"progress"`
	Step            *model.PlanStep     `json:"step,omitempty"`
	Completed       bool                `json:"completed"`        // today's step is already done
	PlanDone        bool                `json:"plan_done"`        // the whole plan is finished
	PercentComplete int                 `json:"percent_complete"`
}

// Today returns the step at the caller's cursor along with completion state.
// The cursor is self-paced, so a missed week simply leaves it in place.
func (h *PlanHandler) Today(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	p, steps, ok := h.loadPlan(w, id)
	if !ok {
		return
	}

	memberID := auth.MemberID(r.Context())
	progress, err := h.planStore.GetProgress(memberID, id)
	if err != nil {
		h.logger.Error("get progress", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get progress"})
		return
	}
	if progress == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not started"})
		return
	}

	def := toDefinition(p, steps)
	prog := toProgress(progress)

	resp := todayResponse{
		Plan:            p,
		Progress:        progress,
		PlanDone:        progress.CompletedAt != nil,
		PercentComplete: plan.PercentComplete(def, prog),
	}

	if !resp.PlanDone {
		step, err := plan.TodayStep(def, prog)
		if err != nil {
			h.logger.Error("resolve today step", "plan_id", id, "current_day", progress.CurrentDay, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "plan content is inconsistent"})
			return
		}
		modelStep := findStep(steps, step.ID)
		resp.Step = modelStep

		completedIDs, err := h.completedStepIDs(memberID, id)
		if err != nil {
			h.logger.Error("list completions", "plan_id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load completions"})
			return
		}
		resp.Completed = plan.IsTodayCompleted(def, prog, completedIDs)
	} else {
		resp.Completed = true
	}

	writeJSON(w, http.StatusOK, resp)
}

type completeResponse struct {
	Progress        *model.PlanProgress `json:"progress"`
	Step            *model.PlanStep     `json:"step"`
	PlanDone        bool                `json:"plan_done"`
	PercentComplete int                 `json:"percent_complete"`
	XPAwarded       int                 `json:"xp_awarded"`
}

// Complete records today's step and advances the cursor. The completion
// log's unique index is the real double-tap guard; the engine's check just
// gives a friendly 409 before we hit it.
func (h *PlanHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if r.Body != nil {
		// Body is optional for completions.
		json.NewDecoder(r.Body).Decode(&req)
	}

	p, steps, ok := h.loadPlan(w, id)
	if !ok {
		return
	}

	memberID := auth.MemberID(r.Context())
	progress, err := h.planStore.GetProgress(memberID, id)
	if err != nil {
		h.logger.Error("get progress", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get progress"})
		return
	}
	if progress == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not started"})
		return
	}
	if progress.CompletedAt != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "plan already finished"})
		return
	}

	def := toDefinition(p, steps)
	completedIDs, err := h.completedStepIDs(memberID, id)
	if err != nil {
		h.logger.Error("list completions", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load completions"})
		return
	}

	now := time.Now().In(h.loc)
	advance, err := plan.CompleteToday(def, toProgress(progress), completedIDs, now)
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrAlreadyCompleted):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "today's step is already completed"})
		case errors.Is(err, plan.ErrOutOfRange):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "plan cursor is out of range"})
		default:
			h.logger.Error("complete step", "plan_id", id, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete step"})
		}
		return
	}

	// Append first: if a concurrent request won the race, the unique index
	// rejects this one and the cursor is left untouched.
	if _, err := h.planStore.AppendCompletion(memberID, advance.Step.ID, id, strings.TrimSpace(req.Notes), now); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "today's step is already completed"})
			return
		}
		h.logger.Error("append completion", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to record completion"})
		return
	}

	fromProgress(advance.Progress, progress)
	if err := h.planStore.SaveProgress(progress); err != nil {
		h.logger.Error("save progress", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save progress"})
		return
	}

	awarded := xpPerStep
	stepID := advance.Step.ID
	if _, err := h.xpStore.Award(memberID, xpPerStep, model.XPReasonStepCompleted, &stepID); err != nil {
		h.logger.Error("award step xp", "plan_id", id, "error", err)
	}
	if advance.Completed {
		awarded += xpPlanFinish
		if _, err := h.xpStore.Award(memberID, xpPlanFinish, model.XPReasonPlanFinished, &id); err != nil {
			h.logger.Error("award finish xp", "plan_id", id, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, completeResponse{
		Progress:        progress,
		Step:            findStep(steps, advance.Step.ID),
		PlanDone:        advance.Completed,
		PercentComplete: plan.PercentComplete(def, toProgress(progress)),
		XPAwarded:       awarded,
	})
}

// Streak returns the caller's consecutive-day completion streak for a plan
// kind, counted across every plan of that kind and ending today.
func (h *PlanHandler) Streak(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = model.PlanKindDevotional
	}
	if !validPlanKind(kind) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown plan kind"})
		return
	}

	memberID := auth.MemberID(r.Context())
	completions, err := h.planStore.ListCompletionsByKind(memberID, kind)
	if err != nil {
		h.logger.Error("list completions by kind", "kind", kind, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load completions"})
		return
	}

	// Completions come back from the store in UTC; rebase them into the
	// ministry's zone so an evening completion stays on its local date.
	times := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		times = append(times, c.CompletedAt.In(h.loc))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":   kind,
		"streak": plan.Streak(times, time.Now().In(h.loc)),
	})
}

// loadPlan fetches a plan and its steps, writing the error response itself.
func (h *PlanHandler) loadPlan(w http.ResponseWriter, id int64) (*model.Plan, []model.PlanStep, bool) {
	p, err := h.planStore.GetByID(id)
	if err != nil {
		h.logger.Error("get plan", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get plan"})
		return nil, nil, false
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "plan not found"})
		return nil, nil, false
	}

	steps, err := h.planStore.ListSteps(id)
	if err != nil {
		h.logger.Error("list plan steps", "plan_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list steps"})
		return nil, nil, false
	}

	return p, steps, true
}

func (h *PlanHandler) completedStepIDs(memberID, planID int64) (map[int64]bool, error) {
	completions, err := h.planStore.ListCompletions(memberID, planID)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]bool, len(completions))
	for _, c := range completions {
		ids[c.StepID] = true
	}
	return ids, nil
}

// toDefinition and friends bridge the stored rows and the pure engine types.

func toDefinition(p *model.Plan, steps []model.PlanStep) plan.Definition {
	def := plan.Definition{TotalDays: p.TotalDays, Steps: make([]plan.Step, 0, len(steps))}
	for _, s := range steps {
		def.Steps = append(def.Steps, plan.Step{
			ID:         s.ID,
			DayNumber:  s.DayNumber,
			Title:      s.Title,
			Reference:  s.Reference,
			Reflection: s.Reflection,
			ActionItem: s.ActionItem,
		})
	}
	return def
}

func toProgress(p *model.PlanProgress) plan.Progress {
	return plan.Progress{
		CurrentDay:  p.CurrentDay,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
		IsActive:    p.IsActive,
	}
}

func fromProgress(src plan.Progress, dst *model.PlanProgress) {
	dst.CurrentDay = src.CurrentDay
	dst.CompletedAt = src.CompletedAt
	dst.IsActive = src.IsActive
}

func findStep(steps []model.PlanStep, id int64) *model.PlanStep {
	for i := range steps {
		if steps[i].ID == id {
			return &steps[i]
		}
	}
	return nil
}
