package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/calebhs/koinonia/internal/model"
)

type PlanStore struct {
	db *sql.DB
}

func NewPlanStore(db *sql.DB) *PlanStore {
	return &PlanStore{db: db}
}

// --- Plan definitions ---

func scanPlan(scanner interface{ Scan(...any) error }) (*model.Plan, error) {
	var p model.Plan
	var published int
	err := scanner.Scan(&p.ID, &p.Name, &p.Description, &p.Kind, &p.TotalDays, &published, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Published = published != 0
	return &p, nil
}

const planCols = `id, name, description, kind, total_days, published, created_at`

func (s *PlanStore) Create(name, description, kind string, totalDays int) (*model.Plan, error) {
	result, err := s.db.Exec(
		`INSERT INTO plans (name, description, kind, total_days) VALUES (?, ?, ?, ?)`,
		name, description, kind, totalDays,
	)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PlanStore) GetByID(id int64) (*model.Plan, error) {
	row := s.db.QueryRow(`SELECT `+planCols+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// ListPublished returns published plans, optionally filtered by kind. An
// empty kind lists all of them.
func (s *PlanStore) ListPublished(kind string) ([]model.Plan, error) {
	query := `SELECT ` + planCols + ` FROM plans WHERE published = 1 ORDER BY name ASC`
	args := []any{}
	if kind != "" {
		query = `SELECT ` + planCols + ` FROM plans WHERE published = 1 AND kind = ? ORDER BY name ASC`
		args = append(args, kind)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// Publish locks a plan's content: steps are immutable from here on.
func (s *PlanStore) Publish(id int64) (*model.Plan, error) {
	_, err := s.db.Exec(`UPDATE plans SET published = 1 WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("publish plan: %w", err)
	}
	return s.GetByID(id)
}

// --- Plan steps ---

func scanStep(scanner interface{ Scan(...any) error }) (*model.PlanStep, error) {
	var st model.PlanStep
	err := scanner.Scan(&st.ID, &st.PlanID, &st.DayNumber, &st.Title, &st.Reference, &st.Reflection, &st.ActionItem)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

const stepCols = `id, plan_id, day_number, title, reference, reflection, action_item`

// AddStep inserts a step into an unpublished plan.
func (s *PlanStore) AddStep(planID int64, dayNumber int, title, reference, reflection, actionItem string) (*model.PlanStep, error) {
	var published int
	err := s.db.QueryRow(`SELECT published FROM plans WHERE id = ?`, planID).Scan(&published)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("add step: plan %d not found", planID)
	}
	if err != nil {
		return nil, fmt.Errorf("add step: %w", err)
	}
	if published != 0 {
		return nil, fmt.Errorf("add step to plan %d: %w", planID, ErrPlanPublished)
	}

	result, err := s.db.Exec(
		`INSERT INTO plan_steps (plan_id, day_number, title, reference, reflection, action_item) VALUES (?, ?, ?, ?, ?, ?)`,
		planID, dayNumber, title, reference, reflection, actionItem,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert step: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+stepCols+` FROM plan_steps WHERE id = ?`, id)
	return scanStep(row)
}

func (s *PlanStore) ListSteps(planID int64) ([]model.PlanStep, error) {
	rows, err := s.db.Query(
		`SELECT `+stepCols+` FROM plan_steps WHERE plan_id = ? ORDER BY day_number ASC`,
		planID,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []model.PlanStep
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, *st)
	}
	return steps, rows.Err()
}

// --- Progress ---

func scanProgress(scanner interface{ Scan(...any) error }) (*model.PlanProgress, error) {
	var p model.PlanProgress
	var completedAt sql.NullTime
	var active int
	err := scanner.Scan(&p.ID, &p.MemberID, &p.PlanID, &p.CurrentDay, &p.StartedAt, &completedAt, &active)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	p.IsActive = active != 0
	return &p, nil
}

const progressCols = `id, member_id, plan_id, current_day, started_at, completed_at, is_active`

// StartProgress creates a day-1 cursor for the member, deactivating any
// other active progress of the same plan kind first so at most one plan
// per kind is active at a time.
func (s *PlanStore) StartProgress(memberID, planID int64, kind string, now time.Time) (*model.PlanProgress, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE plan_progress SET is_active = 0
		 WHERE member_id = ? AND is_active = 1
		   AND plan_id IN (SELECT id FROM plans WHERE kind = ?)`,
		memberID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("deactivate progress: %w", err)
	}

	result, err := tx.Exec(
		`INSERT INTO plan_progress (member_id, plan_id, current_day, started_at, is_active) VALUES (?, ?, 1, ?, 1)`,
		memberID, planID, now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert progress: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+progressCols+` FROM plan_progress WHERE id = ?`, id)
	return scanProgress(row)
}

func (s *PlanStore) GetProgress(memberID, planID int64) (*model.PlanProgress, error) {
	row := s.db.QueryRow(
		`SELECT `+progressCols+` FROM plan_progress WHERE member_id = ? AND plan_id = ?`,
		memberID, planID,
	)
	p, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}

// SaveProgress persists an advanced cursor after a completion.
func (s *PlanStore) SaveProgress(p *model.PlanProgress) error {
	var completedAt sql.NullTime
	if p.CompletedAt != nil {
		completedAt = sql.NullTime{Time: p.CompletedAt.UTC(), Valid: true}
	}
	var active int
	if p.IsActive {
		active = 1
	}
	_, err := s.db.Exec(
		`UPDATE plan_progress SET current_day = ?, completed_at = ?, is_active = ? WHERE id = ?`,
		p.CurrentDay, completedAt, active, p.ID,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// --- Completion log ---

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.Completion, error) {
	var c model.Completion
	err := scanner.Scan(&c.ID, &c.MemberID, &c.StepID, &c.PlanID, &c.Notes, &c.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const completionCols = `id, member_id, step_id, plan_id, notes, completed_at`

// AppendCompletion writes one completion record. The UNIQUE(member_id,
// step_id) index rejects a second record for the same step with
// ErrDuplicate; that constraint, not the tracker's precondition check, is
// what makes completion at-most-once.
func (s *PlanStore) AppendCompletion(memberID, stepID, planID int64, notes string, completedAt time.Time) (*model.Completion, error) {
	result, err := s.db.Exec(
		`INSERT INTO plan_completions (member_id, step_id, plan_id, notes, completed_at) VALUES (?, ?, ?, ?, ?)`,
		memberID, stepID, planID, notes, completedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+completionCols+` FROM plan_completions WHERE id = ?`, id)
	return scanCompletion(row)
}

func (s *PlanStore) ListCompletions(memberID, planID int64) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT `+completionCols+` FROM plan_completions WHERE member_id = ? AND plan_id = ? ORDER BY completed_at ASC`,
		memberID, planID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()
	return collectCompletions(rows)
}

// ListCompletionsByKind returns a member's completions across every plan of
// one kind, for streak computation spanning plan boundaries.
func (s *PlanStore) ListCompletionsByKind(memberID int64, kind string) ([]model.Completion, error) {
	rows, err := s.db.Query(
		`SELECT c.id, c.member_id, c.step_id, c.plan_id, c.notes, c.completed_at
		 FROM plan_completions c
		 JOIN plans p ON p.id = c.plan_id
		 WHERE c.member_id = ? AND p.kind = ?
		 ORDER BY c.completed_at ASC`,
		memberID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("list completions by kind: %w", err)
	}
	defer rows.Close()
	return collectCompletions(rows)
}

func collectCompletions(rows *sql.Rows) ([]model.Completion, error) {
	var completions []model.Completion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
