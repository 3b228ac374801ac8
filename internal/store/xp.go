package store

import (
	"database/sql"
	"fmt"

	"github.com/calebhs/koinonia/internal/model"
)

type XPStore struct {
	db *sql.DB
}

func NewXPStore(db *sql.DB) *XPStore {
	return &XPStore{db: db}
}

func (s *XPStore) Award(memberID int64, amount int, reason string, refID *int64) (*model.XPAward, error) {
	var ref sql.NullInt64
	if refID != nil {
		ref = sql.NullInt64{Int64: *refID, Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO xp_awards (member_id, amount, reason, ref_id) VALUES (?, ?, ?, ?)`,
		memberID, amount, reason, ref,
	)
	if err != nil {
		return nil, fmt.Errorf("insert xp award: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var a model.XPAward
	var scannedRef sql.NullInt64
	err = s.db.QueryRow(
		`SELECT id, member_id, amount, reason, ref_id, created_at FROM xp_awards WHERE id = ?`, id,
	).Scan(&a.ID, &a.MemberID, &a.Amount, &a.Reason, &scannedRef, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get xp award: %w", err)
	}
	if scannedRef.Valid {
		a.RefID = &scannedRef.Int64
	}
	return &a, nil
}

func (s *XPStore) Total(memberID int64) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM xp_awards WHERE member_id = ?`, memberID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("xp total: %w", err)
	}
	return total, nil
}

// Leaderboard returns approved members ranked by total XP.
func (s *XPStore) Leaderboard(limit int) ([]model.XPBalance, error) {
	rows, err := s.db.Query(
		`SELECT m.id, m.name, COALESCE(SUM(x.amount), 0) AS total
		 FROM members m
		 LEFT JOIN xp_awards x ON x.member_id = m.id
		 WHERE m.approved = 1
		 GROUP BY m.id, m.name
		 ORDER BY total DESC, m.name ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var board []model.XPBalance
	for rows.Next() {
		var b model.XPBalance
		if err := rows.Scan(&b.MemberID, &b.MemberName, &b.Total); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		board = append(board, b)
	}
	return board, rows.Err()
}
