package store

import (
	"database/sql"
	"fmt"

	"github.com/calebhs/koinonia/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	var approved int
	err := scanner.Scan(&m.ID, &m.Email, &m.Name, &m.PasswordHash, &m.Role, &approved, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Approved = approved != 0
	return &m, nil
}

const memberCols = `id, email, name, password_hash, role, approved, created_at, updated_at`

// Create registers a member with a bcrypt-hashed password. The very first
// member becomes an approved admin; everyone after starts unapproved.
func (s *MemberStore) Create(email, name, password string) (*model.Member, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM members`).Scan(&count); err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}

	role := model.RoleMember
	approved := 0
	if count == 0 {
		role = model.RoleAdmin
		approved = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO members (email, name, password_hash, role, approved) VALUES (?, ?, ?, ?, ?)`,
		email, name, string(hash), role, approved,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByEmail(email string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE email = ?`, email)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}

func (s *MemberStore) List() ([]model.Member, error) {
	rows, err := s.db.Query(`SELECT ` + memberCols + ` FROM members ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// VerifyPassword checks a candidate password against the stored hash.
func (s *MemberStore) VerifyPassword(m *model.Member, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)) == nil
}

// Approve marks a pending member as approved, optionally changing role.
func (s *MemberStore) Approve(id int64, role string) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET approved = 1, role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		role, id,
	)
	if err != nil {
		return nil, fmt.Errorf("approve member: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) SetRole(id int64, role string) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		role, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
