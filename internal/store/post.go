package store

import (
	"database/sql"
	"fmt"

	"github.com/calebhs/koinonia/internal/model"
)

type PostStore struct {
	db *sql.DB
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(scanner interface{ Scan(...any) error }) (*model.Post, error) {
	var p model.Post
	var isPrayer, anonymous, pinned int
	err := scanner.Scan(&p.ID, &p.MemberID, &p.Body, &isPrayer, &anonymous, &pinned, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.IsPrayer = isPrayer != 0
	p.Anonymous = anonymous != 0
	p.Pinned = pinned != 0
	return &p, nil
}

const postCols = `id, member_id, body, is_prayer, anonymous, pinned, created_at, updated_at`

func (s *PostStore) Create(memberID int64, body string, isPrayer, anonymous bool) (*model.Post, error) {
	var prayer, anon int
	if isPrayer {
		prayer = 1
	}
	if anonymous {
		anon = 1
	}
	result, err := s.db.Exec(
		`INSERT INTO posts (member_id, body, is_prayer, anonymous) VALUES (?, ?, ?, ?)`,
		memberID, body, prayer, anon,
	)
	if err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *PostStore) GetByID(id int64) (*model.Post, error) {
	row := s.db.QueryRow(`SELECT `+postCols+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

// List returns the feed, pinned posts first, then newest first.
func (s *PostStore) List(limit int) ([]model.Post, error) {
	rows, err := s.db.Query(
		`SELECT `+postCols+` FROM posts ORDER BY pinned DESC, created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func (s *PostStore) Update(id int64, body string) (*model.Post, error) {
	_, err := s.db.Exec(
		`UPDATE posts SET body = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		body, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return s.GetByID(id)
}

func (s *PostStore) TogglePinned(id int64) (*model.Post, error) {
	_, err := s.db.Exec(
		`UPDATE posts SET pinned = 1 - pinned, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("toggle pinned: %w", err)
	}
	return s.GetByID(id)
}

func (s *PostStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}
