package store

import (
	"database/sql"
	"fmt"

	"github.com/calebhs/koinonia/internal/model"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func scanMessage(scanner interface{ Scan(...any) error }) (*model.Message, error) {
	var m model.Message
	var readAt sql.NullTime
	err := scanner.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Body, &readAt, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	return &m, nil
}

const messageCols = `id, sender_id, recipient_id, body, read_at, created_at`

func (s *MessageStore) Create(senderID, recipientID int64, body string) (*model.Message, error) {
	result, err := s.db.Exec(
		`INSERT INTO messages (sender_id, recipient_id, body) VALUES (?, ?, ?)`,
		senderID, recipientID, body,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+messageCols+` FROM messages WHERE id = ?`, id)
	return scanMessage(row)
}

// ListConversation returns all messages between two members, oldest first.
func (s *MessageStore) ListConversation(a, b int64) ([]model.Message, error) {
	rows, err := s.db.Query(
		`SELECT `+messageCols+` FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY created_at ASC`,
		a, b, b, a,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// MarkRead marks every unread message to recipient from sender as read.
func (s *MessageStore) MarkRead(recipientID, senderID int64) error {
	_, err := s.db.Exec(
		`UPDATE messages SET read_at = CURRENT_TIMESTAMP
		 WHERE recipient_id = ? AND sender_id = ? AND read_at IS NULL`,
		recipientID, senderID,
	)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (s *MessageStore) UnreadCount(recipientID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND read_at IS NULL`,
		recipientID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}
