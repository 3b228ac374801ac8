package model

import "time"

// Post is a community feed entry. Prayer requests are posts with IsPrayer
// set; anonymous prayer requests hide the author name in API payloads but
// keep the author id for moderation.
type Post struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	Body      string    `json:"body"`
	IsPrayer  bool      `json:"is_prayer"`
	Anonymous bool      `json:"anonymous"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	ID          int64      `json:"id"`
	SenderID    int64      `json:"sender_id"`
	RecipientID int64      `json:"recipient_id"`
	Body        string     `json:"body"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
