package store

import (
	"errors"
	"testing"
	"time"

	"github.com/calebhs/koinonia/internal/database"
	"github.com/calebhs/koinonia/internal/model"
)

func setupMemberTestDB(t *testing.T) (*MemberStore, *SessionStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewMemberStore(db), NewSessionStore(db)
}

func TestFirstMemberBecomesAdmin(t *testing.T) {
	ms, _ := setupMemberTestDB(t)

	first, err := ms.Create("pastor@example.com", "Pastor Dan", "secret123")
	if err != nil {
		t.Fatalf("create first member: %v", err)
	}
	if first.Role != model.RoleAdmin {
		t.Errorf("first member role = %q, want admin", first.Role)
	}
	if !first.Approved {
		t.Error("first member should be auto-approved")
	}

	second, err := ms.Create("kid@example.com", "Jesse", "secret123")
	if err != nil {
		t.Fatalf("create second member: %v", err)
	}
	if second.Role != model.RoleMember {
		t.Errorf("second member role = %q, want member", second.Role)
	}
	if second.Approved {
		t.Error("second member should start unapproved")
	}
}

func TestDuplicateEmailRejected(t *testing.T) {
	ms, _ := setupMemberTestDB(t)

	if _, err := ms.Create("amy@example.com", "Amy", "secret123"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := ms.Create("amy@example.com", "Amy Again", "secret456")
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestPasswordVerification(t *testing.T) {
	ms, _ := setupMemberTestDB(t)

	m, err := ms.Create("amy@example.com", "Amy", "correct horse")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if m.PasswordHash == "correct horse" {
		t.Error("password must not be stored in plain text")
	}
	if !ms.VerifyPassword(m, "correct horse") {
		t.Error("correct password should verify")
	}
	if ms.VerifyPassword(m, "wrong") {
		t.Error("wrong password should not verify")
	}
}

func TestApprove(t *testing.T) {
	ms, _ := setupMemberTestDB(t)

	ms.Create("pastor@example.com", "Pastor Dan", "secret123")
	m, _ := ms.Create("amy@example.com", "Amy", "secret123")

	approved, err := ms.Approve(m.ID, model.RoleLeader)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !approved.Approved {
		t.Error("member should be approved")
	}
	if approved.Role != model.RoleLeader {
		t.Errorf("role = %q, want leader", approved.Role)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ms, ss := setupMemberTestDB(t)
	m, _ := ms.Create("amy@example.com", "Amy", "secret123")

	sess, err := ss.Create(m.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected non-empty token")
	}
	if !sess.ExpiresAt.After(time.Now()) {
		t.Error("session should expire in the future")
	}

	got, err := ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if got == nil || got.MemberID != m.ID {
		t.Fatalf("got %+v, want session for member %d", got, m.ID)
	}

	if err := ss.Delete(sess.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = ss.GetByToken(sess.Token)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("deleted session should be gone")
	}
}

func TestSessionUnknownToken(t *testing.T) {
	_, ss := setupMemberTestDB(t)
	got, err := ss.GetByToken("nope")
	if err != nil {
		t.Fatalf("get unknown token: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}
