package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/database"
	"github.com/calebhs/koinonia/internal/model"
	"github.com/calebhs/koinonia/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.SessionStore, *store.MemberStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewMemberStore(db)
}

func TestRequireAuthNoToken(t *testing.T) {
	ss, ms := setupAuthMiddlewareDB(t)

	handler := RequireAuth(ss, ms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/agenda", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	ss, ms := setupAuthMiddlewareDB(t)

	handler := RequireAuth(ss, ms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/agenda", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidSessionPopulatesContext(t *testing.T) {
	ss, ms := setupAuthMiddlewareDB(t)

	m, err := ms.Create("pastor@example.com", "Pastor Dan", "secret123")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	sess, err := ss.Create(m.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotID int64
	handler := RequireAuth(ss, ms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = auth.MemberID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/agenda", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotID != m.ID {
		t.Errorf("context member id = %d, want %d", gotID, m.ID)
	}
}

func TestRequireAuthBearerToken(t *testing.T) {
	ss, ms := setupAuthMiddlewareDB(t)

	m, _ := ms.Create("pastor@example.com", "Pastor Dan", "secret123")
	sess, _ := ss.Create(m.ID)

	handler := RequireAuth(ss, ms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/agenda", nil)
	req.Header.Set("Authorization", "Bearer "+sess.Token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequireAuthUnapprovedMember(t *testing.T) {
	ss, ms := setupAuthMiddlewareDB(t)

	// First member is auto-approved admin; the second starts pending.
	ms.Create("pastor@example.com", "Pastor Dan", "secret123")
	pending, _ := ms.Create("new@example.com", "Newcomer", "secret123")
	sess, _ := ss.Create(pending.ID)

	handler := RequireAuth(ss, ms)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unapproved member should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/agenda", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireAdmin(t *testing.T) {
	adminCtx := auth.WithAuth(httptest.NewRequest("GET", "/", nil).Context(), auth.AuthContext{Role: model.RoleAdmin})
	memberCtx := auth.WithAuth(httptest.NewRequest("GET", "/", nil).Context(), auth.AuthContext{Role: model.RoleMember})

	handler := RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil).WithContext(adminCtx)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest("GET", "/", nil).WithContext(memberCtx)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want 403", rec.Code)
	}
}
