package middleware

import (
	"net/http"
	"strings"

	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/store"
)

const sessionCookieName = "koinonia_session"

// RequireAuth validates the session (cookie or bearer token), checks that
// the member is approved, and populates AuthContext. Unapproved members
// get 403 so the mobile client can show the "pending approval" screen.
func RequireAuth(sessionStore *store.SessionStore, memberStore *store.MemberStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessionStore.GetByToken(token)
			if err != nil || sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			member, err := memberStore.GetByID(sess.MemberID)
			if err != nil || member == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if !member.Approved {
				http.Error(w, "Membership pending approval", http.StatusForbidden)
				return
			}

			ac := auth.AuthContext{
				MemberID: member.ID,
				Role:     member.Role,
				Approved: member.Approved,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated member has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionToken pulls the token from the session cookie or, for the mobile
// client, an Authorization: Bearer header.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
