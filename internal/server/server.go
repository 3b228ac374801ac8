package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/handler"
	"github.com/calebhs/koinonia/internal/middleware"
	"github.com/calebhs/koinonia/internal/push"
	"github.com/calebhs/koinonia/internal/store"
	ws "github.com/calebhs/koinonia/internal/websocket"
)

// Config carries the runtime settings the server needs beyond the database.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Location        *time.Location
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	memberH       *handler.MemberHandler
	eventH        *handler.EventHandler
	agendaH       *handler.AgendaHandler
	planH         *handler.PlanHandler
	postH         *handler.PostHandler
	messageH      *handler.MessageHandler
	attendanceH   *handler.AttendanceHandler
	xpH           *handler.XPHandler
	pushH         *handler.PushHandler
	sessionStore  *store.SessionStore
	memberStore   *store.MemberStore
	rateLimiter   *middleware.RateLimiter
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)

	memberStore := store.NewMemberStore(db)
	sessionStore := store.NewSessionStore(db)
	eventStore := store.NewEventStore(db)
	planStore := store.NewPlanStore(db)
	postStore := store.NewPostStore(db)
	messageStore := store.NewMessageStore(db)
	attendanceStore := store.NewAttendanceStore(db)
	xpStore := store.NewXPStore(db)
	pushStore := store.NewPushStore(db)

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	// Push is optional: without VAPID keys the routes stay off and message
	// delivery skips the notification side effect.
	var pushSvc *push.Service
	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey)
		pushSched = push.NewScheduler(pushSvc, pushStore, eventStore, loc, logger)
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(memberStore, sessionStore, logger.With("component", "auth")),
		memberH:       handler.NewMemberHandler(memberStore, logger.With("component", "member")),
		eventH:        handler.NewEventHandler(eventStore, hub, logger.With("component", "event")),
		agendaH:       handler.NewAgendaHandler(eventStore, loc, logger.With("component", "agenda")),
		planH:         handler.NewPlanHandler(planStore, xpStore, loc, logger.With("component", "plan")),
		postH:         handler.NewPostHandler(postStore, hub, logger.With("component", "post")),
		messageH:      handler.NewMessageHandler(messageStore, memberStore, pushSched, logger.With("component", "message")),
		attendanceH:   handler.NewAttendanceHandler(attendanceStore, eventStore, xpStore, hub, loc, logger.With("component", "attendance")),
		xpH:           handler.NewXPHandler(xpStore, logger.With("component", "xp")),
		pushH:         pushH,
		sessionStore:  sessionStore,
		memberStore:   memberStore,
		rateLimiter:   middleware.NewRateLimiter(),
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// PushScheduler returns the reminder scheduler, nil when push is not
// configured.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/auth/register", s.ipRateLimited(s.authH.Register))
	outerMux.HandleFunc("POST /api/auth/login", s.ipRateLimited(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else requires an approved member's session
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.memberStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) ipRateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

// memberRateLimited keys the limit on the authenticated member instead of
// the client IP, so a shared youth-room network does not throttle everyone
// at once.
func (s *Server) memberRateLimited(h http.HandlerFunc, limit int) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return "member:" + strconv.FormatInt(auth.MemberID(r.Context()), 10)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, limit, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Member administration
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.Handle("POST /api/members/{id}/approve", middleware.RequireAdmin(http.HandlerFunc(s.memberH.Approve)))
	mux.Handle("PUT /api/members/{id}/role", middleware.RequireAdmin(http.HandlerFunc(s.memberH.SetRole)))
	mux.Handle("DELETE /api/members/{id}", middleware.RequireAdmin(http.HandlerFunc(s.memberH.Delete)))

	// Event definitions
	mux.HandleFunc("POST /api/events", s.eventH.Create)
	mux.HandleFunc("GET /api/events", s.eventH.List)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)

	// Resolved agenda
	mux.HandleFunc("GET /api/agenda", s.agendaH.Agenda)
	mux.HandleFunc("GET /api/agenda.ics", s.agendaH.ICS)

	// Attendance
	mux.HandleFunc("POST /api/events/{id}/checkin", s.attendanceH.CheckIn)
	mux.HandleFunc("GET /api/events/{id}/attendance", s.attendanceH.Roster)

	// Plans and progress
	mux.HandleFunc("POST /api/plans", s.planH.Create)
	mux.HandleFunc("GET /api/plans", s.planH.List)
	mux.HandleFunc("GET /api/plans/{id}", s.planH.Get)
	mux.HandleFunc("POST /api/plans/{id}/steps", s.planH.AddStep)
	mux.HandleFunc("POST /api/plans/{id}/publish", s.planH.Publish)
	mux.HandleFunc("POST /api/plans/{id}/start", s.planH.Start)
	mux.HandleFunc("GET /api/plans/{id}/today", s.planH.Today)
	mux.HandleFunc("POST /api/plans/{id}/complete", s.planH.Complete)
	mux.HandleFunc("GET /api/streak", s.planH.Streak)

	// Community feed
	mux.HandleFunc("POST /api/posts", s.memberRateLimited(s.postH.Create, 20))
	mux.HandleFunc("GET /api/posts", s.postH.List)
	mux.HandleFunc("PUT /api/posts/{id}", s.postH.Update)
	mux.HandleFunc("DELETE /api/posts/{id}", s.postH.Delete)
	mux.Handle("POST /api/posts/{id}/pin", middleware.RequireAdmin(http.HandlerFunc(s.postH.TogglePin)))

	// Private messages
	mux.HandleFunc("POST /api/messages", s.memberRateLimited(s.messageH.Send, 30))
	mux.HandleFunc("GET /api/messages/unread", s.messageH.UnreadCount)
	mux.HandleFunc("GET /api/messages/{id}", s.messageH.Conversation)

	// Engagement
	mux.HandleFunc("GET /api/xp", s.xpH.Balance)
	mux.HandleFunc("GET /api/leaderboard", s.xpH.Leaderboard)

	// Push notifications
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.ListSubscriptions)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.GetVAPIDKey)
		mux.HandleFunc("POST /api/push/test", s.pushH.TestNotification)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))
}
