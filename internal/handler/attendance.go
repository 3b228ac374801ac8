package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/calebhs/koinonia/internal/agenda"
	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/calendar"
	"github.com/calebhs/koinonia/internal/model"
	"github.com/calebhs/koinonia/internal/store"
	"github.com/calebhs/koinonia/internal/websocket"
)

const xpPerCheckIn = 20

type AttendanceHandler struct {
	attendanceStore *store.AttendanceStore
	eventStore      *store.EventStore
	xpStore         *store.XPStore
	hub             *websocket.Hub
	loc             *time.Location
	logger          *slog.Logger
}

func NewAttendanceHandler(as *store.AttendanceStore, es *store.EventStore, xs *store.XPStore, hub *websocket.Hub, loc *time.Location, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceStore: as,
		eventStore:      es,
		xpStore:         xs,
		hub:             hub,
		loc:             loc,
		logger:          logger,
	}
}

// CheckIn records the caller's attendance at an event's occurrence today.
// The check-in only succeeds when the event actually occurs today; the
// unique index makes a second tap a no-op.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	def, err := h.eventStore.GetByID(eventID)
	if err != nil {
		h.logger.Error("get event", "event_id", eventID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if def == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	today := time.Now().In(h.loc)
	occ, err := agenda.Resolve(def, today)
	if err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "event definition is invalid"})
		return
	}
	if occ == nil || !calendar.SameDay(occ.Date, today) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "event does not occur today"})
		return
	}

	memberID := auth.MemberID(r.Context())
	att, err := h.attendanceStore.CheckIn(eventID, memberID, occ.Date)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "already checked in"})
			return
		}
		h.logger.Error("check in", "event_id", eventID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to check in"})
		return
	}

	if _, err := h.xpStore.Award(memberID, xpPerCheckIn, model.XPReasonAttendance, &eventID); err != nil {
		h.logger.Error("award attendance xp", "event_id", eventID, "error", err)
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityCheckin, websocket.ActionCreated, att.ID, map[string]any{"event_id": eventID}))
	writeJSON(w, http.StatusCreated, att)
}

// Roster lists who has checked in to an event's occurrence today.
func (h *AttendanceHandler) Roster(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	def, err := h.eventStore.GetByID(eventID)
	if err != nil {
		h.logger.Error("get event", "event_id", eventID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if def == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	today := time.Now().In(h.loc)
	occ, err := agenda.Resolve(def, today)
	if err != nil || occ == nil {
		writeJSON(w, http.StatusOK, []model.Attendance{})
		return
	}

	list, err := h.attendanceStore.ListByEvent(eventID, occ.Date)
	if err != nil {
		h.logger.Error("list attendance", "event_id", eventID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list attendance"})
		return
	}
	if list == nil {
		list = []model.Attendance{}
	}

	writeJSON(w, http.StatusOK, list)
}
