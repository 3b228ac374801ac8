package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/model"
	"github.com/calebhs/koinonia/internal/store"
	"github.com/calebhs/koinonia/internal/websocket"
)

type EventHandler struct {
	eventStore *store.EventStore
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewEventHandler(es *store.EventStore, hub *websocket.Hub, logger *slog.Logger) *EventHandler {
	return &EventHandler{eventStore: es, hub: hub, logger: logger}
}

type eventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Recurring   bool       `json:"recurring"`
	Date        string     `json:"date"`     // "YYYY-MM-DD", one-shot only
	Weekday     int        `json:"weekday"`  // 0=Sunday..6=Saturday, recurring only
	EndDate     string     `json:"end_date"` // "YYYY-MM-DD", recurring only, optional
	StartTime   string     `json:"start_time"`
	EndTime     string     `json:"end_time"`
}

// parseAndValidate turns the request body into a definition ready for the
// store, or writes the error response and reports false.
func (h *EventHandler) parseAndValidate(r *http.Request, w http.ResponseWriter) (*model.EventDefinition, bool) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return nil, false
	}

	if req.Category == "" {
		req.Category = model.CategoryOther
	}
	if !model.ValidCategory(req.Category) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category"})
		return nil, false
	}

	if _, err := time.Parse("15:04", req.StartTime); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "start_time must be HH:MM"})
		return nil, false
	}
	if req.EndTime != "" {
		if _, err := time.Parse("15:04", req.EndTime); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_time must be HH:MM"})
			return nil, false
		}
	}

	def := &model.EventDefinition{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Location:    strings.TrimSpace(req.Location),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Recurring:   req.Recurring,
		Weekday:     req.Weekday,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}

	if req.Recurring {
		if req.Weekday < 0 || req.Weekday > 6 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weekday must be 0 (Sunday) through 6 (Saturday)"})
			return nil, false
		}
		if req.EndDate != "" {
			end, err := time.Parse("2006-01-02", req.EndDate)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "end_date must be YYYY-MM-DD"})
				return nil, false
			}
			def.EndDate = &end
		}
	} else {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return nil, false
		}
		def.Date = date
	}

	return def, true
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageEvents(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "leader role required"})
		return
	}

	def, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	memberID := auth.MemberID(r.Context())
	def.CreatedBy = &memberID

	created, err := h.eventStore.Create(def)
	if err != nil {
		h.logger.Error("create event", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create event"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityEvent, websocket.ActionCreated, created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventStore.List()
	if err != nil {
		h.logger.Error("list events", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list events"})
		return
	}
	if events == nil {
		events = []model.EventDefinition{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	event, err := h.eventStore.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "event_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if event == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	writeJSON(w, http.StatusOK, event)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageEvents(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "leader role required"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.eventStore.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "event_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	def, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	updated, err := h.eventStore.Update(id, def)
	if err != nil {
		h.logger.Error("update event", "event_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update event"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityEvent, websocket.ActionUpdated, id, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !auth.CanManageEvents(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "leader role required"})
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.eventStore.GetByID(id)
	if err != nil {
		h.logger.Error("get event", "event_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get event"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
		return
	}

	if err := h.eventStore.Delete(id); err != nil {
		h.logger.Error("delete event", "event_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete event"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityEvent, websocket.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}
