package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/calebhs/koinonia/internal/agenda"
	"github.com/calebhs/koinonia/internal/ical"
	"github.com/calebhs/koinonia/internal/store"
)

// AgendaHandler serves the resolved upcoming agenda. Every request resolves
// definitions fresh against "today" in the ministry's time zone; nothing is
// materialized.
type AgendaHandler struct {
	eventStore *store.EventStore
	loc        *time.Location
	logger     *slog.Logger
}

func NewAgendaHandler(es *store.EventStore, loc *time.Location, logger *slog.Logger) *AgendaHandler {
	return &AgendaHandler{eventStore: es, loc: loc, logger: logger}
}

// today returns the reference date for resolution. An explicit ?date=
// override exists so clients can preview a future week.
func (h *AgendaHandler) today(r *http.Request) (time.Time, error) {
	if s := r.URL.Query().Get("date"); s != "" {
		return time.ParseInLocation("2006-01-02", s, h.loc)
	}
	return time.Now().In(h.loc), nil
}

type agendaResponse struct {
	Date        string              `json:"date"`
	Occurrences []agenda.Occurrence `json:"occurrences"`
	SkippedIDs  []int64             `json:"skipped_ids,omitempty"`
}

func (h *AgendaHandler) Agenda(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	defs, err := h.eventStore.ListUpcoming(today)
	if err != nil {
		h.logger.Error("list upcoming events", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load agenda"})
		return
	}

	projection := agenda.Project(defs, today)
	if len(projection.SkippedIDs) > 0 {
		h.logger.Warn("skipped malformed event definitions", "ids", projection.SkippedIDs)
	}

	resp := agendaResponse{
		Date:        today.Format("2006-01-02"),
		Occurrences: projection.Occurrences,
		SkippedIDs:  projection.SkippedIDs,
	}
	if resp.Occurrences == nil {
		resp.Occurrences = []agenda.Occurrence{}
	}

	writeJSON(w, http.StatusOK, resp)
}

// ICS serves the same agenda as an iCalendar feed for calendar apps.
func (h *AgendaHandler) ICS(w http.ResponseWriter, r *http.Request) {
	today, err := h.today(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	defs, err := h.eventStore.ListUpcoming(today)
	if err != nil {
		h.logger.Error("list upcoming events", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load agenda"})
		return
	}

	projection := agenda.Project(defs, today)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="agenda.ics"`)
	w.Write([]byte(ical.Render(projection.Occurrences, h.loc)))
}
