package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/model"
	"github.com/calebhs/koinonia/internal/store"
)

const defaultLeaderboardSize = 10

type XPHandler struct {
	xpStore *store.XPStore
	logger  *slog.Logger
}

func NewXPHandler(xs *store.XPStore, logger *slog.Logger) *XPHandler {
	return &XPHandler{xpStore: xs, logger: logger}
}

func (h *XPHandler) Balance(w http.ResponseWriter, r *http.Request) {
	memberID := auth.MemberID(r.Context())
	total, err := h.xpStore.Total(memberID)
	if err != nil {
		h.logger.Error("xp total", "member_id", memberID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get balance"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id":     memberID,
		"total":         total,
		"level":         model.LevelFor(total),
		"next_level_at": model.NextLevelAt(total),
	})
}

func (h *XPHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	board, err := h.xpStore.Leaderboard(limit)
	if err != nil {
		h.logger.Error("leaderboard", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load leaderboard"})
		return
	}
	if board == nil {
		board = []model.XPBalance{}
	}
	for i := range board {
		board[i].Level = model.LevelFor(board[i].Total)
	}

	writeJSON(w, http.StatusOK, board)
}
