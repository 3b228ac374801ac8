package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/store"
	"github.com/calebhs/koinonia/internal/websocket"
)

const (
	maxPostLength    = 2000
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

type PostHandler struct {
	postStore *store.PostStore
	hub       *websocket.Hub
	logger    *slog.Logger
}

func NewPostHandler(ps *store.PostStore, hub *websocket.Hub, logger *slog.Logger) *PostHandler {
	return &PostHandler{postStore: ps, hub: hub, logger: logger}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body      string `json:"body"`
		IsPrayer  bool   `json:"is_prayer"`
		Anonymous bool   `json:"anonymous"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is required"})
		return
	}
	if len(req.Body) > maxPostLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is too long"})
		return
	}
	// Anonymity only applies to prayer requests.
	if req.Anonymous && !req.IsPrayer {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "only prayer requests can be anonymous"})
		return
	}

	post, err := h.postStore.Create(auth.MemberID(r.Context()), req.Body, req.IsPrayer, req.Anonymous)
	if err != nil {
		h.logger.Error("create post", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create post"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPost, websocket.ActionCreated, post.ID, map[string]any{"prayer": post.IsPrayer}))
	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		if n > maxFeedLimit {
			n = maxFeedLimit
		}
		limit = n
	}

	posts, err := h.postStore.List(limit)
	if err != nil {
		h.logger.Error("list posts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list posts"})
		return
	}

	// Anonymous prayer requests keep their author id server-side for
	// moderation but never expose it to other members.
	callerIsAdmin := auth.IsAdmin(r.Context())
	out := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		entry := map[string]any{
			"id":         p.ID,
			"body":       p.Body,
			"is_prayer":  p.IsPrayer,
			"anonymous":  p.Anonymous,
			"pinned":     p.Pinned,
			"created_at": p.CreatedAt,
			"updated_at": p.UpdatedAt,
		}
		if !p.Anonymous || callerIsAdmin || p.MemberID == auth.MemberID(r.Context()) {
			entry["member_id"] = p.MemberID
		}
		out = append(out, entry)
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.postStore.GetByID(id)
	if err != nil {
		h.logger.Error("get post", "post_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get post"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	if existing.MemberID != auth.MemberID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your post"})
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Body = strings.TrimSpace(req.Body)
	if req.Body == "" || len(req.Body) > maxPostLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is required"})
		return
	}

	post, err := h.postStore.Update(id, req.Body)
	if err != nil {
		h.logger.Error("update post", "post_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update post"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPost, websocket.ActionUpdated, id, nil))
	writeJSON(w, http.StatusOK, post)
}

// TogglePin pins or unpins a post at the top of the feed. Admin only.
func (h *PostHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	post, err := h.postStore.TogglePinned(id)
	if err != nil {
		h.logger.Error("toggle pin", "post_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to toggle pin"})
		return
	}
	if post == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPost, websocket.ActionPinned, id, nil))
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.postStore.GetByID(id)
	if err != nil {
		h.logger.Error("get post", "post_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get post"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "post not found"})
		return
	}
	if existing.MemberID != auth.MemberID(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your post"})
		return
	}

	if err := h.postStore.Delete(id); err != nil {
		h.logger.Error("delete post", "post_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete post"})
		return
	}

	h.hub.Broadcast(websocket.NewMessage(websocket.EntityPost, websocket.ActionDeleted, id, nil))
	w.WriteHeader(http.StatusNoContent)
}
