package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/calebhs/koinonia/internal/auth"
	"github.com/calebhs/koinonia/internal/model"
	"github.com/calebhs/koinonia/internal/push"
	"github.com/calebhs/koinonia/internal/store"
)

const maxMessageLength = 2000

type MessageHandler struct {
	messageStore *store.MessageStore
	memberStore  *store.MemberStore
	scheduler    *push.Scheduler
	logger       *slog.Logger
}

func NewMessageHandler(ms *store.MessageStore, mem *store.MemberStore, scheduler *push.Scheduler, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		messageStore: ms,
		memberStore:  mem,
		scheduler:    scheduler,
		logger:       logger,
	}
}

// Send delivers a private message. The route carries a per-sender rate
// limit; this handler only validates and stores.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientID int64  `json:"recipient_id"`
		Body        string `json:"body"`
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
	if len(req.Body) > maxMessageLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body is too long"})
		return
	}

	senderID := auth.MemberID(r.Context())
	if req.RecipientID == senderID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot message yourself"})
		return
	}

	recipient, err := h.memberStore.GetByID(req.RecipientID)
	if err != nil {
		h.logger.Error("recipient lookup", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if recipient == nil || !recipient.Approved {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "recipient not found"})
		return
	}

	msg, err := h.messageStore.Create(senderID, req.RecipientID, req.Body)
	if err != nil {
		h.logger.Error("create message", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to send message"})
		return
	}

	if h.scheduler != nil {
		sender, err := h.memberStore.GetByID(senderID)
		senderName := "Someone"
		if err == nil && sender != nil {
			senderName = sender.Name
		}
		go h.scheduler.NotifyPrivateMessage(req.RecipientID, senderName)
	}

	writeJSON(w, http.StatusCreated, msg)
}

// Conversation returns the full thread between the caller and another
// member, oldest first, and marks the other side's messages read.
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	otherID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	memberID := auth.MemberID(r.Context())
	messages, err := h.messageStore.ListConversation(memberID, otherID)
	if err != nil {
		h.logger.Error("list conversation", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load conversation"})
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	if err := h.messageStore.MarkRead(memberID, otherID); err != nil {
		h.logger.Error("mark read", "error", err)
	}

	writeJSON(w, http.StatusOK, messages)
}

func (h *MessageHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.messageStore.UnreadCount(auth.MemberID(r.Context()))
	if err != nil {
		h.logger.Error("unread count", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count unread"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}
