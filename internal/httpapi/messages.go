package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatcore/internal/apperr"
	"chatcore/internal/models"
	"chatcore/internal/store"
	"chatcore/internal/ws"
)

const (
	editWindow   = 15 * time.Minute
	deleteWindow = 1 * time.Hour
	searchCap    = 50
)

type MessageHandler struct {
	store *store.Store
	hub   *ws.Hub
	log   *slog.Logger
}

func NewMessageHandler(st *store.Store, hub *ws.Hub, log *slog.Logger) *MessageHandler {
	return &MessageHandler{store: st, hub: hub, log: log}
}

type editMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// Edit allows the sender to edit a TEXT message within a 15 minute window.
func (h *MessageHandler) Edit(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}

	msg, err := h.store.MessageByID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, apperr.NotFoundf("MESSAGE_NOT_FOUND", "message not found"))
		return
	}
	userID := mustUserID(c)
	if msg.SenderID != userID {
		respondError(c, h.log, apperr.Forbiddenf("FORBIDDEN", "cannot edit another user's message"))
		return
	}
	if msg.ContentType != models.ContentText {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", "only TEXT messages can be edited"))
		return
	}
	if time.Since(msg.CreatedAt) > editWindow {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", "edit window has expired"))
		return
	}

	msg.Content = req.Content
	now := time.Now().UTC()
	msg.EditedAt = &now
	if err := h.store.UpdateMessage(msg); err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}

	h.broadcastToOthers(msg.ConversationID, userID, ws.Frame{
		Type: ws.TypeChatEdited,
		Payload: mustMarshalHTTP(map[string]interface{}{
			"messageId":      msg.ID,
			"conversationId": msg.ConversationID,
			"newContent":     msg.Content,
			"editedAt":       msg.EditedAt.UnixMilli(),
		}),
	})
	c.JSON(http.StatusOK, msg)
}

// Delete implements "delete for everyone": sender-only, within 1 hour.
func (h *MessageHandler) Delete(c *gin.Context) {
	msg, err := h.store.MessageByID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, apperr.NotFoundf("MESSAGE_NOT_FOUND", "message not found"))
		return
	}
	userID := mustUserID(c)
	if msg.SenderID != userID {
		respondError(c, h.log, apperr.Forbiddenf("FORBIDDEN", "cannot delete another user's message"))
		return
	}
	if time.Since(msg.CreatedAt) > deleteWindow {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", "delete window has expired"))
		return
	}

	now := time.Now().UTC()
	msg.DeletedAt = &now
	msg.Content = models.DeletedContentPlaceholder
	if err := h.store.UpdateMessage(msg); err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}

	frame := ws.Frame{
		Type: ws.TypeChatDeleted,
		Payload: mustMarshalHTTP(map[string]string{
			"messageId":      msg.ID,
			"conversationId": msg.ConversationID,
		}),
	}
	parts, err := h.store.Participants(msg.ConversationID)
	if err == nil {
		for _, p := range parts {
			h.hub.SendToUser(p.UserID, frame)
		}
	}
	c.Status(http.StatusOK)
}

type forwardRequest struct {
	MessageID       string   `json:"messageId" binding:"required"`
	ConversationIDs []string `json:"conversationIds" binding:"required"`
}

// Forward duplicates content into every target conversation the caller
// participates in, fanning out chat:receive the same way a live send does.
func (h *MessageHandler) Forward(c *gin.Context) {
	var req forwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}

	original, err := h.store.MessageByID(req.MessageID)
	if err != nil {
		respondError(c, h.log, apperr.NotFoundf("MESSAGE_NOT_FOUND", "message not found"))
		return
	}

	userID := mustUserID(c)
	created := make([]models.Message, 0, len(req.ConversationIDs))
	for _, convID := range req.ConversationIDs {
		ok, err := h.store.IsParticipant(convID, userID)
		if err != nil || !ok {
			continue
		}
		msg := &models.Message{
			ID:             uuid.NewString(),
			ConversationID: convID,
			SenderID:       userID,
			Content:        original.Content,
			ContentType:    original.ContentType,
			CreatedAt:      time.Now().UTC(),
		}
		if err := h.store.CreateMessage(msg); err != nil {
			h.log.Warn("failed to forward message", "error", err)
			continue
		}
		created = append(created, *msg)
		h.broadcastReceive(*msg, userID)
	}

	c.JSON(http.StatusCreated, gin.H{"data": created})
}

func (h *MessageHandler) Search(c *gin.Context) {
	userID := mustUserID(c)
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"data": []interface{}{}})
		return
	}

	convs, err := h.store.ConversationsForUser(userID)
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	convIDs := make([]string, 0, len(convs))
	for _, conv := range convs {
		convIDs = append(convIDs, conv.ID)
	}

	limit := searchCap
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n < searchCap {
			limit = n
		}
	}

	msgs, err := h.store.SearchMessages(convIDs, strings.TrimSpace(query), c.Query("conversationId"), limit)
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": msgs})
}

type unreadConversation struct {
	ConversationID string `json:"conversationId"`
	Count          int64  `json:"count"`
}

func (h *MessageHandler) UnreadSummary(c *gin.Context) {
	userID := mustUserID(c)
	convs, err := h.store.ConversationsForUser(userID)
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}

	summary := make([]unreadConversation, 0, len(convs))
	var total int64
	for _, conv := range convs {
		p, err := h.store.Participant(conv.ID, userID)
		if err != nil {
			continue
		}
		count, err := h.store.UnreadCount(conv.ID, userID, p.LastReadAt)
		if err != nil {
			continue
		}
		if count > 0 {
			summary = append(summary, unreadConversation{ConversationID: conv.ID, Count: count})
		}
		total += count
	}
	c.JSON(http.StatusOK, gin.H{"data": summary, "total": total})
}

func (h *MessageHandler) broadcastToOthers(convID, excludeUserID string, frame ws.Frame) {
	parts, err := h.store.Participants(convID)
	if err != nil {
		return
	}
	for _, p := range parts {
		if p.UserID == excludeUserID {
			continue
		}
		h.hub.SendToUser(p.UserID, frame)
	}
}

func (h *MessageHandler) broadcastReceive(msg models.Message, senderID string) {
	sender, err := h.store.UserByID(senderID)
	senderName := senderID
	if err == nil {
		senderName = sender.DisplayName
	}
	frame := ws.Frame{
		Type: ws.TypeChatReceive,
		Payload: mustMarshalHTTP(map[string]interface{}{
			"messageId":      msg.ID,
			"senderId":       senderID,
			"senderName":     senderName,
			"conversationId": msg.ConversationID,
			"content":        msg.Content,
			"contentType":    string(msg.ContentType),
			"timestamp":      msg.CreatedAt.UnixMilli(),
		}),
	}
	h.broadcastToOthers(msg.ConversationID, senderID, frame)
}
