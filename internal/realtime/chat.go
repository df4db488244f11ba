// Package realtime implements the chat, receipt, and presence/typing
// handlers (C7-C9) that sit behind the frame dispatcher.
package realtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatcore/internal/apperr"
	"chatcore/internal/models"
	"chatcore/internal/store"
	"chatcore/internal/ws"
)

type ChatHandler struct {
	store *store.Store
	hub   *ws.Hub
	log   *slog.Logger
}

func NewChatHandler(st *store.Store, hub *ws.Hub, log *slog.Logger) *ChatHandler {
	return &ChatHandler{store: st, hub: hub, log: log}
}

type chatReceivePayload struct {
	MessageID      string      `json:"messageId"`
	SenderID       string      `json:"senderId"`
	SenderName     string      `json:"senderName"`
	ConversationID string      `json:"conversationId"`
	Content        string      `json:"content"`
	ContentType    string      `json:"contentType"`
	Timestamp      int64       `json:"timestamp"`
	ReplyTo        interface{} `json:"replyTo,omitempty"`
}

type replyPreview struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	SenderID  string `json:"senderId"`
}

// Send validates and persists an outgoing message, then acks the sender and
// fans it out to the other participants. Validation failures write a typed
// error frame back to the sender with replyTo=clientMessageId; delivery to
// each recipient afterward is best-effort and never fails the overall send.
func (h *ChatHandler) Send(ctx context.Context, conn *ws.Connection, clientMessageID string, payload ws.ChatSendPayload) {
	senderID := conn.UserID()

	isParticipant, err := h.store.IsParticipant(payload.ConversationID, senderID)
	if err != nil {
		h.sendError(ctx, conn, apperr.Internalf(err.Error()), clientMessageID)
		return
	}
	if !isParticipant {
		h.sendError(ctx, conn, apperr.Forbiddenf("SEND_FAILED", "not a participant of this conversation"), clientMessageID)
		return
	}

	var replyToID *string
	var replyMsg *models.Message
	if payload.ReplyToMessageID != "" {
		msg, err := h.store.MessageByID(payload.ReplyToMessageID)
		if err != nil {
			h.sendError(ctx, conn, apperr.NotFoundf("NOT_FOUND", "reply target not found"), clientMessageID)
			return
		}
		if msg.ConversationID != payload.ConversationID {
			h.sendError(ctx, conn, apperr.NotFoundf("NOT_FOUND", "reply target is not in this conversation"), clientMessageID)
			return
		}
		replyToID = &msg.ID
		replyMsg = msg
	}

	contentType := models.ContentText
	if payload.ContentType != "" {
		contentType = models.ContentType(strings.ToUpper(payload.ContentType))
	}
	if !validContentType(contentType) {
		h.sendError(ctx, conn, apperr.Validationf("INVALID_CONTENT_TYPE", "unknown contentType"), clientMessageID)
		return
	}

	now := time.Now().UTC()
	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: payload.ConversationID,
		SenderID:       senderID,
		Content:        payload.Content,
		ContentType:    contentType,
		ReplyToID:      replyToID,
		CreatedAt:      now,
	}
	if err := h.store.CreateMessage(msg); err != nil {
		h.sendError(ctx, conn, apperr.Internalf(err.Error()), clientMessageID)
		return
	}

	_ = conn.Socket.WriteJSON(ctx, ws.Frame{
		Type: ws.TypeChatSent,
		Payload: mustMarshal(map[string]interface{}{
			"clientMessageId": clientMessageID,
			"messageId":       msg.ID,
			"timestamp":       msg.CreatedAt.UnixMilli(),
		}),
		ReplyTo: clientMessageID,
	})

	h.fanout(ctx, msg, senderID, replyMsg)
}

func (h *ChatHandler) fanout(ctx context.Context, msg *models.Message, senderID string, replyMsg *models.Message) {
	parts, err := h.store.Participants(msg.ConversationID)
	if err != nil {
		h.log.Warn("failed to load participants for fanout", "error", err)
		return
	}

	sender, err := h.store.UserByID(senderID)
	senderName := senderID
	if err == nil {
		senderName = sender.DisplayName
	}

	var reply interface{}
	if replyMsg != nil {
		reply = replyPreview{MessageID: replyMsg.ID, Content: replyMsg.Content, SenderID: replyMsg.SenderID}
	}

	frame := ws.Frame{
		Type: ws.TypeChatReceive,
		Payload: mustMarshal(chatReceivePayload{
			MessageID:      msg.ID,
			SenderID:       senderID,
			SenderName:     senderName,
			ConversationID: msg.ConversationID,
			Content:        msg.Content,
			ContentType:    string(msg.ContentType),
			Timestamp:      msg.CreatedAt.UnixMilli(),
			ReplyTo:        reply,
		}),
	}

	for _, p := range parts {
		if p.UserID == senderID {
			continue
		}
		delivered := h.hub.SendToUser(p.UserID, frame)
		if delivered {
			if err := h.store.UpsertDelivered(msg.ID, p.UserID, time.Now().UTC()); err != nil {
				h.log.Warn("failed to upsert delivered receipt", "error", err)
				continue
			}
			// Carry the real conversation id so the sender can route the
			// delivered receipt without a follow-up lookup.
			h.hub.SendToUser(senderID, ws.Frame{
				Type: ws.TypeChatDelivered,
				Payload: mustMarshal(map[string]string{
					"messageId":      msg.ID,
					"conversationId": msg.ConversationID,
				}),
			})
		}
	}
}

func (h *ChatHandler) sendError(ctx context.Context, conn *ws.Connection, err *apperr.Error, replyTo string) {
	_ = conn.Socket.WriteJSON(ctx, ws.Frame{
		Type: ws.TypeError,
		Payload: mustMarshal(ws.ErrorPayload{
			Code:    apperr.WSCode(err.Kind),
			Message: err.Message,
		}),
		ReplyTo: replyTo,
	})
}

func validContentType(ct models.ContentType) bool {
	switch ct {
	case models.ContentText, models.ContentImage, models.ContentFile, models.ContentAudio, models.ContentVideo, models.ContentSystem:
		return true
	default:
		return false
	}
}
