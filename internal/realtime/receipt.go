package realtime

import (
	"context"
	"log/slog"
	"time"

	"chatcore/internal/store"
	"chatcore/internal/ws"
)

type ReceiptHandler struct {
	store *store.Store
	hub   *ws.Hub
	log   *slog.Logger
}

func NewReceiptHandler(st *store.Store, hub *ws.Hub, log *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{store: st, hub: hub, log: log}
}

// HandleRead marks lastReadAt, then upserts a READ receipt for every earlier
// message from someone else the user hasn't already read, notifying each
// original sender.
func (h *ReceiptHandler) HandleRead(ctx context.Context, conn *ws.Connection, payload ws.ChatReadPayload) {
	userID := conn.UserID()
	now := time.Now().UTC()

	if err := h.store.UpdateLastReadAt(payload.ConversationID, userID, now); err != nil {
		h.log.Warn("failed to update lastReadAt", "error", err)
	}

	target, err := h.store.MessageByID(payload.MessageID)
	if err != nil || target.ConversationID != payload.ConversationID {
		return
	}

	candidates, err := h.store.UndeliveredReadCandidates(payload.ConversationID, userID, *target)
	if err != nil {
		h.log.Warn("failed to load read candidates", "error", err)
		return
	}

	for _, m := range candidates {
		if err := h.store.UpsertRead(m.ID, userID, now); err != nil {
			h.log.Warn("failed to upsert read receipt", "error", err)
			continue
		}
		h.hub.SendToUser(m.SenderID, ws.Frame{
			Type: ws.TypeChatRead,
			Payload: mustMarshal(map[string]string{
				"messageId":      m.ID,
				"conversationId": payload.ConversationID,
				"readBy":         userID,
			}),
		})
	}
}
