package realtime

import (
	"context"
	"sync"
	"time"

	"chatcore/internal/store"
	"chatcore/internal/ws"
)

const typingTTL = 5 * time.Second

type typingKey struct {
	userID         string
	conversationID string
}

// TypingHandler rebroadcasts chat:typing with userID filled in, and owns
// the in-memory (userId, conversationId) -> timer map that auto-expires a
// typing indicator if no follow-up event arrives. Typing state is never
// persisted.
type TypingHandler struct {
	store *store.Store
	hub   *ws.Hub

	mu     sync.Mutex
	timers map[typingKey]*time.Timer
}

func NewTypingHandler(st *store.Store, hub *ws.Hub) *TypingHandler {
	return &TypingHandler{store: st, hub: hub, timers: make(map[typingKey]*time.Timer)}
}

func (h *TypingHandler) HandleTyping(ctx context.Context, conn *ws.Connection, payload ws.ChatTypingPayload) {
	userID := conn.UserID()
	h.broadcast(payload.ConversationID, userID, payload.IsTyping)

	key := typingKey{userID: userID, conversationID: payload.ConversationID}

	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.timers[key]; ok {
		existing.Stop()
		delete(h.timers, key)
	}

	if !payload.IsTyping {
		return
	}

	h.timers[key] = time.AfterFunc(typingTTL, func() {
		h.mu.Lock()
		delete(h.timers, key)
		h.mu.Unlock()
		// Re-check the user is still connected before broadcasting.
		if h.hub.IsUserOnline(userID) {
			h.broadcast(payload.ConversationID, userID, false)
		}
	})
}

func (h *TypingHandler) broadcast(conversationID, userID string, isTyping bool) {
	parts, err := h.store.Participants(conversationID)
	if err != nil {
		return
	}
	frame := ws.Frame{
		Type: ws.TypeChatTyping,
		Payload: mustMarshal(map[string]interface{}{
			"conversationId": conversationID,
			"userId":         userID,
			"isTyping":       isTyping,
		}),
	}
	for _, p := range parts {
		if p.UserID == userID {
			continue
		}
		h.hub.SendToUser(p.UserID, frame)
	}
}
