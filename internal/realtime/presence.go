package realtime

import (
	"context"
	"log/slog"
	"time"

	"chatcore/internal/store"
	"chatcore/internal/ws"
)

// PresenceHandler broadcasts online/offline transitions. Presence is
// scoped to conversation-neighbors; strangers never see it.
type PresenceHandler struct {
	store *store.Store
	hub   *ws.Hub
	log   *slog.Logger
}

func NewPresenceHandler(st *store.Store, hub *ws.Hub, log *slog.Logger) *PresenceHandler {
	return &PresenceHandler{store: st, hub: hub, log: log}
}

// OnAuthenticated fires once per successful WS authentication. Presence is
// only broadcast when this is the user's first connection: the hub already
// added the connection before this is called, so IsUserOnline being true
// with a single connection id present means "just went online".
func (h *PresenceHandler) OnAuthenticated(ctx context.Context, userID string, isFirstConnection bool) {
	if !isFirstConnection {
		return
	}
	if err := h.store.SetOnline(userID, true); err != nil {
		h.log.Warn("failed to mark user online", "error", err)
	}
	h.broadcast(userID, "online", nil)
}

// OnDisconnected fires whenever a connection is removed. It broadcasts
// offline only once the user's last connection is gone.
func (h *PresenceHandler) OnDisconnected(ctx context.Context, userID string) {
	if h.hub.IsUserOnline(userID) {
		return
	}
	now := time.Now().UTC()
	if err := h.store.SetOnline(userID, false); err != nil {
		h.log.Warn("failed to mark user offline", "error", err)
	}
	h.broadcast(userID, "offline", &now)
}

func (h *PresenceHandler) broadcast(userID, status string, lastSeen *time.Time) {
	neighbors, err := h.store.Neighbors(userID)
	if err != nil {
		h.log.Warn("failed to load presence neighbors", "error", err)
		return
	}

	payload := map[string]interface{}{"userId": userID, "status": status}
	if lastSeen != nil {
		payload["lastSeen"] = lastSeen.UnixMilli()
	}
	frame := ws.Frame{Type: ws.TypePresence, Payload: mustMarshal(payload)}

	for _, n := range neighbors {
		h.hub.SendToUser(n, frame)
	}
}
