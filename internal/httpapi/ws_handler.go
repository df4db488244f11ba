package httpapi

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"chatcore/internal/auth"
	"chatcore/internal/realtime"
	"chatcore/internal/ws"
)

// WSHandler upgrades the HTTP connection and hands it to the hub,
// authenticating via an in-band auth frame rather than a query-string token.
type WSHandler struct {
	hub        *ws.Hub
	dispatcher *ws.Dispatcher
	presence   *realtime.PresenceHandler
	insecure   bool
	log        *slog.Logger
}

func NewWSHandler(hub *ws.Hub, dispatcher *ws.Dispatcher, presence *realtime.PresenceHandler, insecureSkipVerify bool, log *slog.Logger) *WSHandler {
	return &WSHandler{hub: hub, dispatcher: dispatcher, presence: presence, insecure: insecureSkipVerify, log: log}
}

func (h *WSHandler) Handle(c *gin.Context) {
	opts := &websocket.AcceptOptions{}
	if h.insecure {
		opts.InsecureSkipVerify = true
	}

	conn, err := websocket.Accept(c.Writer, c.Request, opts)
	if err != nil {
		return
	}

	connID := uuid.NewString()
	connection := h.hub.Add(connID, ws.NewSocket(conn))

	ctx := c.Request.Context()
	defer h.disconnect(connection)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		h.hub.Pong(connID)
		h.dispatcher.Dispatch(ctx, connection, data)
	}
}

func (h *WSHandler) disconnect(conn *ws.Connection) {
	userID, hadLast := h.hub.Remove(conn.ID)
	if userID == "" {
		return
	}
	if hadLast {
		h.presence.OnDisconnected(context.Background(), userID)
	}
}

// AuthenticateFn adapts the token service to the dispatcher's Authenticate hook.
func AuthenticateFn(tokens *auth.Service) func(ctx context.Context, token string) (string, error) {
	return func(ctx context.Context, token string) (string, error) {
		identity, err := tokens.VerifyAccess(token)
		if err != nil {
			return "", err
		}
		return identity.UserID, nil
	}
}
