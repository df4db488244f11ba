package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"chatcore/internal/apperr"
)

// Handlers is the set of per-type routes the dispatcher delegates to. auth
// is handled inline by the dispatcher itself since it drives hub state.
type Handlers struct {
	Authenticate func(ctx context.Context, token string) (userID string, err error)
	ChatSend     func(ctx context.Context, conn *Connection, frameID string, payload ChatSendPayload)
	ChatRead     func(ctx context.Context, conn *Connection, payload ChatReadPayload)
	ChatTyping   func(ctx context.Context, conn *Connection, payload ChatTypingPayload)
	OnAuthenticated func(ctx context.Context, conn *Connection, userID string)
}

// Dispatcher runs every inbound frame through parse, shape validation,
// auth gate, payload schema, and routing to the matching handler.
type Dispatcher struct {
	hub      *Hub
	handlers Handlers
	log      *slog.Logger
}

func NewDispatcher(hub *Hub, handlers Handlers, log *slog.Logger) *Dispatcher {
	return &Dispatcher{hub: hub, handlers: handlers, log: log}
}

// Dispatch runs one inbound frame through parse -> shape validation ->
// auth gate -> payload schema -> route.
func (d *Dispatcher) Dispatch(ctx context.Context, conn *Connection, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		d.sendError(ctx, conn, "INVALID_MESSAGE", "malformed frame", "")
		return
	}

	if frame.Type == "" {
		d.sendError(ctx, conn, "INVALID_MESSAGE", "missing frame type", frame.ID)
		return
	}

	if !conn.IsAuthenticated() && frame.Type != TypeAuth {
		d.sendError(ctx, conn, apperr.WSCode(apperr.Authentication), "not authenticated", frame.ID)
		return
	}

	switch frame.Type {
	case TypeAuth:
		d.handleAuth(ctx, conn, frame)
	case TypeChatSend:
		var payload ChatSendPayload
		if !d.decode(ctx, conn, frame, &payload) {
			return
		}
		d.handlers.ChatSend(ctx, conn, frame.ID, payload)
	case TypeChatRead:
		var payload ChatReadPayload
		if !d.decode(ctx, conn, frame, &payload) {
			return
		}
		d.handlers.ChatRead(ctx, conn, payload)
	case TypeChatTyping:
		var payload ChatTypingPayload
		if !d.decode(ctx, conn, frame, &payload) {
			return
		}
		d.handlers.ChatTyping(ctx, conn, payload)
	default:
		d.sendError(ctx, conn, "UNKNOWN_TYPE", "unknown frame type: "+frame.Type, frame.ID)
	}
}

func (d *Dispatcher) decode(ctx context.Context, conn *Connection, frame Frame, target interface{}) bool {
	if err := json.Unmarshal(frame.Payload, target); err != nil {
		d.sendError(ctx, conn, "INVALID_PAYLOAD", "malformed payload", frame.ID)
		return false
	}
	return true
}

func (d *Dispatcher) handleAuth(ctx context.Context, conn *Connection, frame Frame) {
	var payload AuthPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.Token == "" {
		d.sendAuthError(ctx, conn, "invalid auth payload")
		return
	}

	userID, err := d.handlers.Authenticate(ctx, payload.Token)
	if err != nil {
		d.sendAuthError(ctx, conn, "invalid or expired token")
		_ = conn.Socket.Close(CloseAuthTimeout, "invalid token")
		d.hub.Remove(conn.ID)
		return
	}

	d.hub.Authenticate(conn.ID, userID)
	_ = conn.Socket.WriteJSON(ctx, Frame{
		Type:    TypeAuthSuccess,
		Payload: marshalPayload(map[string]string{"userId": userID}),
		ReplyTo: frame.ID,
	})

	if d.handlers.OnAuthenticated != nil {
		d.handlers.OnAuthenticated(ctx, conn, userID)
	}
}

func (d *Dispatcher) sendAuthError(ctx context.Context, conn *Connection, message string) {
	_ = conn.Socket.WriteJSON(ctx, Frame{
		Type:    TypeAuthError,
		Payload: marshalPayload(ErrorPayload{Message: message}),
	})
}

func (d *Dispatcher) sendError(ctx context.Context, conn *Connection, code, message, replyTo string) {
	_ = conn.Socket.WriteJSON(ctx, Frame{
		Type:    TypeError,
		Payload: marshalPayload(ErrorPayload{Code: code, Message: message}),
		ReplyTo: replyTo,
	})
}
