package ws

import (
	"context"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// Socket is the minimal transport surface the hub needs, kept narrow so
// tests can substitute an in-memory fake instead of a real connection.
type Socket interface {
	WriteJSON(ctx context.Context, v interface{}) error
	ReadJSON(ctx context.Context, v interface{}) error
	Ping(ctx context.Context) error
	Close(code int, reason string) error
}

// wsSocket adapts nhooyr.io/websocket.Conn to Socket, using wsjson for
// framing.
type wsSocket struct {
	conn *websocket.Conn
}

func NewSocket(conn *websocket.Conn) Socket {
	return &wsSocket{conn: conn}
}

func (s *wsSocket) WriteJSON(ctx context.Context, v interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return wsjson.Write(writeCtx, s.conn, v)
}

func (s *wsSocket) ReadJSON(ctx context.Context, v interface{}) error {
	return wsjson.Read(ctx, s.conn, v)
}

func (s *wsSocket) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.conn.Ping(pingCtx)
}

func (s *wsSocket) Close(code int, reason string) error {
	return s.conn.Close(websocket.StatusCode(code), reason)
}
