package ws

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	heartbeatInterval = 30 * time.Second
	authTimeout       = 5 * time.Second
	sendBuffer        = 64
)

// connState is the connection lifecycle: OPEN_UNAUTH -> OPEN_AUTH -> CLOSED.
type connState int32

const (
	stateOpenUnauth connState = iota
	stateOpenAuth
	stateClosed
)

// Connection is one live socket. The connections map is the authoritative
// owner; the byUser index is derived from it.
type Connection struct {
	ID     string
	Socket Socket

	mu     sync.Mutex
	userID string
	state  connState

	alive atomic.Bool
	send  chan Frame

	authTimer *time.Timer
	cancel    context.CancelFunc
}

func (c *Connection) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Connection) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateOpenAuth
}

// Hub owns two process-wide indices: connectionId -> connection, and
// userId -> set of connectionIds. All mutation is serialized behind mu.
type Hub struct {
	log *slog.Logger

	mu     sync.RWMutex
	conns  map[string]*Connection
	byUser map[string]map[string]struct{}

	broadcaster Broadcaster
}

func NewHub(log *slog.Logger, broadcaster Broadcaster) *Hub {
	return &Hub{
		log:         log,
		conns:       make(map[string]*Connection),
		byUser:      make(map[string]map[string]struct{}),
		broadcaster: broadcaster,
	}
}

// Add inserts a new connection with aliveFlag=true and arms the 5s
// auth-handshake timer.
func (h *Hub) Add(connID string, socket Socket) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	conn := &Connection{
		ID:     connID,
		Socket: socket,
		state:  stateOpenUnauth,
		send:   make(chan Frame, sendBuffer),
		cancel: cancel,
	}
	conn.alive.Store(true)

	h.mu.Lock()
	h.conns[connID] = conn
	h.mu.Unlock()

	conn.authTimer = time.AfterFunc(authTimeout, func() {
		h.handleAuthTimeout(conn)
	})

	go h.writePump(ctx, conn)
	return conn
}

func (h *Hub) handleAuthTimeout(conn *Connection) {
	conn.mu.Lock()
	already := conn.state != stateOpenUnauth
	conn.mu.Unlock()
	if already {
		return
	}
	_ = conn.Socket.WriteJSON(context.Background(), Frame{
		Type:    TypeAuthError,
		Payload: marshalPayload(ErrorPayload{Message: "authentication timed out"}),
	})
	_ = conn.Socket.Close(CloseAuthTimeout, "authentication timeout")
	h.Remove(conn.ID)
}

// Authenticate sets the connection's userID and adds it to the byUser
// index, cancelling the auth timer.
func (h *Hub) Authenticate(connID, userID string) *Connection {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return nil
	}
	if h.byUser[userID] == nil {
		h.byUser[userID] = make(map[string]struct{})
	}
	h.byUser[userID][connID] = struct{}{}
	h.mu.Unlock()

	conn.mu.Lock()
	conn.userID = userID
	conn.state = stateOpenAuth
	if conn.authTimer != nil {
		conn.authTimer.Stop()
	}
	conn.mu.Unlock()

	return conn
}

// Remove detaches connID from both indices and returns the now-detached
// userID, if any.
func (h *Hub) Remove(connID string) (userID string, hadUser bool) {
	h.mu.Lock()
	conn, ok := h.conns[connID]
	if !ok {
		h.mu.Unlock()
		return "", false
	}
	delete(h.conns, connID)

	conn.mu.Lock()
	userID = conn.userID
	if conn.authTimer != nil {
		conn.authTimer.Stop()
	}
	conn.state = stateClosed
	conn.mu.Unlock()

	if userID != "" {
		if set, ok := h.byUser[userID]; ok {
			delete(set, connID)
			if len(set) == 0 {
				delete(h.byUser, userID)
				hadUser = true
			}
		}
	}
	h.mu.Unlock()

	conn.cancel()
	return userID, hadUser
}

// IsUserOnline is true iff the user's connection set is non-empty.
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

// ConnectionsForUser reports how many live connections userID currently
// has, used to tell a first-device authentication from an additional one.
func (h *Hub) ConnectionsForUser(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// SendToUser writes frame to every OPEN socket for userID and returns
// whether at least one write was attempted (non-blocking, best-effort).
func (h *Hub) SendToUser(userID string, frame Frame) bool {
	h.mu.RLock()
	connIDs := make([]string, 0, len(h.byUser[userID]))
	for id := range h.byUser[userID] {
		connIDs = append(connIDs, id)
	}
	conns := make([]*Connection, 0, len(connIDs))
	for _, id := range connIDs {
		if c, ok := h.conns[id]; ok {
			conns = append(conns, c)
		}
	}
	h.mu.RUnlock()

	sent := false
	for _, c := range conns {
		select {
		case c.send <- frame:
			sent = true
		default:
			h.log.Warn("dropping frame to slow connection", "connId", c.ID, "type", frame.Type)
		}
	}
	if h.broadcaster != nil {
		_ = h.broadcaster.Publish(context.Background(), userID, frame)
	}
	return sent
}

// Pong marks a connection alive. The read loop calls it for every inbound
// message; heartbeatTick also marks a connection alive once its ping is
// answered by a pong.
func (h *Hub) Pong(connID string) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if ok {
		conn.alive.Store(true)
	}
}

func (h *Hub) writePump(ctx context.Context, conn *Connection) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-conn.send:
			if err := conn.Socket.WriteJSON(ctx, frame); err != nil {
				h.log.Debug("write failed, dropping connection", "connId", conn.ID, "error", err)
				h.Remove(conn.ID)
				return
			}
		}
	}
}

// RunHeartbeat visits every socket every 30s; any socket whose aliveFlag is
// still false from the previous tick is forcibly terminated, otherwise the
// flag is reset and a ping is sent.
func (h *Hub) RunHeartbeat(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.heartbeatTick(ctx)
		}
	}
}

func (h *Hub) heartbeatTick(ctx context.Context) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if !c.alive.CompareAndSwap(true, false) {
			h.log.Info("heartbeat timeout, closing connection", "connId", c.ID)
			_ = c.Socket.Close(1000, "heartbeat timeout")
			h.Remove(c.ID)
			continue
		}
		go func(c *Connection) {
			// Ping returns nil only after the peer's pong has arrived.
			if err := c.Socket.Ping(ctx); err != nil {
				h.log.Debug("ping failed", "connId", c.ID, "error", err)
				return
			}
			c.alive.Store(true)
		}(c)
	}
}

// Shutdown closes every socket with the server-shutdown close code, then
// cancels each connection's write pump, waiting at most deadline for that.
// Frames still queued in a connection's send buffer are not flushed.
func (h *Hub) Shutdown(deadline time.Duration) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.Socket.Close(CloseServerShutdown, "server shutting down")
	}

	done := make(chan struct{})
	go func() {
		for _, c := range conns {
			c.cancel()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(deadline):
		h.log.Warn("shutdown deadline exceeded, forcing exit")
	}
}

// ConnectionCount and OnlineUserCount back the /health endpoint.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) OnlineUserCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}
