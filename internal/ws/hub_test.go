package ws

import (
	"context"
	"log/slog"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSocket struct {
	mu      sync.Mutex
	writes  []Frame
	closed  bool
	closeCode int
}

func newFakeSocket() *fakeSocket { return &fakeSocket{} }

func (f *fakeSocket) WriteJSON(ctx context.Context, v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if frame, ok := v.(Frame); ok {
		f.writes = append(f.writes, frame)
	}
	return nil
}

func (f *fakeSocket) ReadJSON(ctx context.Context, v interface{}) error { return nil }
func (f *fakeSocket) Ping(ctx context.Context) error                   { return nil }
func (f *fakeSocket) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeCode = code
	return nil
}

func (f *fakeSocket) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHubAddAuthenticateRemove(t *testing.T) {
	hub := NewHub(discardLogger(), NoopBroadcaster{})
	socket := newFakeSocket()

	conn := hub.Add("c1", socket)
	assert.False(t, conn.IsAuthenticated())
	assert.False(t, hub.IsUserOnline("u1"))

	hub.Authenticate("c1", "u1")
	assert.True(t, conn.IsAuthenticated())
	assert.True(t, hub.IsUserOnline("u1"))
	assert.Equal(t, 1, hub.ConnectionsForUser("u1"))

	userID, hadLast := hub.Remove("c1")
	assert.Equal(t, "u1", userID)
	assert.True(t, hadLast)
	assert.False(t, hub.IsUserOnline("u1"))
}

func TestHubMultiDevice(t *testing.T) {
	hub := NewHub(discardLogger(), NoopBroadcaster{})

	hub.Add("c1", newFakeSocket())
	hub.Authenticate("c1", "u1")
	hub.Add("c2", newFakeSocket())
	hub.Authenticate("c2", "u1")

	assert.Equal(t, 2, hub.ConnectionsForUser("u1"))

	_, hadLast := hub.Remove("c1")
	assert.False(t, hadLast, "closing one of two devices should not report last-connection")
	assert.True(t, hub.IsUserOnline("u1"))

	_, hadLast = hub.Remove("c2")
	assert.True(t, hadLast)
	assert.False(t, hub.IsUserOnline("u1"))
}

func TestHubSendToUserFanOutToEveryDevice(t *testing.T) {
	hub := NewHub(discardLogger(), NoopBroadcaster{})

	s1, s2 := newFakeSocket(), newFakeSocket()
	hub.Add("c1", s1)
	hub.Authenticate("c1", "u1")
	hub.Add("c2", s2)
	hub.Authenticate("c2", "u1")

	sent := hub.SendToUser("u1", Frame{Type: "chat:receive"})
	require.True(t, sent)

	// writePump drains asynchronously; give it a moment.
	require.Eventually(t, func() bool {
		return s1.writeCount() == 1 && s2.writeCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHubSendToUserWithNoConnectionsReturnsFalse(t *testing.T) {
	hub := NewHub(discardLogger(), NoopBroadcaster{})
	assert.False(t, hub.SendToUser("ghost", Frame{Type: "presence:update"}))
}
