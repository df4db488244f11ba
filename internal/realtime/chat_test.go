package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chatcore/internal/models"
	"chatcore/internal/store"
	"chatcore/internal/ws"
)

type fakeSocket struct {
	mu     sync.Mutex
	writes []ws.Frame
}

func newFakeSocket() *fakeSocket { return &fakeSocket{} }

func (f *fakeSocket) WriteJSON(ctx context.Context, v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if frame, ok := v.(ws.Frame); ok {
		f.writes = append(f.writes, frame)
	}
	return nil
}

func (f *fakeSocket) ReadJSON(ctx context.Context, v interface{}) error { return nil }
func (f *fakeSocket) Ping(ctx context.Context) error                   { return nil }
func (f *fakeSocket) Close(code int, reason string) error              { return nil }

func (f *fakeSocket) framesOfType(t string) []ws.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ws.Frame
	for _, fr := range f.writes {
		if fr.Type == t {
			out = append(out, fr)
		}
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRealtimeStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	st := store.New(db)
	require.NoError(t, st.AutoMigrate())
	return st
}

func seedRealtimeUser(t *testing.T, st *store.Store, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID: uuid.NewString(), Username: username, Email: username + "@example.com",
		PasswordHash: "hash", DisplayName: username, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateUser(u))
	return u
}

// TestChatSendDeliversAndUpsertsDeliveredReceipt checks that a
// message sent to an online recipient results in a chat:receive frame to
// the recipient, a chat:sent ack to the sender, a DELIVERED receipt row,
// and a chat:delivered frame back to the sender carrying the real
// conversation id.
func TestChatSendDeliversAndUpsertsDeliveredReceipt(t *testing.T) {
	st := newTestRealtimeStore(t)
	alice := seedRealtimeUser(t, st, "alice")
	bob := seedRealtimeUser(t, st, "bob")
	conv, err := st.CreateDirectConversation(alice.ID, bob.ID, uuid.NewString())
	require.NoError(t, err)

	hub := ws.NewHub(discardLogger(), ws.NoopBroadcaster{})
	senderSocket := newFakeSocket()
	senderConn := hub.Add("sender-conn", senderSocket)
	hub.Authenticate(senderConn.ID, alice.ID)

	recipientSocket := newFakeSocket()
	recipientConn := hub.Add("recipient-conn", recipientSocket)
	hub.Authenticate(recipientConn.ID, bob.ID)

	handler := NewChatHandler(st, hub, discardLogger())
	handler.Send(context.Background(), senderConn, "client-1", ws.ChatSendPayload{
		ConversationID: conv.ID,
		Content:        "hello bob",
	})

	require.Eventually(t, func() bool {
		return len(senderSocket.framesOfType(ws.TypeChatSent)) == 1 &&
			len(recipientSocket.framesOfType(ws.TypeChatReceive)) == 1 &&
			len(senderSocket.framesOfType(ws.TypeChatDelivered)) == 1
	}, time.Second, 10*time.Millisecond)

	delivered := senderSocket.framesOfType(ws.TypeChatDelivered)[0]
	var payload map[string]string
	require.NoError(t, json.Unmarshal(delivered.Payload, &payload))
	require.Equal(t, conv.ID, payload["conversationId"], "delivered frame must carry the real conversation id")
	require.NotEmpty(t, payload["messageId"])

	receipt, err := st.Receipt(payload["messageId"], bob.ID)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	require.Equal(t, models.ReceiptDelivered, receipt.Status)
}

func TestChatSendRejectsNonParticipant(t *testing.T) {
	st := newTestRealtimeStore(t)
	alice := seedRealtimeUser(t, st, "alice")
	bob := seedRealtimeUser(t, st, "bob")
	carol := seedRealtimeUser(t, st, "carol")
	conv, err := st.CreateDirectConversation(alice.ID, bob.ID, uuid.NewString())
	require.NoError(t, err)

	hub := ws.NewHub(discardLogger(), ws.NoopBroadcaster{})
	socket := newFakeSocket()
	conn := hub.Add("c1", socket)
	hub.Authenticate(conn.ID, carol.ID)

	handler := NewChatHandler(st, hub, discardLogger())
	handler.Send(context.Background(), conn, "client-1", ws.ChatSendPayload{
		ConversationID: conv.ID,
		Content:        "should fail",
	})

	require.Eventually(t, func() bool { return len(socket.framesOfType(ws.TypeError)) == 1 }, time.Second, 10*time.Millisecond)
	var payload ws.ErrorPayload
	require.NoError(t, json.Unmarshal(socket.framesOfType(ws.TypeError)[0].Payload, &payload))
	require.Equal(t, "client-1", socket.framesOfType(ws.TypeError)[0].ReplyTo)
	require.Equal(t, "SEND_FAILED", payload.Code)
}
