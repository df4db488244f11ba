package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatcore/internal/models"
	"chatcore/internal/ws"
)

// TestHandleReadEmitsOrderedChatReadFramesToOriginalSenders checks that
// a bulk read past several unread messages from the same sender upserts a
// READ receipt for each and notifies the sender once per message, oldest
// first.
func TestHandleReadEmitsOrderedChatReadFramesToOriginalSenders(t *testing.T) {
	st := newTestRealtimeStore(t)
	alice := seedRealtimeUser(t, st, "alice")
	bob := seedRealtimeUser(t, st, "bob")
	conv, err := st.CreateDirectConversation(alice.ID, bob.ID, uuid.NewString())
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	var msgIDs []string
	for i := 0; i < 3; i++ {
		msg := &models.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       bob.ID,
			Content:        "hi",
			ContentType:    models.ContentText,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.CreateMessage(msg))
		msgIDs = append(msgIDs, msg.ID)
	}

	hub := ws.NewHub(discardLogger(), ws.NoopBroadcaster{})
	senderSocket := newFakeSocket()
	senderConn := hub.Add("sender-conn", senderSocket)
	hub.Authenticate(senderConn.ID, bob.ID)

	readerSocket := newFakeSocket()
	readerConn := hub.Add("reader-conn", readerSocket)
	hub.Authenticate(readerConn.ID, alice.ID)

	handler := NewReceiptHandler(st, hub, discardLogger())
	handler.HandleRead(context.Background(), readerConn, ws.ChatReadPayload{
		ConversationID: conv.ID,
		MessageID:      msgIDs[2],
	})

	require.Eventually(t, func() bool {
		return len(senderSocket.framesOfType(ws.TypeChatRead)) == 3
	}, time.Second, 10*time.Millisecond)

	frames := senderSocket.framesOfType(ws.TypeChatRead)
	var seenIDs []string
	for _, f := range frames {
		var payload map[string]string
		require.NoError(t, json.Unmarshal(f.Payload, &payload))
		require.Equal(t, conv.ID, payload["conversationId"])
		require.Equal(t, alice.ID, payload["readBy"])
		seenIDs = append(seenIDs, payload["messageId"])
	}
	require.Equal(t, msgIDs, seenIDs, "chat:read frames must arrive oldest first")

	for _, id := range msgIDs {
		receipt, err := st.Receipt(id, alice.ID)
		require.NoError(t, err)
		require.NotNil(t, receipt)
		require.Equal(t, models.ReceiptRead, receipt.Status)
	}
}

func TestHandleReadIgnoresMessageFromWrongConversation(t *testing.T) {
	st := newTestRealtimeStore(t)
	alice := seedRealtimeUser(t, st, "alice")
	bob := seedRealtimeUser(t, st, "bob")
	carol := seedRealtimeUser(t, st, "carol")
	convAB, err := st.CreateDirectConversation(alice.ID, bob.ID, uuid.NewString())
	require.NoError(t, err)
	convAC, err := st.CreateDirectConversation(alice.ID, carol.ID, uuid.NewString())
	require.NoError(t, err)

	msg := &models.Message{
		ID: uuid.NewString(), ConversationID: convAC.ID, SenderID: carol.ID,
		Content: "hi", ContentType: models.ContentText, CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateMessage(msg))

	hub := ws.NewHub(discardLogger(), ws.NoopBroadcaster{})
	readerConn := hub.Add("reader-conn", newFakeSocket())
	hub.Authenticate(readerConn.ID, alice.ID)

	handler := NewReceiptHandler(st, hub, discardLogger())
	handler.HandleRead(context.Background(), readerConn, ws.ChatReadPayload{
		ConversationID: convAB.ID,
		MessageID:      msg.ID,
	})

	receipt, err := st.Receipt(msg.ID, alice.ID)
	require.NoError(t, err)
	require.Nil(t, receipt, "reading with a mismatched conversationId/messageId pair must not upsert a receipt")
}
