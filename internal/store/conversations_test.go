package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"chatcore/internal/models"
)

func seedUser(t *testing.T, st *Store, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		DisplayName:  username,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, st.CreateUser(u))
	return u
}

func TestFindDirectConversationRequiresBothParticipants(t *testing.T) {
	st := newTestStore(t)
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	carol := seedUser(t, st, "carol")

	_, err := st.FindDirectConversation(alice.ID, bob.ID)
	require.ErrorIs(t, err, ErrNotFound)

	conv, err := st.CreateDirectConversation(alice.ID, bob.ID, uuid.NewString())
	require.NoError(t, err)

	found, err := st.FindDirectConversation(alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, conv.ID, found.ID)

	// A conversation containing alice does not match a query for alice+carol.
	_, err = st.FindDirectConversation(alice.ID, carol.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMessagesPageCursorConcatenationMatchesUnlimitedQuery(t *testing.T) {
	st := newTestStore(t)
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	conv, err := st.CreateDirectConversation(alice.ID, bob.ID, uuid.NewString())
	require.NoError(t, err)

	const total = 7
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < total; i++ {
		msg := &models.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       alice.ID,
			Content:        "msg",
			ContentType:    models.ContentText,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.CreateMessage(msg))
	}

	// Page through with limit 3 and reassemble newest-first order.
	var pages [][]models.Message
	var cursor *models.Message
	for {
		rows, err := st.MessagesPage(conv.ID, cursor, 3)
		require.NoError(t, err)
		if len(rows) == 0 {
			break
		}
		pages = append(pages, rows)
		cursor = &rows[len(rows)-1]
		if len(rows) < 3 {
			break
		}
	}

	seen := make(map[string]bool)
	var flat []models.Message
	for _, page := range pages {
		for _, m := range page {
			require.False(t, seen[m.ID], "duplicate message across pages")
			seen[m.ID] = true
			flat = append(flat, m)
		}
	}
	require.Len(t, flat, total)

	all, err := st.MessagesPage(conv.ID, nil, total+1)
	require.NoError(t, err)
	require.Len(t, all, total)
	for i := range all {
		require.Equal(t, all[i].ID, flat[i].ID)
	}
}

func TestUnreadCountExcludesOwnMessagesAndRespectsLastReadAt(t *testing.T) {
	st := newTestStore(t)
	alice := seedUser(t, st, "alice")
	bob := seedUser(t, st, "bob")
	conv, err := st.CreateDirectConversation(alice.ID, bob.ID, uuid.NewString())
	require.NoError(t, err)

	now := time.Now().UTC()
	older := &models.Message{ID: uuid.NewString(), ConversationID: conv.ID, SenderID: bob.ID, Content: "a", ContentType: models.ContentText, CreatedAt: now.Add(-time.Minute)}
	require.NoError(t, st.CreateMessage(older))

	count, err := st.UnreadCount(conv.ID, alice.ID, nil)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	require.NoError(t, st.UpdateLastReadAt(conv.ID, alice.ID, now))

	newer := &models.Message{ID: uuid.NewString(), ConversationID: conv.ID, SenderID: bob.ID, Content: "b", ContentType: models.ContentText, CreatedAt: now.Add(time.Minute)}
	require.NoError(t, st.CreateMessage(newer))

	count, err = st.UnreadCount(conv.ID, alice.ID, &now)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	fromSelf := &models.Message{ID: uuid.NewString(), ConversationID: conv.ID, SenderID: alice.ID, Content: "c", ContentType: models.ContentText, CreatedAt: now.Add(2 * time.Minute)}
	require.NoError(t, st.CreateMessage(fromSelf))

	count, err = st.UnreadCount(conv.ID, alice.ID, &now)
	require.NoError(t, err)
	require.EqualValues(t, 1, count, "own messages must not count as unread")
}
