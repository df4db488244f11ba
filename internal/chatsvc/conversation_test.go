package chatsvc

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chatcore/internal/apperr"
	"chatcore/internal/models"
	"chatcore/internal/store"
)

func newTestConversationService(t *testing.T) (*ConversationService, *store.Store) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	st := store.New(db)
	require.NoError(t, st.AutoMigrate())

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewConversationService(st, log), st
}

func seedTestUser(t *testing.T, st *store.Store, username string) *models.User {
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

func TestGetOrCreateDirectIsIdempotentAndOrderIndependent(t *testing.T) {
	svc, st := newTestConversationService(t)
	alice := seedTestUser(t, st, "alice")
	bob := seedTestUser(t, st, "bob")

	convAB, err := svc.GetOrCreateDirect(alice.ID, bob.ID)
	require.NoError(t, err)

	convBA, err := svc.GetOrCreateDirect(bob.ID, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, convAB.ID, convBA.ID, "getOrCreateDirect(A,B) must equal getOrCreateDirect(B,A)")

	convAgain, err := svc.GetOrCreateDirect(alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, convAB.ID, convAgain.ID)
}

func TestGetOrCreateDirectRejectsSelfConversation(t *testing.T) {
	svc, st := newTestConversationService(t)
	alice := seedTestUser(t, st, "alice")

	_, err := svc.GetOrCreateDirect(alice.ID, alice.ID)
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.Validation, appErr.Kind)
}

func TestGetOrCreateDirectRejectsMissingUser(t *testing.T) {
	svc, st := newTestConversationService(t)
	alice := seedTestUser(t, st, "alice")

	_, err := svc.GetOrCreateDirect(alice.ID, uuid.NewString())
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.NotFound, appErr.Kind)
}

func TestGetForbidsNonParticipants(t *testing.T) {
	svc, st := newTestConversationService(t)
	alice := seedTestUser(t, st, "alice")
	bob := seedTestUser(t, st, "bob")
	carol := seedTestUser(t, st, "carol")

	conv, err := svc.GetOrCreateDirect(alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = svc.Get(conv.ID, carol.ID)
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.Forbidden, appErr.Kind)

	got, err := svc.Get(conv.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, got.ID)
}

func TestGetMessagesPaginatesToExhaustionWithoutDuplicates(t *testing.T) {
	svc, st := newTestConversationService(t)
	alice := seedTestUser(t, st, "alice")
	bob := seedTestUser(t, st, "bob")
	conv, err := svc.GetOrCreateDirect(alice.ID, bob.ID)
	require.NoError(t, err)

	const total = 5
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < total; i++ {
		msg := &models.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       alice.ID,
			Content:        "hello",
			ContentType:    models.ContentText,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.CreateMessage(msg))
	}

	seen := make(map[string]bool)
	cursor := ""
	pages := 0
	for {
		page, err := svc.GetMessages(conv.ID, alice.ID, cursor, 2)
		require.NoError(t, err)
		pages++
		for _, m := range page.Messages {
			require.False(t, seen[m.ID], "duplicate across pages")
			seen[m.ID] = true
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
		require.Less(t, pages, total+2, "pagination did not terminate")
	}

	assert.Len(t, seen, total)
}
