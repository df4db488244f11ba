package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chatcore/internal/models"
	"chatcore/internal/store"
)

func newTestContactRouter(t *testing.T) (*gin.Engine, *store.Store, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	st := store.New(db)
	require.NoError(t, st.AutoMigrate())

	owner := &models.User{
		ID: uuid.NewString(), Username: "alice", Email: "alice@example.com",
		PasswordHash: "hash", DisplayName: "Alice", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateUser(owner))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewContactHandler(st, log)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(contextUserIDKey, owner.ID)
		c.Next()
	})
	r.GET("/contacts", handler.List)
	r.POST("/contacts", handler.Add)
	r.DELETE("/contacts/:userId", handler.Remove)
	r.GET("/blocks", handler.ListBlocks)
	r.POST("/blocks", handler.AddBlock)
	r.DELETE("/blocks/:userId", handler.RemoveBlock)

	return r, st, owner.ID
}

func TestAddContactThenListReturnsIt(t *testing.T) {
	r, st, ownerID := newTestContactRouter(t)
	target := &models.User{
		ID: uuid.NewString(), Username: "bob", Email: "bob@example.com",
		PasswordHash: "hash", DisplayName: "Bob", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateUser(target))

	body, _ := json.Marshal(addContactRequest{UserID: target.ID, Nickname: "Bobby"})
	req := httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/contacts", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Contact `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, target.ID, resp.Data[0].ContactUserID)
	require.Equal(t, ownerID, resp.Data[0].OwnerUserID)
}

func TestAddContactRejectsSelf(t *testing.T) {
	r, _, ownerID := newTestContactRouter(t)

	body, _ := json.Marshal(addContactRequest{UserID: ownerID})
	req := httptest.NewRequest(http.MethodPost, "/contacts", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveContactIsIdempotent(t *testing.T) {
	r, _, _ := newTestContactRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/contacts/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestAddBlockThenListReturnsIt(t *testing.T) {
	r, st, ownerID := newTestContactRouter(t)
	target := &models.User{
		ID: uuid.NewString(), Username: "carol", Email: "carol@example.com",
		PasswordHash: "hash", DisplayName: "Carol", CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateUser(target))

	body, _ := json.Marshal(addBlockRequest{UserID: target.ID})
	req := httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	blocked, err := st.IsBlocked(ownerID, target.ID)
	require.NoError(t, err)
	require.True(t, blocked)

	req = httptest.NewRequest(http.MethodGet, "/blocks", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []models.Block `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, target.ID, resp.Data[0].BlockedUserID)

	req = httptest.NewRequest(http.MethodDelete, "/blocks/"+target.ID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	blocked, err = st.IsBlocked(ownerID, target.ID)
	require.NoError(t, err)
	require.False(t, blocked)
}
