package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chatcore/internal/apperr"
	"chatcore/internal/models"
	"chatcore/internal/store"
)

// ContactHandler exposes the CRUD surface for contacts and blocks,
// following the same handler-struct pattern as UserHandler.
type ContactHandler struct {
	store *store.Store
	log   *slog.Logger
}

func NewContactHandler(st *store.Store, log *slog.Logger) *ContactHandler {
	return &ContactHandler{store: st, log: log}
}

// List returns the caller's contacts.
func (h *ContactHandler) List(c *gin.Context) {
	contacts, err := h.store.Contacts(mustUserID(c))
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contacts})
}

type addContactRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Nickname string `json:"nickname"`
}

// Add creates a contact entry, rejecting self-add and unknown targets.
func (h *ContactHandler) Add(c *gin.Context) {
	var req addContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}

	ownerID := mustUserID(c)
	if req.UserID == ownerID {
		respondError(c, h.log, apperr.Validationf("SELF_CONTACT", "cannot add yourself as a contact"))
		return
	}

	exists, err := h.store.UserExists(req.UserID)
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	if !exists {
		respondError(c, h.log, apperr.NotFoundf("USER_NOT_FOUND", "target user does not exist"))
		return
	}

	contact := &models.Contact{
		OwnerUserID:   ownerID,
		ContactUserID: req.UserID,
		Nickname:      req.Nickname,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.store.AddContact(contact); err != nil {
		respondError(c, h.log, apperr.Validationf("CONTACT_EXISTS", "contact already added"))
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// Remove deletes a contact entry. Deleting a non-existent pair is a no-op.
func (h *ContactHandler) Remove(c *gin.Context) {
	if err := h.store.RemoveContact(mustUserID(c), c.Param("userId")); err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

type addBlockRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// AddBlock blocks a user, rejecting self-block.
func (h *ContactHandler) AddBlock(c *gin.Context) {
	var req addBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}

	blockerID := mustUserID(c)
	if req.UserID == blockerID {
		respondError(c, h.log, apperr.Validationf("SELF_BLOCK", "cannot block yourself"))
		return
	}

	exists, err := h.store.UserExists(req.UserID)
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	if !exists {
		respondError(c, h.log, apperr.NotFoundf("USER_NOT_FOUND", "target user does not exist"))
		return
	}

	block := &models.Block{
		BlockerUserID: blockerID,
		BlockedUserID: req.UserID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.store.AddBlock(block); err != nil {
		respondError(c, h.log, apperr.Validationf("BLOCK_EXISTS", "user already blocked"))
		return
	}
	c.JSON(http.StatusCreated, block)
}

// RemoveBlock unblocks a user. Unblocking a non-existent pair is a no-op.
func (h *ContactHandler) RemoveBlock(c *gin.Context) {
	if err := h.store.RemoveBlock(mustUserID(c), c.Param("userId")); err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBlocks returns every block the caller has placed.
func (h *ContactHandler) ListBlocks(c *gin.Context) {
	blocked, err := h.store.BlockedByUser(mustUserID(c))
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": blocked})
}
