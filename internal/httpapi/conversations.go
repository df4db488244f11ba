package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chatcore/internal/apperr"
	"chatcore/internal/chatsvc"
)

type ConversationHandler struct {
	conversations *chatsvc.ConversationService
	log           *slog.Logger
}

func NewConversationHandler(svc *chatsvc.ConversationService, log *slog.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: svc, log: log}
}

type createDirectRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *ConversationHandler) CreateDirect(c *gin.Context) {
	var req createDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}

	conv, err := h.conversations.GetOrCreateDirect(mustUserID(c), req.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

func (h *ConversationHandler) List(c *gin.Context) {
	summaries, err := h.conversations.ListForUser(mustUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summaries})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.conversations.Get(c.Param("id"), mustUserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 100 {
		limit = 100
	}

	page, err := h.conversations.GetMessages(c.Param("id"), mustUserID(c), c.Query("cursor"), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	resp := gin.H{"data": page.Messages, "hasMore": page.HasMore}
	if page.HasMore {
		resp["nextCursor"] = page.NextCursor
	}
	c.JSON(http.StatusOK, resp)
}
