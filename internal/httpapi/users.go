package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatcore/internal/apperr"
	"chatcore/internal/store"
)

type UserHandler struct {
	store *store.Store
	log   *slog.Logger
}

func NewUserHandler(st *store.Store, log *slog.Logger) *UserHandler {
	return &UserHandler{store: st, log: log}
}

// Me returns the caller's full profile including email.
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.store.UserByID(mustUserID(c))
	if err != nil {
		respondError(c, h.log, apperr.NotFoundf("USER_NOT_FOUND", "user not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"displayName": user.DisplayName,
		"avatarUrl":   user.AvatarURL,
		"bio":         user.Bio,
		"isOnline":    user.IsOnline,
		"lastSeen":    user.LastSeen,
		"createdAt":   user.CreatedAt,
	})
}

// GetByID returns the public profile of another user, no email.
func (h *UserHandler) GetByID(c *gin.Context) {
	user, err := h.store.UserByID(c.Param("id"))
	if err != nil {
		respondError(c, h.log, apperr.NotFoundf("USER_NOT_FOUND", "user not found"))
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	AvatarURL   *string `json:"avatarUrl"`
	Bio         *string `json:"bio"`
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}

	user, err := h.store.UserByID(mustUserID(c))
	if err != nil {
		respondError(c, h.log, apperr.NotFoundf("USER_NOT_FOUND", "user not found"))
		return
	}

	if req.DisplayName != nil {
		if len(*req.DisplayName) < 1 || len(*req.DisplayName) > 50 {
			respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", "displayName must be 1-50 chars"))
			return
		}
		user.DisplayName = *req.DisplayName
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}
	if req.Bio != nil {
		if len(*req.Bio) > 200 {
			respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", "bio must be at most 200 chars"))
			return
		}
		user.Bio = *req.Bio
	}

	if err := h.store.UpdateUser(user); err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// Search does a case-insensitive substring match, max 20, excludes caller.
func (h *UserHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"data": []interface{}{}})
		return
	}
	users, err := h.store.SearchUsers(query, mustUserID(c), 20)
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	public := make([]interface{}, 0, len(users))
	for _, u := range users {
		public = append(public, u.Public())
	}
	c.JSON(http.StatusOK, gin.H{"data": public})
}
