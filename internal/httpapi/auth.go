package httpapi

import (
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"chatcore/internal/apperr"
	"chatcore/internal/auth"
	"chatcore/internal/models"
	"chatcore/internal/store"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

type AuthHandler struct {
	store  *store.Store
	tokens *auth.Service
	log    *slog.Logger
}

func NewAuthHandler(st *store.Store, tokens *auth.Service, log *slog.Logger) *AuthHandler {
	return &AuthHandler{store: st, tokens: tokens, log: log}
}

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}
	if !usernamePattern.MatchString(req.Username) {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", "username must be 3-30 chars of letters, digits, underscore"))
		return
	}
	if len(req.DisplayName) < 1 || len(req.DisplayName) > 50 {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", "displayName must be 1-50 chars"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.CreateUser(user); err != nil {
		respondError(c, h.log, apperr.Validationf("DUPLICATE", "username or email already registered"))
		return
	}

	tokens, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   user.Public(),
		"tokens": tokens,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// invalidCredentials is the shared response for wrong email and wrong
// password, so a caller can't distinguish which one was wrong.
const invalidCredentials = "Invalid email or password"

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}

	user, err := h.store.UserByEmail(req.Email)
	if err != nil {
		respondError(c, h.log, apperr.Authf("INVALID_CREDENTIALS", invalidCredentials))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respondError(c, h.log, apperr.Authf("INVALID_CREDENTIALS", invalidCredentials))
		return
	}

	tokens, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user.Public(),
		"tokens": tokens,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}

	tokens, err := h.tokens.Rotate(req.RefreshToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.log, apperr.Validationf("VALIDATION_ERROR", err.Error()))
		return
	}
	if err := h.tokens.Revoke(req.RefreshToken); err != nil {
		respondError(c, h.log, apperr.Internalf(err.Error()))
		return
	}
	c.Status(http.StatusOK)
}
