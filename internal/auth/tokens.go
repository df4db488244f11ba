// Package auth implements the token service (C1): short-lived signed
// access tokens plus single-use, rotating opaque refresh tokens.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"chatcore/internal/apperr"
	"chatcore/internal/models"
	"chatcore/internal/store"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Claims is the JWT payload for access tokens.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Identity is what verifyAccess yields on success.
type Identity struct {
	UserID   string
	Username string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	store  *store.Store
	secret []byte
}

func NewService(st *store.Store, secret string) *Service {
	return &Service{store: st, secret: []byte(secret)}
}

// Issue mints an access/refresh pair, persisting the refresh token.
func (s *Service) Issue(userID, username string) (TokenPair, error) {
	access, err := s.signAccess(userID, username)
	if err != nil {
		return TokenPair{}, apperr.Internalf(err.Error())
	}
	refresh := uuid.NewString()
	rt := &models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: time.Now().Add(refreshTokenTTL),
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateRefreshToken(rt); err != nil {
		return TokenPair{}, apperr.Internalf(err.Error())
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) signAccess(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyAccess fails with AUTHENTICATION_ERROR on signature or expiry.
func (s *Service) VerifyAccess(tokenStr string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, apperr.Authf("INVALID_TOKEN", "invalid or expired access token")
	}
	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// Rotate atomically deletes the presented refresh token and issues a new
// pair. Replay of an already-rotated token fails with INVALID_REFRESH.
func (s *Service) Rotate(refresh string) (TokenPair, error) {
	rt, err := s.store.RefreshTokenByValue(refresh)
	if err != nil {
		return TokenPair{}, apperr.Authf("INVALID_REFRESH", "invalid refresh token")
	}
	if time.Now().After(rt.ExpiresAt) {
		_ = s.store.DeleteRefreshToken(refresh)
		return TokenPair{}, apperr.Authf("INVALID_REFRESH", "refresh token expired")
	}
	if err := s.store.DeleteRefreshToken(refresh); err != nil {
		return TokenPair{}, apperr.Internalf(err.Error())
	}
	user, err := s.store.UserByID(rt.UserID)
	if err != nil {
		return TokenPair{}, apperr.Authf("INVALID_REFRESH", "invalid refresh token")
	}
	return s.Issue(user.ID, user.Username)
}

// Revoke deletes a refresh token outright (logout).
func (s *Service) Revoke(refresh string) error {
	return s.store.DeleteRefreshToken(refresh)
}
