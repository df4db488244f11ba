package store

import (
	"time"

	"chatcore/internal/models"
)

func (s *Store) CreateRefreshToken(rt *models.RefreshToken) error {
	return s.db.Create(rt).Error
}

func (s *Store) RefreshTokenByValue(token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := s.db.First(&rt, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (s *Store) DeleteRefreshToken(token string) error {
	return s.db.Delete(&models.RefreshToken{}, "token = ?", token).Error
}

func (s *Store) DeleteExpiredRefreshTokens(before time.Time) error {
	return s.db.Delete(&models.RefreshToken{}, "expires_at < ?", before).Error
}

func (s *Store) DeleteAllRefreshTokensForUser(userID string) error {
	return s.db.Delete(&models.RefreshToken{}, "user_id = ?", userID).Error
}
