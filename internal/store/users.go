package store

import (
	"strings"

	"gorm.io/gorm"

	"chatcore/internal/models"
)

func (s *Store) CreateUser(u *models.User) error {
	return s.db.Create(u).Error
}

func (s *Store) UserByID(id string) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByEmail(email string) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserByUsername(username string) (*models.User, error) {
	var u models.User
	if err := s.db.First(&u, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UserExists(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) UsersExist(ids []string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}
	var count int64
	if err := s.db.Model(&models.User{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return false, err
	}
	return int(count) == len(uniqueStrings(ids)), nil
}

func (s *Store) UpdateUser(u *models.User) error {
	return s.db.Save(u).Error
}

// SearchUsers does a case-insensitive substring match on username, excluding
// the caller, capped at limit results.
func (s *Store) SearchUsers(query string, excludeUserID string, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.
		Where("id != ?", excludeUserID).
		Where("LOWER(username) LIKE ?", "%"+strings.ToLower(query)+"%").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (s *Store) SetOnline(userID string, online bool) error {
	updates := map[string]interface{}{"is_online": online}
	if !online {
		updates["last_seen"] = now()
	}
	return s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

var ErrNotFound = gorm.ErrRecordNotFound
