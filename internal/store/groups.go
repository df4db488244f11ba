package store

import (
	"gorm.io/gorm"

	"chatcore/internal/models"
)

// CreateGroup creates the GROUP conversation, all participant rows, and the
// group row in a single transaction: a failure between them must not
// leave an orphan conversation.
func (s *Store) CreateGroup(conv *models.Conversation, participants []models.ConversationParticipant, group *models.Group) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		if err := tx.Create(&participants).Error; err != nil {
			return err
		}
		return tx.Create(group).Error
	})
}

func (s *Store) GroupByConversationID(convID string) (*models.Group, error) {
	var g models.Group
	if err := s.db.First(&g, "conversation_id = ?", convID).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) UpdateGroup(g *models.Group) error {
	return s.db.Save(g).Error
}

func (s *Store) AddParticipants(parts []models.ConversationParticipant) error {
	return s.db.Create(&parts).Error
}

func (s *Store) RemoveParticipant(convID, userID string) error {
	return s.db.Delete(&models.ConversationParticipant{}, "conversation_id = ? AND user_id = ?", convID, userID).Error
}

func (s *Store) UpdateParticipantRole(convID, userID string, role models.ParticipantRole) error {
	return s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Update("role", role).Error
}

// OldestParticipant returns the remaining participant with the earliest
// joinedAt, used for auto-promotion on last-admin departure.
func (s *Store) OldestParticipant(convID string) (*models.ConversationParticipant, error) {
	var p models.ConversationParticipant
	err := s.db.
		Where("conversation_id = ?", convID).
		Order("joined_at ASC").
		First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) HasAdmin(convID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND role = ?", convID, models.RoleAdmin).
		Count(&count).Error
	return count > 0, err
}
