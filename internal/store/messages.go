package store

import (
	"strings"

	"gorm.io/gorm"

	"chatcore/internal/models"
)

// CreateMessage persists a message and bumps the conversation's updatedAt
// in the same transaction.
func (s *Store) CreateMessage(msg *models.Message) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return s.TouchConversation(tx, msg.ConversationID)
	})
}

func (s *Store) UpdateMessage(msg *models.Message) error {
	return s.db.Save(msg).Error
}

// SearchMessages does a case-insensitive substring match on content,
// excluding tombstones, restricted to the given conversation ids, newest
// first, capped at limit.
func (s *Store) SearchMessages(convIDs []string, query string, scopeConvID string, limit int) ([]models.Message, error) {
	q := s.db.Where("conversation_id IN ? AND deleted_at IS NULL", convIDs).
		Where("LOWER(content) LIKE ?", "%"+strings.ToLower(query)+"%")
	if scopeConvID != "" {
		q = q.Where("conversation_id = ?", scopeConvID)
	}
	var msgs []models.Message
	err := q.Order("created_at DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

// UndeliveredReadCandidates returns every message in convID whose
// createdAt <= target.createdAt, whose sender is not userID, and for which
// userID has no READ receipt yet.
func (s *Store) UndeliveredReadCandidates(convID, userID string, upTo models.Message) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.
		Where("conversation_id = ? AND sender_id != ? AND created_at <= ?", convID, userID, upTo.CreatedAt).
		Where("id NOT IN (?)", s.db.Model(&models.MessageReceipt{}).
			Select("message_id").
			Where("user_id = ? AND status = ?", userID, models.ReceiptRead)).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}
