package store

import (
	"time"

	"gorm.io/gorm"

	"chatcore/internal/models"
)

// FindDirectConversation returns the DIRECT conversation containing both
// userA and userB, or gorm.ErrRecordNotFound. This is "exists a participant
// row with userA AND exists a participant row with userB on the same
// conversation", not "any participant in {userA,userB}".
func (s *Store) FindDirectConversation(userA, userB string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.
		Joins("JOIN conversation_participants p1 ON p1.conversation_id = conversations.id AND p1.user_id = ?", userA).
		Joins("JOIN conversation_participants p2 ON p2.conversation_id = conversations.id AND p2.user_id = ?", userB).
		Where("conversations.type = ?", models.ConversationDirect).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// CreateDirectConversation inserts a new DIRECT conversation with two
// participant rows in one transaction.
func (s *Store) CreateDirectConversation(userA, userB, convID string) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:        convID,
		Type:      models.ConversationDirect,
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(conv).Error; err != nil {
			return err
		}
		parts := []models.ConversationParticipant{
			{ConversationID: conv.ID, UserID: userA, Role: models.RoleMember, JoinedAt: now()},
			{ConversationID: conv.ID, UserID: userB, Role: models.RoleMember, JoinedAt: now()},
		}
		return tx.Create(&parts).Error
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *Store) ConversationByID(id string) (*models.Conversation, error) {
	var conv models.Conversation
	if err := s.db.First(&conv, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationsForUser returns all conversations containing userID, sorted
// by updatedAt descending.
func (s *Store) ConversationsForUser(userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id AND cp.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Find(&convs).Error
	return convs, err
}

func (s *Store) TouchConversation(tx *gorm.DB, id string) error {
	return tx.Model(&models.Conversation{}).Where("id = ?", id).Update("updated_at", now()).Error
}

func (s *Store) Participants(convID string) ([]models.ConversationParticipant, error) {
	var parts []models.ConversationParticipant
	err := s.db.Where("conversation_id = ?", convID).Find(&parts).Error
	return parts, err
}

func (s *Store) Participant(convID, userID string) (*models.ConversationParticipant, error) {
	var p models.ConversationParticipant
	if err := s.db.First(&p, "conversation_id = ? AND user_id = ?", convID, userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) IsParticipant(convID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) UpdateLastReadAt(convID, userID string, at time.Time) error {
	return s.db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Update("last_read_at", at).Error
}

// UnreadCount counts messages authored by others, newer than lastReadAt (or
// all such messages when lastReadAt is nil), excluding tombstones.
func (s *Store) UnreadCount(convID, userID string, lastReadAt *time.Time) (int64, error) {
	q := s.db.Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND deleted_at IS NULL", convID, userID)
	if lastReadAt != nil {
		q = q.Where("created_at > ?", *lastReadAt)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

// LastMessage returns the most recent non-tombstoned message, or nil.
func (s *Store) LastMessage(convID string) (*models.Message, error) {
	var msg models.Message
	err := s.db.
		Where("conversation_id = ? AND deleted_at IS NULL", convID).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MessagesPage fetches up to limit+1 non-tombstoned messages ordered
// newest-first, seeking strictly older than cursor when supplied. The
// caller pops the extra row to compute hasMore.
func (s *Store) MessagesPage(convID string, cursor *models.Message, limit int) ([]models.Message, error) {
	q := s.db.Where("conversation_id = ? AND deleted_at IS NULL", convID)
	if cursor != nil {
		q = q.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var msgs []models.Message
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&msgs).Error
	return msgs, err
}

func (s *Store) MessageByID(id string) (*models.Message, error) {
	var msg models.Message
	if err := s.db.First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}
