package store

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chatcore/internal/models"
)

// UpsertDelivered upserts a DELIVERED receipt without downgrading an
// existing READ receipt: the UPDATE clause is empty on conflict.
func (s *Store) UpsertDelivered(messageID, userID string, at time.Time) error {
	r := models.MessageReceipt{
		MessageID: messageID,
		UserID:    userID,
		Status:    models.ReceiptDelivered,
		Timestamp: at,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(&r).Error
}

// UpsertRead upserts a READ receipt; READ may overwrite DELIVERED.
func (s *Store) UpsertRead(messageID, userID string, at time.Time) error {
	r := models.MessageReceipt{
		MessageID: messageID,
		UserID:    userID,
		Status:    models.ReceiptRead,
		Timestamp: at,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "timestamp"}),
	}).Create(&r).Error
}

func (s *Store) Receipt(messageID, userID string) (*models.MessageReceipt, error) {
	var r models.MessageReceipt
	err := s.db.First(&r, "message_id = ? AND user_id = ?", messageID, userID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
