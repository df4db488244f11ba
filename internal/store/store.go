// Package store is the only component that constructs queries; every other
// component consumes the typed entity objects it returns.
package store

import (
	"time"

	"gorm.io/gorm"

	"chatcore/internal/models"
)

// Store wraps a *gorm.DB with the composite-key lookups the messaging core
// needs. Required indexes (message history, participant/receipt/token
// uniqueness, contact/block pairs) are declared on the models themselves
// via GORM tags and created by AutoMigrate.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB { return s.db }

// AutoMigrate registers every persisted entity.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
		&models.MessageReceipt{},
		&models.Group{},
		&models.Contact{},
		&models.Block{},
	)
}

// Transaction runs fn inside a single transaction. Used for the two
// operations that must stay atomic: group creation, and message send plus
// the conversation's updatedAt bump.
func (s *Store) Transaction(fn func(tx *gorm.DB) error) error {
	return s.db.Transaction(fn)
}

func now() time.Time { return time.Now().UTC() }
