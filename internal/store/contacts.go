package store

import "chatcore/internal/models"

func (s *Store) AddContact(c *models.Contact) error {
	return s.db.Create(c).Error
}

func (s *Store) RemoveContact(ownerID, contactID string) error {
	return s.db.Delete(&models.Contact{}, "owner_user_id = ? AND contact_user_id = ?", ownerID, contactID).Error
}

func (s *Store) Contacts(ownerID string) ([]models.Contact, error) {
	var contacts []models.Contact
	err := s.db.Where("owner_user_id = ?", ownerID).Find(&contacts).Error
	return contacts, err
}

func (s *Store) AddBlock(b *models.Block) error {
	return s.db.Create(b).Error
}

func (s *Store) RemoveBlock(blockerID, blockedID string) error {
	return s.db.Delete(&models.Block{}, "blocker_user_id = ? AND blocked_user_id = ?", blockerID, blockedID).Error
}

// IsBlocked is symmetric: true if either user has blocked the other.
func (s *Store) IsBlocked(userA, userB string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Block{}).
		Where("(blocker_user_id = ? AND blocked_user_id = ?) OR (blocker_user_id = ? AND blocked_user_id = ?)",
			userA, userB, userB, userA).
		Count(&count).Error
	return count > 0, err
}

// BlockedByUser lists every block blockerID has placed.
func (s *Store) BlockedByUser(blockerID string) ([]models.Block, error) {
	var blocks []models.Block
	err := s.db.Where("blocker_user_id = ?", blockerID).Find(&blocks).Error
	return blocks, err
}
