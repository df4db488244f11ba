// Package models defines the persisted entities of the messaging core.
package models

import "time"

// ConversationType discriminates direct chats from groups.
type ConversationType string

const (
	ConversationDirect ConversationType = "DIRECT"
	ConversationGroup  ConversationType = "GROUP"
)

// ParticipantRole is ignored for DIRECT conversations.
type ParticipantRole string

const (
	RoleAdmin  ParticipantRole = "ADMIN"
	RoleMember ParticipantRole = "MEMBER"
)

// ContentType enumerates the kinds of message payload the core understands.
type ContentType string

const (
	ContentText   ContentType = "TEXT"
	ContentImage  ContentType = "IMAGE"
	ContentFile   ContentType = "FILE"
	ContentAudio  ContentType = "AUDIO"
	ContentVideo  ContentType = "VIDEO"
	ContentSystem ContentType = "SYSTEM"
)

// ReceiptStatus is monotonic: DELIVERED may be overwritten by READ, never the reverse.
type ReceiptStatus string

const (
	ReceiptDelivered ReceiptStatus = "DELIVERED"
	ReceiptRead      ReceiptStatus = "READ"
)

// DeletedContentPlaceholder overwrites a tombstoned message's content.
const DeletedContentPlaceholder = "This message was deleted"

type User struct {
	ID           string `gorm:"type:uuid;primaryKey"`
	Username     string `gorm:"size:30;uniqueIndex;not null"`
	Email        string `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:50;not null"`
	AvatarURL    string `gorm:"size:500"`
	Bio          string `gorm:"size:200"`
	IsOnline     bool   `gorm:"not null;default:false"`
	LastSeen     *time.Time
	CreatedAt    time.Time `gorm:"not null"`
}

// PublicUser is the subset of User exposed to other users (no email, no hash).
type PublicUser struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"displayName"`
	AvatarURL   string     `json:"avatarUrl,omitempty"`
	Bio         string     `json:"bio,omitempty"`
	IsOnline    bool       `json:"isOnline"`
	LastSeen    *time.Time `json:"lastSeen,omitempty"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Bio:         u.Bio,
		IsOnline:    u.IsOnline,
		LastSeen:    u.LastSeen,
	}
}

// RefreshToken is an opaque, single-use bearer string bound to a user.
type RefreshToken struct {
	Token     string `gorm:"type:uuid;primaryKey"`
	UserID    string `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Conversation struct {
	ID        string           `gorm:"type:uuid;primaryKey"`
	Type      ConversationType `gorm:"type:varchar(10);not null"`
	CreatedAt time.Time        `gorm:"not null"`
	UpdatedAt time.Time        `gorm:"not null;index"`
}

type ConversationParticipant struct {
	ConversationID string          `gorm:"type:uuid;primaryKey;uniqueIndex:idx_conv_user"`
	UserID         string          `gorm:"type:uuid;primaryKey;uniqueIndex:idx_conv_user"`
	Role           ParticipantRole `gorm:"type:varchar(10);not null"`
	JoinedAt       time.Time       `gorm:"not null"`
	LastReadAt     *time.Time
}

type Message struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	ConversationID string `gorm:"type:uuid;not null;index:idx_messages_history,priority:1"`
	SenderID       string `gorm:"type:uuid;not null"`
	Content        string `gorm:"type:text;not null"`
	ContentType    ContentType `gorm:"type:varchar(10);not null"`
	ReplyToID      *string `gorm:"type:uuid"`
	CreatedAt      time.Time `gorm:"not null;index:idx_messages_history,priority:2,sort:desc"`
	EditedAt       *time.Time
	DeletedAt      *time.Time
}

func (m Message) IsDeleted() bool { return m.DeletedAt != nil }

type MessageReceipt struct {
	MessageID string        `gorm:"type:uuid;primaryKey;uniqueIndex:idx_receipt_msg_user"`
	UserID    string        `gorm:"type:uuid;primaryKey;uniqueIndex:idx_receipt_msg_user"`
	Status    ReceiptStatus `gorm:"type:varchar(10);not null"`
	Timestamp time.Time     `gorm:"not null"`
}

type Group struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	ConversationID string `gorm:"type:uuid;uniqueIndex;not null"`
	Name           string `gorm:"size:100;not null"`
	Description    string `gorm:"size:500"`
	IconURL        string `gorm:"size:500"`
	CreatedBy      string `gorm:"type:uuid;not null"`
}

type Contact struct {
	OwnerUserID   string `gorm:"type:uuid;primaryKey;uniqueIndex:idx_contact_pair"`
	ContactUserID string `gorm:"type:uuid;primaryKey;uniqueIndex:idx_contact_pair"`
	Nickname      string `gorm:"size:50"`
	CreatedAt     time.Time
}

type Block struct {
	BlockerUserID string `gorm:"type:uuid;primaryKey;uniqueIndex:idx_block_pair"`
	BlockedUserID string `gorm:"type:uuid;primaryKey;uniqueIndex:idx_block_pair"`
	CreatedAt     time.Time
}
