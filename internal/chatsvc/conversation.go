// Package chatsvc implements the conversation and group services.
package chatsvc

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"chatcore/internal/apperr"
	"chatcore/internal/models"
	"chatcore/internal/store"
)

type ConversationService struct {
	store *store.Store
	log   *slog.Logger
}

func NewConversationService(st *store.Store, log *slog.Logger) *ConversationService {
	return &ConversationService{store: st, log: log}
}

// ConversationSummary is the shape returned by ListConversations: the
// conversation itself plus the last message, participant roster, and
// unread count a client needs to render a conversation list row.
type ConversationSummary struct {
	Conversation models.Conversation
	Participants []models.PublicUser
	LastMessage  *models.Message
	UnreadCount  int64
}

// GetOrCreateDirect is idempotent: a second call with the same pair returns
// the same conversation id.
func (s *ConversationService) GetOrCreateDirect(userA, userB string) (*models.Conversation, error) {
	if userA == userB {
		return nil, apperr.Validationf("SELF_CONVERSATION", "cannot create a conversation with yourself")
	}

	if conv, err := s.store.FindDirectConversation(userA, userB); err == nil {
		return conv, nil
	} else if err != store.ErrNotFound {
		return nil, apperr.Internalf(err.Error())
	}

	exists, err := s.store.UserExists(userB)
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}
	if !exists {
		return nil, apperr.NotFoundf("USER_NOT_FOUND", "target user does not exist")
	}

	conv, err := s.store.CreateDirectConversation(userA, userB, uuid.NewString())
	if err != nil {
		// Concurrent creation of the same pair: re-check before failing.
		if existing, findErr := s.store.FindDirectConversation(userA, userB); findErr == nil {
			return existing, nil
		}
		return nil, apperr.Internalf(err.Error())
	}
	return conv, nil
}

// ListForUser returns every conversation containing userID, most recently
// updated first,
// each enriched with the last message, participant roster, and unread count.
func (s *ConversationService) ListForUser(userID string) ([]ConversationSummary, error) {
	convs, err := s.store.ConversationsForUser(userID)
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}

	summaries := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary, err := s.summarize(conv, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *ConversationService) summarize(conv models.Conversation, userID string) (ConversationSummary, error) {
	parts, err := s.store.Participants(conv.ID)
	if err != nil {
		return ConversationSummary{}, apperr.Internalf(err.Error())
	}

	public := make([]models.PublicUser, 0, len(parts))
	var lastReadAt *time.Time
	for _, p := range parts {
		if p.UserID == userID {
			lastReadAt = p.LastReadAt
		}
		u, err := s.store.UserByID(p.UserID)
		if err != nil {
			continue
		}
		public = append(public, u.Public())
	}

	lastMsg, err := s.store.LastMessage(conv.ID)
	if err != nil {
		return ConversationSummary{}, apperr.Internalf(err.Error())
	}

	unread, err := s.store.UnreadCount(conv.ID, userID, lastReadAt)
	if err != nil {
		return ConversationSummary{}, apperr.Internalf(err.Error())
	}

	return ConversationSummary{
		Conversation: conv,
		Participants: public,
		LastMessage:  lastMsg,
		UnreadCount:  unread,
	}, nil
}

func (s *ConversationService) Get(convID, userID string) (*models.Conversation, error) {
	ok, err := s.store.IsParticipant(convID, userID)
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}
	if !ok {
		return nil, apperr.Forbiddenf("NOT_PARTICIPANT", "not a participant of this conversation")
	}
	conv, err := s.store.ConversationByID(convID)
	if err == store.ErrNotFound {
		return nil, apperr.NotFoundf("CONVERSATION_NOT_FOUND", "conversation not found")
	}
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}
	return conv, nil
}

// MessagesPage returns the page of messages plus hasMore/nextCursor, backed
// by a limit+1 seek-pagination scheme.
type MessagesPage struct {
	Messages   []models.Message
	HasMore    bool
	NextCursor string
}

func (s *ConversationService) GetMessages(convID, userID, cursor string, limit int) (*MessagesPage, error) {
	ok, err := s.store.IsParticipant(convID, userID)
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}
	if !ok {
		return nil, apperr.Forbiddenf("NOT_PARTICIPANT", "not a participant of this conversation")
	}

	var cursorMsg *models.Message
	if cursor != "" {
		m, err := s.store.MessageByID(cursor)
		if err != nil {
			return nil, apperr.NotFoundf("CURSOR_NOT_FOUND", "cursor message not found")
		}
		cursorMsg = m
	}

	rows, err := s.store.MessagesPage(convID, cursorMsg, limit+1)
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	// rows arrive newest-first; reverse to chronological order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	page := &MessagesPage{Messages: rows, HasMore: hasMore}
	if hasMore && len(rows) > 0 {
		page.NextCursor = rows[0].ID
	}
	return page, nil
}
