package chatsvc

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"chatcore/internal/apperr"
	"chatcore/internal/models"
	"chatcore/internal/store"
)

type GroupService struct {
	store *store.Store
	log   *slog.Logger
}

func NewGroupService(st *store.Store, log *slog.Logger) *GroupService {
	return &GroupService{store: st, log: log}
}

// Create dedupes memberIds, includes the creator, verifies every user
// exists, and creates the conversation, participants, group row, and a
// SYSTEM message in one transaction.
func (s *GroupService) Create(creatorID, name, description string, memberIDs []string) (*models.Group, *models.Message, error) {
	members := dedupeWithCreator(creatorID, memberIDs)

	ok, err := s.store.UsersExist(members)
	if err != nil {
		return nil, nil, apperr.Internalf(err.Error())
	}
	if !ok {
		return nil, nil, apperr.Validationf("UNKNOWN_MEMBER", "one or more members do not exist")
	}

	now := time.Now().UTC()
	conv := &models.Conversation{
		ID:        uuid.NewString(),
		Type:      models.ConversationGroup,
		CreatedAt: now,
		UpdatedAt: now,
	}

	parts := make([]models.ConversationParticipant, 0, len(members))
	for _, m := range members {
		role := models.RoleMember
		if m == creatorID {
			role = models.RoleAdmin
		}
		parts = append(parts, models.ConversationParticipant{
			ConversationID: conv.ID,
			UserID:         m,
			Role:           role,
			JoinedAt:       now,
		})
	}

	group := &models.Group{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Name:           name,
		Description:    description,
		CreatedBy:      creatorID,
	}

	sysMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       creatorID,
		Content:        fmt.Sprintf("created the group %q", name),
		ContentType:    models.ContentSystem,
		CreatedAt:      time.Now().UTC(),
	}

	err = s.store.Transaction(func(tx *gorm.DB) error {
		txStore := store.New(tx)
		if err := txStore.CreateGroup(conv, parts, group); err != nil {
			return err
		}
		return txStore.CreateMessage(sysMsg)
	})
	if err != nil {
		return nil, nil, apperr.Internalf(err.Error())
	}

	return group, sysMsg, nil
}

// requireAdmin distinguishes "not a member" from "not an admin".
func (s *GroupService) requireAdmin(convID, userID string) (*models.ConversationParticipant, error) {
	p, err := s.store.Participant(convID, userID)
	if err == store.ErrNotFound {
		return nil, apperr.Forbiddenf("NOT_MEMBER", "Not a member")
	}
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}
	if p.Role != models.RoleAdmin {
		return nil, apperr.Forbiddenf("NOT_ADMIN", "Admin privileges required")
	}
	return p, nil
}

// AddMembers filters out already-present ids, fails VALIDATION if the
// resulting set is empty, and emits a SYSTEM message listing display names.
func (s *GroupService) AddMembers(convID, actorID string, memberIDs []string) (*models.Message, error) {
	if _, err := s.requireAdmin(convID, actorID); err != nil {
		return nil, err
	}

	existing, err := s.store.Participants(convID)
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}
	present := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		present[p.UserID] = struct{}{}
	}

	toAdd := make([]string, 0, len(memberIDs))
	for _, id := range dedupe(memberIDs) {
		if _, ok := present[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	if len(toAdd) == 0 {
		return nil, apperr.Validationf("NO_NEW_MEMBERS", "no new members to add")
	}

	ok, err := s.store.UsersExist(toAdd)
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}
	if !ok {
		return nil, apperr.Validationf("UNKNOWN_MEMBER", "one or more members do not exist")
	}

	now := time.Now().UTC()
	parts := make([]models.ConversationParticipant, 0, len(toAdd))
	names := make([]string, 0, len(toAdd))
	for _, id := range toAdd {
		parts = append(parts, models.ConversationParticipant{
			ConversationID: convID,
			UserID:         id,
			Role:           models.RoleMember,
			JoinedAt:       now,
		})
		if u, err := s.store.UserByID(id); err == nil {
			names = append(names, u.DisplayName)
		}
	}
	if err := s.store.AddParticipants(parts); err != nil {
		return nil, apperr.Internalf(err.Error())
	}

	sysMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       actorID,
		Content:        fmt.Sprintf("added %s", strings.Join(names, ", ")),
		ContentType:    models.ContentSystem,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateMessage(sysMsg); err != nil {
		s.log.Warn("failed to persist add-members system message", "error", err)
	}
	return sysMsg, nil
}

// RemoveMember: admin may remove anyone, any member may leave. When the
// removed participant was ADMIN, the oldest-joinedAt remaining participant
// is auto-promoted.
func (s *GroupService) RemoveMember(convID, actorID, targetID string) (*models.Message, error) {
	actor, err := s.store.Participant(convID, actorID)
	if err == store.ErrNotFound {
		return nil, apperr.Forbiddenf("NOT_MEMBER", "Not a member")
	}
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}

	isSelf := actorID == targetID
	if !isSelf && actor.Role != models.RoleAdmin {
		return nil, apperr.Forbiddenf("NOT_ADMIN", "Admin privileges required")
	}

	target, err := s.store.Participant(convID, targetID)
	if err == store.ErrNotFound {
		return nil, apperr.NotFoundf("NOT_A_MEMBER", "user is not a member of this group")
	}
	if err != nil {
		return nil, apperr.Internalf(err.Error())
	}

	if err := s.store.RemoveParticipant(convID, targetID); err != nil {
		return nil, apperr.Internalf(err.Error())
	}

	if target.Role == models.RoleAdmin {
		oldest, err := s.store.OldestParticipant(convID)
		if err != nil {
			s.log.Warn("failed to look up oldest participant for auto-promotion", "error", err)
		} else if oldest != nil {
			if err := s.store.UpdateParticipantRole(convID, oldest.UserID, models.RoleAdmin); err != nil {
				s.log.Warn("failed to auto-promote participant", "error", err)
			}
		}
	}

	targetUser, err := s.store.UserByID(targetID)
	displayName := targetID
	if err == nil {
		displayName = targetUser.DisplayName
	}

	content := fmt.Sprintf("removed %s", displayName)
	if isSelf {
		content = fmt.Sprintf("%s left the group", displayName)
	}
	sysMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       actorID,
		Content:        content,
		ContentType:    models.ContentSystem,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateMessage(sysMsg); err != nil {
		s.log.Warn("failed to persist member-removed system message", "error", err)
	}
	return sysMsg, nil
}

// UpdateRole transitions ADMIN <-> MEMBER; admin-only.
func (s *GroupService) UpdateRole(convID, actorID, targetID string, role models.ParticipantRole) error {
	if _, err := s.requireAdmin(convID, actorID); err != nil {
		return err
	}
	if _, err := s.store.Participant(convID, targetID); err == store.ErrNotFound {
		return apperr.NotFoundf("NOT_A_MEMBER", "user is not a member of this group")
	}
	return s.store.UpdateParticipantRole(convID, targetID, role)
}

func (s *GroupService) Rename(convID, actorID, name, description string) error {
	if _, err := s.requireAdmin(convID, actorID); err != nil {
		return err
	}
	g, err := s.store.GroupByConversationID(convID)
	if err != nil {
		return apperr.NotFoundf("GROUP_NOT_FOUND", "group not found")
	}
	g.Name = name
	g.Description = description
	if err := s.store.UpdateGroup(g); err != nil {
		return apperr.Internalf(err.Error())
	}
	sysMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       actorID,
		Content:        fmt.Sprintf("renamed the group to %q", name),
		ContentType:    models.ContentSystem,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateMessage(sysMsg); err != nil {
		s.log.Warn("failed to persist group-renamed system message", "error", err)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func dedupeWithCreator(creatorID string, memberIDs []string) []string {
	return dedupe(append([]string{creatorID}, memberIDs...))
}
