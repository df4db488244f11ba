package store

// Neighbors returns every user id who shares at least one conversation with
// userID, excluding userID itself, deduplicated. Used to scope presence
// broadcasts to conversation-neighbors only.
func (s *Store) Neighbors(userID string) ([]string, error) {
	convs, err := s.ConversationsForUser(userID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{userID: {}}
	var out []string
	for _, conv := range convs {
		parts, err := s.Participants(conv.ID)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			if _, ok := seen[p.UserID]; ok {
				continue
			}
			seen[p.UserID] = struct{}{}
			out = append(out, p.UserID)
		}
	}
	return out, nil
}
