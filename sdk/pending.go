package sdk

// PendingConversation is a client-only placeholder for a conversation that
// has no server row yet: the user opened a chat with someone they have never
// messaged. It renders like a conversation but contributes zero unread and
// disappears the moment the first send promotes it to a real conversation.
type PendingConversation struct {
	// Id is the synthetic local id, never sent to the server
	Id string
	// TargetId is the counterpart's user id
	TargetId     string
	TargetName   string
	TargetRole   string
	TargetAvatar string
	CreatedAt    int64
}

// NewPendingConversation creates a placeholder for a counterpart profile
func NewPendingConversation(targetId, name, role, avatar string, now int64) *PendingConversation {
	return &PendingConversation{
		Id:           PendingConversationPrefix + targetId,
		TargetId:     targetId,
		TargetName:   name,
		TargetRole:   role,
		TargetAvatar: avatar,
		CreatedAt:    now,
	}
}

// ToConversationInfo renders the placeholder in the shape of a server
// conversation entry. Unread is always zero: nothing has been exchanged.
func (p *PendingConversation) ToConversationInfo() *ConversationInfo {
	return &ConversationInfo{
		ConversationId:    p.Id,
		CounterpartId:     p.TargetId,
		CounterpartName:   p.TargetName,
		CounterpartRole:   p.TargetRole,
		CounterpartAvatar: p.TargetAvatar,
		UnreadCount:       0,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.CreatedAt,
	}
}

// IsPendingConversationId reports whether id names a local placeholder
func IsPendingConversationId(id string) bool {
	return len(id) > len(PendingConversationPrefix) &&
		id[:len(PendingConversationPrefix)] == PendingConversationPrefix
}
