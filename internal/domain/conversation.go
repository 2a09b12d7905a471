package domain

import "time"

// Conversation types.
const (
	ConversationChannel = "channel"
	ConversationGroup   = "group"
	ConversationDirect  = "direct"
	ConversationHost    = "host"
)

// Member roles inside a group conversation.
const (
	MemberRoleMember = "member"
	MemberRoleAdmin  = "admin"
)

// Conversation is a named or typed container for messages.
type Conversation struct {
	ID        string
	Type      string
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// ConversationMember links a user to a conversation with a role and a
// read watermark.
type ConversationMember struct {
	ConversationID string
	UserID         string
	Role           string
	LastReadAt     *time.Time
	JoinedAt       time.Time
}
