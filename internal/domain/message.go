package domain

import "time"

// Message is a single chat entry. ParentID links thread replies to their
// root message.
type Message struct {
	ID             string
	ConversationID string
	SenderID       string
	Content        string
	ParentID       *string
	EditedAt       *time.Time
	CreatedAt      time.Time
}
