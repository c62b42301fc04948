package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status of a conversation.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Message is one turn in a conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is a triage chat session between a user and the assistant.
// Messages are stored inline, oldest first.
type Conversation struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	UserName     string    `db:"user_name" json:"user_name"`
	Title        string    `db:"title" json:"title"`
	Messages     []Message `db:"messages" json:"messages"`
	Status       Status    `db:"status" json:"status"`
	LastActivity time.Time `db:"last_activity" json:"last_activity"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (c *Conversation) IsActive() bool { return c.Status == StatusActive }

// MessageCount counts the visible turns, excluding the system greeting.
func (c *Conversation) MessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role != RoleSystem {
			n++
		}
	}
	return n
}

// LastMessage returns the newest message, or nil for an empty conversation.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}
