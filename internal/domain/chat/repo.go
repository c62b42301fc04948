package chat

import (
	"context"

	"github.com/google/uuid"
)

// Stats is an aggregate snapshot over all conversations.
type Stats struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Closed          int     `json:"closed"`
	AverageMessages float64 `json:"average_messages"`
}

// Repository persists conversations. Lists are sorted by last_activity
// descending.
type Repository interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	Update(ctx context.Context, c *Conversation) error
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error)
	// Search matches the query against conversation titles and user names.
	Search(ctx context.Context, query string, limit, offset int) ([]*Conversation, int, error)
	Stats(ctx context.Context) (*Stats, error)
}
