package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/respicare/respicare/internal/domain/chat"
)

func newTestConversation(userID uuid.UUID, userName, title string) *chat.Conversation {
	now := time.Now().UTC()
	return &chat.Conversation{
		ID:       uuid.New(),
		UserID:   userID,
		UserName: userName,
		Title:    title,
		Messages: []chat.Message{
			{Role: chat.RoleSystem, Content: "greeting", Timestamp: now},
		},
		Status:       chat.StatusActive,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestConversationCRUD(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, ctx, "Chat User", "patient")
	repo := chat.NewRepoPG(globalDB.Pool)

	created := newTestConversation(user.ID, user.Name, "Cough questions")
	if err := repo.Create(ctx, created); err != nil {
		t.Fatalf("create conversation: %v", err)
	}

	// Append a user/assistant exchange the way the service does.
	now := time.Now().UTC()
	created.Messages = append(created.Messages,
		chat.Message{Role: chat.RoleUser, Content: "I have a dry cough", Timestamp: now},
		chat.Message{Role: chat.RoleAssistant, Content: "How long has it lasted?", Timestamp: now},
	)
	created.LastActivity = now
	if err := repo.Update(ctx, created); err != nil {
		t.Fatalf("update conversation: %v", err)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if len(got.Messages) != 3 {
		t.Fatalf("message count = %d, want 3", len(got.Messages))
	}
	if got.MessageCount() != 2 {
		t.Fatalf("visible message count = %d, want 2", got.MessageCount())
	}
	last := got.LastMessage()
	if last == nil || last.Role != chat.RoleAssistant {
		t.Fatalf("last message = %+v", last)
	}

	convs, total, err := repo.ListByUser(ctx, user.ID, 10, 0)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if total != 1 || len(convs) != 1 || convs[0].ID != created.ID {
		t.Fatalf("expected exactly the created conversation, got %d (total %d)", len(convs), total)
	}

	ok, err := repo.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("delete conversation: %v", err)
	}
	if !ok {
		t.Fatal("expected delete to match a row")
	}
}

func TestConversationSearchAndStats(t *testing.T) {
	ctx := context.Background()
	user := createTestUser(t, ctx, "Maribel Chat", "patient")
	repo := chat.NewRepoPG(globalDB.Pool)

	active := newTestConversation(user.ID, user.Name, "Persistent wheeze at night")
	closed := newTestConversation(user.ID, user.Name, "Resolved headache")
	closed.Status = chat.StatusClosed
	for _, c := range []*chat.Conversation{active, closed} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("create conversation: %v", err)
		}
	}

	t.Run("SearchTitle", func(t *testing.T) {
		convs, _, err := repo.Search(ctx, "wheeze", 10, 0)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if len(convs) != 1 || convs[0].ID != active.ID {
			t.Fatalf("expected only the wheeze conversation, got %d", len(convs))
		}
	})

	t.Run("SearchUserName", func(t *testing.T) {
		convs, total, err := repo.Search(ctx, "maribel", 10, 0)
		if err != nil {
			t.Fatalf("search: %v", err)
		}
		if total != 2 || len(convs) != 2 {
			t.Fatalf("expected both conversations for the user name, got %d (total %d)", len(convs), total)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.Total < 2 || stats.Active < 1 || stats.Closed < 1 {
			t.Fatalf("stats missing the created conversations: %+v", stats)
		}
		if stats.AverageMessages <= 0 {
			t.Fatalf("average messages = %f", stats.AverageMessages)
		}
	})
}
