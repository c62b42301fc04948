package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/respicare/respicare/internal/platform/aiclient"
)

// -- Mock Repository --

type mockRepo struct {
	conversations map[uuid.UUID]*Conversation
}

func newMockRepo() *mockRepo {
	return &mockRepo{conversations: make(map[uuid.UUID]*Conversation)}
}

func (m *mockRepo) Create(_ context.Context, c *Conversation) error {
	m.conversations[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Conversation, error) {
	c, ok := m.conversations[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return c, nil
}

func (m *mockRepo) Update(_ context.Context, c *Conversation) error {
	m.conversations[c.ID] = c
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := m.conversations[id]; !ok {
		return false, nil
	}
	delete(m.conversations, id)
	return true, nil
}

func (m *mockRepo) sorted() []*Conversation {
	var result []*Conversation
	for _, c := range m.conversations {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastActivity.After(result[j].LastActivity)
	})
	return result
}

func (m *mockRepo) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	var result []*Conversation
	for _, c := range m.sorted() {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) Search(_ context.Context, query string, limit, offset int) ([]*Conversation, int, error) {
	q := strings.ToLower(query)
	var result []*Conversation
	for _, c := range m.sorted() {
		if strings.Contains(strings.ToLower(c.Title), q) ||
			strings.Contains(strings.ToLower(c.UserName), q) {
			result = append(result, c)
		}
	}
	return result, len(result), nil
}

func (m *mockRepo) Stats(_ context.Context) (*Stats, error) {
	s := &Stats{}
	totalMessages := 0
	for _, c := range m.conversations {
		s.Total++
		if c.Status == StatusActive {
			s.Active++
		} else {
			s.Closed++
		}
		totalMessages += len(c.Messages)
	}
	if s.Total > 0 {
		s.AverageMessages = float64(totalMessages) / float64(s.Total)
	}
	return s, nil
}

// -- Mock Responder --

type mockResponder struct {
	resp  *aiclient.ChatResponse
	err   error
	calls int
	last  *aiclient.ChatRequest
}

func (m *mockResponder) ProcessChat(_ context.Context, req *aiclient.ChatRequest) (*aiclient.ChatResponse, error) {
	m.calls++
	m.last = req
	return m.resp, m.err
}

func newTestService(repo Repository, ai Responder) *Service {
	return NewService(repo, ai, zerolog.Nop())
}

func TestStart(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)

	conv, err := svc.Start(context.Background(), uuid.New(), "Ana García", "")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if conv.Title == "" {
		t.Error("title not defaulted")
	}
	if !conv.IsActive() {
		t.Error("new conversation is not active")
	}
	if len(conv.Messages) != 1 || conv.Messages[0].Role != RoleSystem {
		t.Errorf("conversation not seeded with system greeting: %+v", conv.Messages)
	}
	if conv.MessageCount() != 0 {
		t.Errorf("MessageCount() = %d, want 0 (greeting excluded)", conv.MessageCount())
	}
}

func TestStartRequiresUser(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	if _, err := svc.Start(context.Background(), uuid.Nil, "", ""); !errors.Is(err, ErrUserRequired) {
		t.Errorf("Start(nil user) error = %v, want %v", err, ErrUserRequired)
	}
}

func TestSendMessageWithAssistant(t *testing.T) {
	ai := &mockResponder{resp: &aiclient.ChatResponse{Response: "Tell me more about the cough."}}
	svc := newTestService(newMockRepo(), ai)
	userID := uuid.New()
	conv, err := svc.Start(context.Background(), userID, "Ana", "")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	conv, err = svc.SendMessage(context.Background(), conv.ID, userID, "I have a dry cough")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if ai.calls != 1 {
		t.Errorf("assistant called %d times, want 1", ai.calls)
	}
	last := conv.LastMessage()
	if last == nil || last.Role != RoleAssistant || last.Content != "Tell me more about the cough." {
		t.Errorf("assistant reply not appended: %+v", last)
	}
	if conv.MessageCount() != 2 {
		t.Errorf("MessageCount() = %d, want 2", conv.MessageCount())
	}
}

func TestSendMessageHistoryExcludesSystemTurns(t *testing.T) {
	ai := &mockResponder{resp: &aiclient.ChatResponse{Response: "ok"}}
	svc := newTestService(newMockRepo(), ai)
	userID := uuid.New()
	conv, _ := svc.Start(context.Background(), userID, "Ana", "")

	if _, err := svc.SendMessage(context.Background(), conv.ID, userID, "first"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), conv.ID, userID, "second"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if ai.last.Message != "second" {
		t.Errorf("request message = %q, want the new turn", ai.last.Message)
	}
	// History holds the first exchange only: user turn plus assistant reply.
	if len(ai.last.ConversationHistory) != 2 {
		t.Fatalf("history has %d turns, want 2: %+v", len(ai.last.ConversationHistory), ai.last.ConversationHistory)
	}
	for _, turn := range ai.last.ConversationHistory {
		if turn.Role == string(RoleSystem) {
			t.Error("system greeting leaked into history")
		}
	}
}

func TestSendMessageFallbackOnFailure(t *testing.T) {
	ai := &mockResponder{err: errors.New("connection refused")}
	svc := newTestService(newMockRepo(), ai)
	userID := uuid.New()
	conv, _ := svc.Start(context.Background(), userID, "Ana", "")

	conv, err := svc.SendMessage(context.Background(), conv.ID, userID, "I have chest pain")
	if err != nil {
		t.Fatalf("SendMessage() error = %v, assistant failure must not fail the turn", err)
	}
	last := conv.LastMessage()
	if last == nil || last.Role != RoleAssistant {
		t.Fatal("no assistant reply appended after fallback")
	}
	if !strings.Contains(last.Content, "emergency") {
		t.Errorf("chest pain fallback = %q, want emergency guidance", last.Content)
	}
}

func TestFallbackReplyKeywords(t *testing.T) {
	tests := []struct {
		message string
		substr  string
	}{
		{"I can't breathe properly", "emergency"},
		{"my chest pain is getting worse", "emergency"},
		{"I have had a fever since Monday", "fever"},
		{"just a mild cough", "respiratory"},
		{"something else entirely", "symptom report"},
	}
	for _, tt := range tests {
		got := fallbackReply(tt.message)
		if !strings.Contains(strings.ToLower(got), tt.substr) {
			t.Errorf("fallbackReply(%q) = %q, want mention of %q", tt.message, got, tt.substr)
		}
	}
}

func TestSendMessageGuards(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	userID := uuid.New()
	conv, _ := svc.Start(context.Background(), userID, "Ana", "")

	if _, err := svc.SendMessage(context.Background(), conv.ID, userID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank message error = %v, want %v", err, ErrEmptyMessage)
	}
	long := strings.Repeat("a", maxMessageBytes+1)
	if _, err := svc.SendMessage(context.Background(), conv.ID, userID, long); !errors.Is(err, ErrMaxMessageBytes) {
		t.Errorf("oversized message error = %v, want %v", err, ErrMaxMessageBytes)
	}
	if _, err := svc.SendMessage(context.Background(), conv.ID, uuid.New(), "hi"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("foreign user error = %v, want %v", err, ErrNotParticipant)
	}
	if _, err := svc.SendMessage(context.Background(), uuid.New(), userID, "hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing conversation error = %v, want %v", err, ErrNotFound)
	}

	if _, err := svc.Close(context.Background(), conv.ID, userID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), conv.ID, userID, "hi"); !errors.Is(err, ErrClosed) {
		t.Errorf("closed conversation error = %v, want %v", err, ErrClosed)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	svc := newTestService(newMockRepo(), nil)
	userID := uuid.New()
	conv, _ := svc.Start(context.Background(), userID, "Ana", "")

	first, err := svc.Close(context.Background(), conv.ID, userID)
	if err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if first.Status != StatusClosed {
		t.Errorf("Status = %q, want closed", first.Status)
	}
	second, err := svc.Close(context.Background(), conv.ID, userID)
	if err != nil {
		t.Fatalf("Close(again) error = %v", err)
	}
	if second.Status != StatusClosed {
		t.Errorf("second close left status %q", second.Status)
	}
}

func TestSearchAndStats(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, nil)
	userID := uuid.New()
	if _, err := svc.Start(context.Background(), userID, "Ana García", "Cough questions"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	closedConv, err := svc.Start(context.Background(), userID, "Ana García", "Old consultation")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := svc.Close(context.Background(), closedConv.ID, userID); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	found, total, err := svc.Search(context.Background(), "cough", 20, 0)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 1 || len(found) != 1 || found[0].Title != "Cough questions" {
		t.Errorf("Search(cough) = %d results, want the cough conversation", len(found))
	}
	if _, _, err := svc.Search(context.Background(), " ", 20, 0); !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("Search(blank) error = %v, want %v", err, ErrEmptyQuery)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Total != 2 || stats.Active != 1 || stats.Closed != 1 {
		t.Errorf("Stats() = %+v, want total 2, active 1, closed 1", stats)
	}
}
