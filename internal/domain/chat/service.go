package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/respicare/respicare/internal/platform/aiclient"
)

var (
	ErrUserRequired    = errors.New("user id is required")
	ErrEmptyMessage    = errors.New("message is required")
	ErrClosed          = errors.New("conversation is closed")
	ErrEmptyQuery      = errors.New("search query is required")
	ErrNotFound        = errors.New("conversation not found")
	ErrNotParticipant  = errors.New("user is not part of this conversation")
	ErrMaxMessageBytes = errors.New("message exceeds the maximum length")
)

const maxMessageBytes = 4096

const greeting = "Hello! I'm the RespiCare assistant. Tell me about your symptoms " +
	"and I'll help you decide what to do next."

// Responder is the slice of the AI client the service depends on.
type Responder interface {
	ProcessChat(ctx context.Context, req *aiclient.ChatRequest) (*aiclient.ChatResponse, error)
}

// Service owns triage chat conversations.
type Service struct {
	repo   Repository
	ai     Responder
	logger zerolog.Logger
}

// NewService builds a chat service. ai may be nil; replies then always come
// from the local fallback.
func NewService(repo Repository, ai Responder, logger zerolog.Logger) *Service {
	return &Service{repo: repo, ai: ai, logger: logger}
}

// Start opens a conversation seeded with the system greeting.
func (s *Service) Start(ctx context.Context, userID uuid.UUID, userName, title string) (*Conversation, error) {
	if userID == uuid.Nil {
		return nil, ErrUserRequired
	}
	if title == "" {
		title = "Symptom consultation"
	}

	now := time.Now().UTC()
	c := &Conversation{
		ID:       uuid.New(),
		UserID:   userID,
		UserName: userName,
		Title:    title,
		Messages: []Message{
			{Role: RoleSystem, Content: greeting, Timestamp: now},
		},
		Status:       StatusActive,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}
	s.logger.Info().Str("conversation_id", c.ID.String()).Msg("conversation started")
	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Conversation, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// SendMessage appends the user's turn, obtains a reply and appends it. The
// external assistant is best-effort: on any failure the local keyword
// fallback answers instead, and the conversation still advances.
func (s *Service) SendMessage(ctx context.Context, id uuid.UUID, userID uuid.UUID, content string) (*Conversation, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxMessageBytes {
		return nil, ErrMaxMessageBytes
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if c.UserID != userID {
		return nil, ErrNotParticipant
	}
	if !c.IsActive() {
		return nil, ErrClosed
	}

	now := time.Now().UTC()
	c.Messages = append(c.Messages, Message{Role: RoleUser, Content: content, Timestamp: now})

	reply := s.reply(ctx, c, content)
	c.Messages = append(c.Messages, Message{Role: RoleAssistant, Content: reply, Timestamp: time.Now().UTC()})
	c.LastActivity = time.Now().UTC()
	c.UpdatedAt = c.LastActivity

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("save conversation: %w", err)
	}
	return c, nil
}

func (s *Service) reply(ctx context.Context, c *Conversation, content string) string {
	if s.ai != nil {
		req := &aiclient.ChatRequest{
			UserID:  c.UserID.String(),
			Message: content,
		}
		// Skip the system greeting and the just-appended user turn.
		for _, m := range c.Messages[:len(c.Messages)-1] {
			if m.Role == RoleSystem {
				continue
			}
			req.ConversationHistory = append(req.ConversationHistory, aiclient.ChatTurn{
				Role:    string(m.Role),
				Content: m.Content,
			})
		}
		resp, err := s.ai.ProcessChat(ctx, req)
		if err == nil && resp.Response != "" {
			return resp.Response
		}
		if err != nil {
			s.logger.Warn().Err(err).
				Str("conversation_id", c.ID.String()).
				Msg("chat assistant unavailable, using local fallback")
		}
	}
	return fallbackReply(content)
}

// fallbackReply answers with fixed guidance keyed on symptom keywords when
// the external assistant is unreachable.
func fallbackReply(content string) string {
	text := strings.ToLower(content)
	switch {
	case strings.Contains(text, "difficulty breathing"), strings.Contains(text, "can't breathe"),
		strings.Contains(text, "chest pain"):
		return "Those symptoms can be serious. Please seek emergency care immediately " +
			"or call emergency services."
	case strings.Contains(text, "fever"):
		return "For a fever, rest and stay hydrated. If it lasts more than 3 days or " +
			"goes above 39°C, schedule a medical visit within 24 hours."
	case strings.Contains(text, "cough"), strings.Contains(text, "breathing"):
		return "For respiratory symptoms, rest at home, limit contact with others and " +
			"monitor your breathing. See a doctor if symptoms persist beyond 48 hours."
	case strings.Contains(text, "hello"), strings.Contains(text, "hi"):
		return greeting
	default:
		return "I couldn't reach the analysis service right now. If your symptoms " +
			"are severe or worsening, please contact a medical professional. " +
			"You can also file a symptom report for a doctor to review."
	}
}

// Close ends a conversation. Closing is idempotent.
func (s *Service) Close(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*Conversation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if c.UserID != userID {
		return nil, ErrNotParticipant
	}
	if !c.IsActive() {
		return c, nil
	}
	c.Status = StatusClosed
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("close conversation: %w", err)
	}
	s.logger.Info().Str("conversation_id", c.ID.String()).Msg("conversation closed")
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Conversation, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, ErrEmptyQuery
	}
	return s.repo.Search(ctx, query, limit, offset)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
