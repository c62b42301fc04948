package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/respicare/respicare/internal/platform/auth"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrInvalidRole        = errors.New("invalid role")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNotFound           = errors.New("user not found")
)

const minPasswordLen = 8

// Service owns account registration and login.
type Service struct {
	repo       Repository
	authSecret string
	logger     zerolog.Logger
}

func NewService(repo Repository, authSecret string, logger zerolog.Logger) *Service {
	return &Service{repo: repo, authSecret: authSecret, logger: logger}
}

// RegisterInput is the signup payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar"`
}

func validRole(role string) bool {
	switch role {
	case auth.RolePatient, auth.RoleDoctor, auth.RoleAdmin:
		return true
	}
	return false
}

// Register creates an account. Role defaults to patient when omitted.
func (s *Service) Register(ctx context.Context, in *RegisterInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" {
		return nil, errors.New("name is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, errors.New("invalid email address")
	}
	if len(in.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}
	if in.Role == "" {
		in.Role = auth.RolePatient
	}
	if !validRole(in.Role) {
		return nil, ErrInvalidRole
	}
	if existing, err := s.repo.GetByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	now := time.Now().UTC()
	u := &User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: HashPassword(in.Password),
		Role:         in.Role,
		Avatar:       in.Avatar,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info().Str("user_id", u.ID.String()).Str("role", u.Role).Msg("user registered")
	return u, nil
}

// Login checks credentials and issues a session token. Failed lookups and
// wrong passwords return the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrInvalidCredentials
	}
	if !u.CheckPassword(password) {
		return nil, "", ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, "", ErrAccountInactive
	}

	token, err := auth.IssueToken(s.authSecret, u.ID.String(), u.Name, u.Role)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.repo.SetLastLogin(ctx, u.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", u.ID.String()).Msg("could not record last login")
	}
	now := time.Now().UTC()
	u.LastLogin = &now
	return u, token, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]*User, int, error) {
	if role != "" {
		if !validRole(role) {
			return nil, 0, ErrInvalidRole
		}
		return s.repo.ListByRole(ctx, role, limit, offset)
	}
	return s.repo.List(ctx, limit, offset)
}

// Deactivate disables an account, leaving its history in place.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	ok, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.logger.Info().Str("user_id", id.String()).Msg("user deactivated")
	return nil
}
