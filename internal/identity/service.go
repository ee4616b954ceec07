// Package identity registers users, checks their credentials and resolves bearer tokens.
package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"magnova-scm-api-server/internal/apperr"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/google/uuid"
)

type Service struct {
	users  store.Users
	tokens *auth.Tokens
	now    func() time.Time
}

func NewService(users store.Users, tokens *auth.Tokens) *Service {
	return &Service{users: users, tokens: tokens, now: time.Now}
}

type RegisterInput struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	Name         string `json:"name" validate:"required"`
	Organization string `json:"organization" validate:"required"`
	Role         string `json:"role" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is what register and login hand back to the client.
type Session struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal(err, "could not hash password")
	}
	u := &models.User{
		UserID:       uuid.NewString(),
		Email:        in.Email,
		Password:     hash,
		Name:         in.Name,
		Organization: in.Organization,
		Role:         in.Role,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.InsertUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict("email %s is already registered", in.Email)
		}
		return nil, apperr.Internal(err, "could not create user")
	}
	return s.session(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := apperr.Validate(in); err != nil {
		return nil, err
	}
	u, err := s.users.FindUserByEmail(ctx, in.Email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load user")
	}
	if !auth.CheckPasswordHash(in.Password, u.Password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return s.session(u)
}

// Resolve verifies a bearer token and loads the user it names.
func (s *Service) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.Me(ctx, claims.Subject)
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("user not found")
	}
	if err != nil {
		return nil, apperr.Internal(err, "could not load user")
	}
	return u, nil
}

func (s *Service) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Issue(u.UserID, u.Email)
	if err != nil {
		return nil, apperr.Internal(err, "could not issue token")
	}
	return &Session{AccessToken: token, TokenType: "bearer", User: u}, nil
}
