package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"queryproxy/internal/core"
)

var (
	ErrEmailTaken     = errors.New("user already exists")
	ErrBadCredentials = errors.New("invalid credentials")
)

type AuthService struct {
	users core.UserRepository
}

func NewAuthService(users core.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// Register creates an account. Emails are unique case-insensitively, so the
// stored form is always lowercase.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*core.User, error) {
	email = normalizeEmail(email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &core.User{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and returns the user if valid. Unknown
// email and wrong password report the same error so account existence does
// not leak.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrBadCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	return user, nil
}

// IssueAPIKey mints a fresh opaque key and overwrites any previously issued
// one; the old key stops working the moment this returns.
func (s *AuthService) IssueAPIKey(ctx context.Context, userID string) (string, error) {
	key := uuid.NewString()
	if err := s.users.SetAPIKey(ctx, userID, key); err != nil {
		return "", fmt.Errorf("store api key: %w", err)
	}
	return key, nil
}

// ResolveAPIKey finds the owner of a presented key. Returns (nil, nil) when
// the key matches no account.
func (s *AuthService) ResolveAPIKey(ctx context.Context, key string) (*core.User, error) {
	return s.users.GetByAPIKey(ctx, key)
}

// ResetPassword re-hashes a user's password by email. Used by the CLI, not
// exposed over HTTP.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found: %s", email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
