// Package service implements login and token refresh against the identity store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/token"
	"github.com/eaglebank/ledger/shared/utils"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	TouchLastSeen(ctx context.Context, id int64) (time.Time, error)
}

type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
	Parse(tokenString string) (*token.Claims, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// Session is what a successful login or refresh hands back to the client.
type Session struct {
	Token string           `json:"token"`
	User  *models.UserView `json:"user"`
}

type AuthService struct {
	users     UserStore
	tokens    TokenIssuer
	publisher EventPublisher
}

func NewAuthService(users UserStore, tokens TokenIssuer, publisher EventPublisher) *AuthService {
	return &AuthService{users: users, tokens: tokens, publisher: publisher}
}

// Login never tells an unknown email apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, cmd cqrs.LoginCommand) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, cmd.Email)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(cmd.Password, user.PasswordHash) {
		return nil, errs.ErrInvalidCredentials
	}
	return s.openSession(ctx, user)
}

// RefreshToken exchanges a valid token for a fresh one. The user is re-read,
// so a deleted account cannot keep refreshing.
func (s *AuthService) RefreshToken(ctx context.Context, cmd cqrs.RefreshTokenCommand) (*Session, error) {
	claims, err := s.tokens.Parse(cmd.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d no longer exists", errs.ErrInvalidToken, claims.UserID)
	}
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, user)
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*Session, error) {
	seen, err := s.users.TouchLastSeen(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.LastSeenAt = &seen
	// The user service caches profiles; tell it the cached copy is stale.
	if err := s.publisher.Publish(ctx, events.UserEventsStream, events.UserSeen, events.UserSeenEvent{UserID: user.ID, SeenAt: seen}); err != nil {
		slog.Warn("failed to publish event", "type", events.UserSeen, "error", err)
	}

	signed, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: signed, User: models.NewUserView(user)}, nil
}
