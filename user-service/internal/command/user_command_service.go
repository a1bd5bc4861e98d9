package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// UserWriter is the PostgreSQL write store.
type UserWriter interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// UserViewCache keeps the Redis read model in step with writes.
type UserViewCache interface {
	CacheUserView(ctx context.Context, view *models.UserView)
	InvalidateUserView(ctx context.Context, userID int64)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// UserCommandService writes user state to PostgreSQL and keeps the Redis
// read model up to date.
type UserCommandService struct {
	writeRepo UserWriter
	cache     UserViewCache
	publisher EventPublisher
	hash      func(string) (string, error)
}

func NewUserCommandService(writeRepo UserWriter, cache UserViewCache, publisher EventPublisher) *UserCommandService {
	return &UserCommandService{
		writeRepo: writeRepo,
		cache:     cache,
		publisher: publisher,
		hash:      utils.HashPassword,
	}
}

// CreateUser registers a new user. An email that is already taken is a
// conflict and leaves the existing record untouched.
func (s *UserCommandService) CreateUser(ctx context.Context, cmd cqrs.CreateUserCommand) (*models.UserView, error) {
	if err := s.ensureEmailFree(ctx, cmd.Email, 0); err != nil {
		return nil, err
	}

	passwordHash, err := s.hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Email:        cmd.Email,
		PasswordHash: passwordHash,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
	}
	if err := s.writeRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	view := models.NewUserView(user)
	s.cache.CacheUserView(ctx, view)
	s.publish(ctx, events.UserCreated, events.UserCreatedEvent{UserID: user.ID, Email: user.Email})
	return view, nil
}

// UpdateProfile patches the caller's own profile. Absent and null fields are
// left as they are.
func (s *UserCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.UserView, error) {
	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	if email, ok := cmd.Email.Get(); ok && email != user.Email {
		if err := s.ensureEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if firstName, ok := cmd.FirstName.Get(); ok {
		user.FirstName = firstName
	}
	if lastName, ok := cmd.LastName.Get(); ok {
		user.LastName = lastName
	}

	if err := s.writeRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	view := models.NewUserView(user)
	s.cache.CacheUserView(ctx, view)
	s.publish(ctx, events.UserUpdated, events.UserUpdatedEvent{UserID: user.ID, Email: user.Email})
	return view, nil
}

// UpdatePassword replaces the password once the current one checks out.
func (s *UserCommandService) UpdatePassword(ctx context.Context, cmd cqrs.UpdatePasswordCommand) error {
	user, err := s.writeRepo.GetByID(ctx, cmd.UserID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(cmd.CurrentPassword, user.PasswordHash) {
		return errs.ErrIncorrectPassword
	}

	passwordHash, err := s.hash(cmd.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.writeRepo.UpdatePassword(ctx, user.ID, passwordHash)
}

// DeleteUser removes the user. Their transactions are removed by the
// transaction service when it consumes the user.deleted event.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	if err := s.writeRepo.Delete(ctx, cmd.UserID); err != nil {
		return err
	}
	s.cache.InvalidateUserView(ctx, cmd.UserID)
	s.publish(ctx, events.UserDeleted, events.UserDeletedEvent{UserID: cmd.UserID})
	return nil
}

// HandleUserEvent drops the cached profile when the auth service records a
// login, so the next read picks up the new last-seen time from PostgreSQL.
func (s *UserCommandService) HandleUserEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.UserSeen {
		return nil
	}

	var data events.UserSeenEvent
	if err := event.Decode(&data); err != nil {
		return err
	}
	s.cache.InvalidateUserView(ctx, data.UserID)
	return nil
}

// ensureEmailFree fails with ErrConflict when email belongs to a user other than self.
func (s *UserCommandService) ensureEmailFree(ctx context.Context, email string, self int64) error {
	existing, err := s.writeRepo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return fmt.Errorf("user %s: %w", email, errs.ErrConflict)
	}
	return nil
}

func (s *UserCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.UserEventsStream, eventType, data); err != nil {
		slog.Warn("failed to publish event", "type", eventType, "error", err)
	}
}
