package command

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ---- fakes ----

type memoryUsers struct {
	nextID int64
	rows   map[int64]models.User
}

func (m *memoryUsers) Create(ctx context.Context, user *models.User) error {
	for _, u := range m.rows {
		if u.Email == user.Email {
			return errs.ErrConflict
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.rows[user.ID] = *user
	return nil
}

func (m *memoryUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := m.rows[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, errs.ErrNotFound)
	}
	return &u, nil
}

func (m *memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, errs.ErrNotFound)
}

func (m *memoryUsers) Update(ctx context.Context, user *models.User) error {
	if _, ok := m.rows[user.ID]; !ok {
		return errs.ErrNotFound
	}
	m.rows[user.ID] = *user
	return nil
}

func (m *memoryUsers) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	u, ok := m.rows[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.PasswordHash = passwordHash
	m.rows[id] = u
	return nil
}

func (m *memoryUsers) Delete(ctx context.Context, id int64) error {
	if _, ok := m.rows[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type recordingCache struct {
	views       map[int64]models.UserView
	invalidated []int64
}

func (c *recordingCache) CacheUserView(ctx context.Context, view *models.UserView) {
	c.views[view.ID] = *view
}

func (c *recordingCache) InvalidateUserView(ctx context.Context, userID int64) {
	c.invalidated = append(c.invalidated, userID)
}

type recordingPublisher struct {
	types []string
	data  []any
}

func (p *recordingPublisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	p.types = append(p.types, eventType)
	p.data = append(p.data, data)
	return nil
}

func newTestService() (*UserCommandService, *memoryUsers, *recordingCache, *recordingPublisher) {
	users := &memoryUsers{rows: map[int64]models.User{}}
	cache := &recordingCache{views: map[int64]models.UserView{}}
	publisher := &recordingPublisher{}
	svc := NewUserCommandService(users, cache, publisher)
	svc.hash = func(password string) (string, error) {
		b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		return string(b), err
	}
	return svc, users, cache, publisher
}

func signup(t *testing.T, svc *UserCommandService, email string) *models.UserView {
	t.Helper()
	view, err := svc.CreateUser(context.Background(), cqrs.CreateUserCommand{
		Email:     email,
		Password:  "s3cret-pass",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	require.NoError(t, err)
	return view
}

// ---- tests ----

func TestCreateUser(t *testing.T) {
	svc, users, cache, publisher := newTestService()

	view := signup(t, svc, "ada@example.com")

	assert.Equal(t, int64(1), view.ID)
	assert.Equal(t, "ada@example.com", view.Email)
	stored := users.rows[view.ID]
	assert.NotEqual(t, "s3cret-pass", stored.PasswordHash)
	assert.True(t, utils.CheckPassword("s3cret-pass", stored.PasswordHash))
	assert.Contains(t, cache.views, view.ID)
	assert.Equal(t, []string{events.UserCreated}, publisher.types)
}

func TestCreateUserDuplicateEmailIsConflict(t *testing.T) {
	svc, users, _, publisher := newTestService()
	first := signup(t, svc, "ada@example.com")
	before := users.rows[first.ID]

	_, err := svc.CreateUser(context.Background(), cqrs.CreateUserCommand{
		Email:     "ada@example.com",
		Password:  "another-pass",
		FirstName: "Someone",
		LastName:  "Else",
	})

	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.Len(t, users.rows, 1)
	assert.Equal(t, before, users.rows[first.ID])
	assert.Equal(t, []string{events.UserCreated}, publisher.types)
}

func TestUpdateProfile(t *testing.T) {
	svc, users, cache, publisher := newTestService()
	view := signup(t, svc, "ada@example.com")

	updated, err := svc.UpdateProfile(context.Background(), cqrs.UpdateProfileCommand{
		UserID:    view.ID,
		LastName:  models.Some("King"),
		FirstName: models.Null[string](),
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "King", updated.LastName)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.Equal(t, "King", users.rows[view.ID].LastName)
	assert.Equal(t, "King", cache.views[view.ID].LastName)
	assert.Equal(t, events.UserUpdated, publisher.types[len(publisher.types)-1])
}

func TestUpdateProfileEmail(t *testing.T) {
	svc, _, _, _ := newTestService()
	ada := signup(t, svc, "ada@example.com")
	signup(t, svc, "grace@example.com")

	t.Run("taken by another user", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), cqrs.UpdateProfileCommand{
			UserID: ada.ID,
			Email:  models.Some("grace@example.com"),
		})
		assert.ErrorIs(t, err, errs.ErrConflict)
	})

	t.Run("unchanged own email", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), cqrs.UpdateProfileCommand{
			UserID: ada.ID,
			Email:  models.Some("ada@example.com"),
		})
		assert.NoError(t, err)
	})

	t.Run("free email", func(t *testing.T) {
		view, err := svc.UpdateProfile(context.Background(), cqrs.UpdateProfileCommand{
			UserID: ada.ID,
			Email:  models.Some("countess@example.com"),
		})
		require.NoError(t, err)
		assert.Equal(t, "countess@example.com", view.Email)
	})
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.UpdateProfile(context.Background(), cqrs.UpdateProfileCommand{UserID: 42})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUpdatePassword(t *testing.T) {
	svc, users, _, _ := newTestService()
	view := signup(t, svc, "ada@example.com")

	err := svc.UpdatePassword(context.Background(), cqrs.UpdatePasswordCommand{
		UserID:          view.ID,
		CurrentPassword: "wrong",
		NewPassword:     "new-secret",
	})
	assert.ErrorIs(t, err, errs.ErrIncorrectPassword)
	assert.True(t, utils.CheckPassword("s3cret-pass", users.rows[view.ID].PasswordHash))

	err = svc.UpdatePassword(context.Background(), cqrs.UpdatePasswordCommand{
		UserID:          view.ID,
		CurrentPassword: "s3cret-pass",
		NewPassword:     "new-secret",
	})
	require.NoError(t, err)
	assert.True(t, utils.CheckPassword("new-secret", users.rows[view.ID].PasswordHash))
}

func TestDeleteUserPublishesDeletion(t *testing.T) {
	svc, users, cache, publisher := newTestService()
	view := signup(t, svc, "ada@example.com")

	require.NoError(t, svc.DeleteUser(context.Background(), cqrs.DeleteUserCommand{UserID: view.ID}))

	assert.Empty(t, users.rows)
	assert.Equal(t, []int64{view.ID}, cache.invalidated)
	require.Equal(t, []string{events.UserCreated, events.UserDeleted}, publisher.types)
	assert.Equal(t, events.UserDeletedEvent{UserID: view.ID}, publisher.data[1])

	err := svc.DeleteUser(context.Background(), cqrs.DeleteUserCommand{UserID: view.ID})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestHandleUserEventInvalidatesSeenUser(t *testing.T) {
	svc, _, cache, _ := newTestService()

	tests := []struct {
		name        string
		event       events.Event
		invalidated []int64
		wantErr     bool
	}{
		{
			name:        "user seen",
			event:       events.Event{Type: events.UserSeen, Data: map[string]any{"userId": 7, "seenAt": "2024-06-01T12:00:00Z"}},
			invalidated: []int64{7},
		},
		{
			name:  "other event ignored",
			event: events.Event{Type: events.UserDeleted, Data: map[string]any{"userId": 8}},
		},
		{
			name:    "malformed payload",
			event:   events.Event{Type: events.UserSeen, Data: map[string]any{"userId": "seven"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache.invalidated = nil
			err := svc.HandleUserEvent(context.Background(), tt.event)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.invalidated, cache.invalidated)
		})
	}
}
