package query

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/listing"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/user-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubReader struct {
	views      map[int64]models.UserView
	lastFilter repository.UserFilter
	lastQuery  listing.Query
}

func (r *stubReader) GetByID(ctx context.Context, id int64) (*models.UserView, error) {
	v, ok := r.views[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, errs.ErrNotFound)
	}
	return &v, nil
}

func (r *stubReader) List(ctx context.Context, filter repository.UserFilter, q listing.Query) ([]models.UserView, int, error) {
	r.lastFilter = filter
	r.lastQuery = q
	var out []models.UserView
	for _, v := range r.views {
		out = append(out, v)
	}
	return out, len(out), nil
}

type stubCredentials struct {
	users map[int64]models.User
}

func (c *stubCredentials) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := c.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, errs.ErrNotFound)
	}
	return &u, nil
}

func newTestService(t *testing.T) (*UserQueryService, *stubReader) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	reader := &stubReader{views: map[int64]models.UserView{
		1: {ID: 1, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", CreatedAt: time.Now()},
	}}
	creds := &stubCredentials{users: map[int64]models.User{
		1: {ID: 1, Email: "ada@example.com", PasswordHash: string(hash)},
	}}
	return NewUserQueryService(reader, creds), reader
}

func TestGetUser(t *testing.T) {
	svc, _ := newTestService(t)

	view, err := svc.GetUser(context.Background(), cqrs.GetUserQuery{UserID: 1})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", view.Email)

	_, err = svc.GetUser(context.Background(), cqrs.GetUserQuery{UserID: 2})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestVerifyPassword(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		userID   int64
		password string
		wantErr  error
	}{
		{"correct password", 1, "s3cret-pass", nil},
		{"wrong password", 1, "nope", errs.ErrIncorrectPassword},
		{"unknown user", 9, "s3cret-pass", errs.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.VerifyPassword(context.Background(), cqrs.VerifyPasswordQuery{UserID: tt.userID, Password: tt.password})
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListUsers(t *testing.T) {
	svc, reader := newTestService(t)

	page, err := svc.ListUsers(context.Background(), cqrs.ListUsersQuery{
		Page:   listing.Params{Limit: 500, SortField: "email", SortOrder: "asc"},
		Search: "ada",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, page.Meta.Total)
	assert.Equal(t, listing.MaxLimit, page.Meta.Limit)
	assert.Equal(t, "email", reader.lastQuery.Column)
	assert.Equal(t, listing.Asc, reader.lastQuery.Order)
	assert.Equal(t, repository.UserFilter{Search: "ada"}, reader.lastFilter)
}

func TestListUsersRejectsUnknownSortField(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ListUsers(context.Background(), cqrs.ListUsersQuery{Page: listing.Params{SortField: "password_hash"}})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
