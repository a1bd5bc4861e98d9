package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/listing"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	userCols     = []string{"id", "email", "password_hash", "first_name", "last_name", "created_at", "last_seen_at"}
	userViewCols = []string{"id", "email", "first_name", "last_name", "created_at", "last_seen_at"}
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type memoryViewCache struct {
	items map[string]*models.UserView
}

func (m *memoryViewCache) Get(ctx context.Context, key string) (*models.UserView, bool) {
	v, ok := m.items[key]
	return v, ok
}

func (m *memoryViewCache) Set(ctx context.Context, key string, value *models.UserView) {
	m.items[key] = value
}

func (m *memoryViewCache) Delete(ctx context.Context, keys ...string) {
	for _, k := range keys {
		delete(m.items, k)
	}
}

func TestCreateUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO users \(email, password_hash, first_name, last_name\)`).
		WithArgs("ada@example.com", "hash", "Ada", "Lovelace").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))

	user := &models.User{Email: "ada@example.com", PasswordHash: "hash", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, now, user.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserUniqueViolationIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.User{Email: "ada@example.com"})
	assert.ErrorIs(t, err, errs.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "ada@example.com", "hash", "Ada", "Lovelace", now, now))

	user, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", user.PasswordHash)
	require.NotNil(t, user.LastSeenAt)
	assert.Equal(t, now, *user.LastSeenAt)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)
	user := &models.User{ID: 7, Email: "ada@example.com", FirstName: "Ada", LastName: "King"}

	mock.ExpectExec(`UPDATE users\s+SET email = \$2, first_name = \$3, last_name = \$4\s+WHERE id = \$1`).
		WithArgs(int64(7), "ada@example.com", "Ada", "King").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Update(context.Background(), user))

	mock.ExpectExec(`UPDATE users`).
		WillReturnError(&pq.Error{Code: "23505"})
	assert.ErrorIs(t, repo.Update(context.Background(), user), errs.ErrConflict)

	mock.ExpectExec(`UPDATE users`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(context.Background(), user), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePasswordAndDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserWriteRepository(db)

	mock.ExpectExec(`UPDATE users SET password_hash = \$2 WHERE id = \$1`).
		WithArgs(int64(7), "new-hash").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), 7, "new-hash"))

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 7))

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 7), errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadRepositoryGetByIDWarmsCache(t *testing.T) {
	db, mock := newMockDB(t)
	cache := &memoryViewCache{items: map[string]*models.UserView{}}
	repo := &UserReadRepository{db: db, cache: cache}

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userViewCols).AddRow(int64(7), "ada@example.com", "Ada", "Lovelace", time.Now().UTC(), nil))

	view, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, view.LastSeenAt)
	assert.Contains(t, cache.items, "user:view:7")

	_, err = repo.GetByID(context.Background(), 7)
	require.NoError(t, err)

	repo.InvalidateUserView(context.Background(), 7)
	assert.Empty(t, cache.items)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadRepositoryListWithFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &UserReadRepository{db: db, cache: &memoryViewCache{items: map[string]*models.UserView{}}}

	q, err := UserSortFields.Normalize(listing.Params{SortField: "lastName", SortOrder: "asc"})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE email = \$1 AND \(first_name \|\| ' ' \|\| last_name\) ILIKE \$2`).
		WithArgs("ada@example.com", `%ada 100\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .* FROM users WHERE .* ORDER BY last_name ASC, id ASC LIMIT \$3 OFFSET \$4`).
		WithArgs("ada@example.com", `%ada 100\%%`, 12, 0).
		WillReturnRows(sqlmock.NewRows(userViewCols).AddRow(int64(7), "ada@example.com", "Ada", "100%", time.Now().UTC(), nil))

	views, total, err := repo.List(context.Background(), UserFilter{Email: "ada@example.com", Search: "ada 100%"}, q)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, views, 1)
	assert.Equal(t, int64(7), views[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadRepositoryListWithoutFilters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := &UserReadRepository{db: db, cache: &memoryViewCache{items: map[string]*models.UserView{}}}

	q, err := UserSortFields.Normalize(listing.Params{})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT .* FROM users ORDER BY created_at DESC, id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(12, 0).
		WillReturnRows(sqlmock.NewRows(userViewCols))

	views, total, err := repo.List(context.Background(), UserFilter{}, q)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, views)
	require.NoError(t, mock.ExpectationsWereMet())
}
