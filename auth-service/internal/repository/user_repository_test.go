package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eaglebank/ledger/shared/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "email", "password_hash", "first_name", "last_name", "created_at", "last_seen_at"}

func newMockRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepository(db), mock
}

func TestGetByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .* FROM users WHERE email = \$1`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(7), "ada@example.com", "hash", "Ada", "Lovelace", created, nil))

	user, err := repo.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Nil(t, user.LastSeenAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchLastSeen(t *testing.T) {
	repo, mock := newMockRepo(t)
	seen := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`UPDATE users SET last_seen_at = NOW\(\) WHERE id = \$1 RETURNING last_seen_at`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"last_seen_at"}).AddRow(seen))

	got, err := repo.TouchLastSeen(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, seen, got)

	mock.ExpectQuery(`UPDATE users SET last_seen_at`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)
	_, err = repo.TouchLastSeen(context.Background(), 9)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
