package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/models"
)

// UserRepository reads credentials from the identity store. The only write
// it performs is the last-seen stamp.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, created_at, last_seen_at`

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// TouchLastSeen stamps the user as seen now and returns the stored time.
func (r *UserRepository) TouchLastSeen(ctx context.Context, id int64) (time.Time, error) {
	var seen time.Time
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET last_seen_at = NOW() WHERE id = $1 RETURNING last_seen_at`, id,
	).Scan(&seen)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("user %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to update last seen: %w", err)
	}
	return seen, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	var lastSeen sql.NullTime

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.CreatedAt, &lastSeen,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %v: %w", arg, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if lastSeen.Valid {
		user.LastSeenAt = &lastSeen.Time
	}
	return &user, nil
}
