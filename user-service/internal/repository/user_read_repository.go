package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/listing"
	"github.com/eaglebank/ledger/shared/models"
	sharedredis "github.com/eaglebank/ledger/shared/redis"
	goredis "github.com/redis/go-redis/v9"
)

const userViewKeyPrefix = "user:view:"

// UserSortFields is the listing allow-list: public field name to column.
var UserSortFields = listing.Sortable{
	"id":         "id",
	"email":      "email",
	"firstName":  "first_name",
	"lastName":   "last_name",
	"createdAt":  "created_at",
	"lastSeenAt": "last_seen_at",
}

// UserFilter narrows the admin listing. Empty fields do not filter.
type UserFilter struct {
	Email  string
	Search string
}

type userViewCache interface {
	Get(ctx context.Context, key string) (*models.UserView, bool)
	Set(ctx context.Context, key string, value *models.UserView)
	Delete(ctx context.Context, keys ...string)
}

// UserReadRepository handles all read operations for users.
// It uses Redis as the primary read store, falling back to PostgreSQL on a miss.
type UserReadRepository struct {
	db    *sql.DB
	cache userViewCache
}

func NewUserReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *UserReadRepository {
	return &UserReadRepository{
		db:    db,
		cache: sharedredis.NewViewCache[models.UserView](redisClient, ttl),
	}
}

// GetByID returns a UserView from Redis first, then PostgreSQL.
func (r *UserReadRepository) GetByID(ctx context.Context, id int64) (*models.UserView, error) {
	if view, ok := r.cache.Get(ctx, userViewKey(id)); ok {
		return view, nil
	}

	query := `SELECT ` + userViewColumns + ` FROM users WHERE id = $1`
	view, err := scanUserView(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	r.CacheUserView(ctx, view)
	return view, nil
}

// List returns one page of users matching filter and the total match count.
func (r *UserReadRepository) List(ctx context.Context, filter UserFilter, q listing.Query) ([]models.UserView, int, error) {
	var conditions []string
	var args []any
	if filter.Email != "" {
		args = append(args, filter.Email)
		conditions = append(conditions, "email = $"+strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conditions = append(conditions, "(first_name || ' ' || last_name) ILIKE $"+strconv.Itoa(len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	args = append(args, q.Limit, q.Offset)
	query := `SELECT ` + userViewColumns + ` FROM users` + where +
		` ORDER BY ` + q.OrderBy() +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var views []models.UserView
	for rows.Next() {
		view, err := scanUserView(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		views = append(views, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return views, total, nil
}

// CacheUserView stores or refreshes the Redis read model for a user.
// Called by the command service after every mutation.
func (r *UserReadRepository) CacheUserView(ctx context.Context, view *models.UserView) {
	r.cache.Set(ctx, userViewKey(view.ID), view)
}

// InvalidateUserView removes the Redis read model entry for a deleted user.
func (r *UserReadRepository) InvalidateUserView(ctx context.Context, userID int64) {
	r.cache.Delete(ctx, userViewKey(userID))
}

const userViewColumns = `id, email, first_name, last_name, created_at, last_seen_at`

func scanUserView(row rowScanner) (*models.UserView, error) {
	var view models.UserView
	var lastSeen sql.NullTime
	if err := row.Scan(&view.ID, &view.Email, &view.FirstName, &view.LastName, &view.CreatedAt, &lastSeen); err != nil {
		return nil, err
	}
	if lastSeen.Valid {
		view.LastSeenAt = &lastSeen.Time
	}
	return &view, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func userViewKey(id int64) string {
	return userViewKeyPrefix + strconv.FormatInt(id, 10)
}
