package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/listing"
	"github.com/eaglebank/ledger/shared/models"
	sharedredis "github.com/eaglebank/ledger/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const transactionKeyPrefix = "transaction:view:"

// missFillTTL caps entries filled by a read. A fill can race a concurrent
// delete and re-cache the removed row; the cap bounds how long that lasts.
const missFillTTL = time.Minute

// TransactionSortFields is the listing allow-list: public field name to column.
var TransactionSortFields = listing.Sortable{
	"id":        "id",
	"amount":    "amount",
	"category":  "category",
	"type":      "type",
	"date":      "date",
	"createdAt": "created_at",
}

type transactionCache interface {
	Get(ctx context.Context, key string) (*models.Transaction, bool)
	Set(ctx context.Context, key string, value *models.Transaction)
	SetTTL(ctx context.Context, key string, value *models.Transaction, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// TransactionReadRepository handles all read operations for transactions.
// Single records are served from Redis first, falling back to PostgreSQL on a
// miss; listings and aggregates always hit PostgreSQL.
type TransactionReadRepository struct {
	db      *sql.DB
	cache   transactionCache
	fillTTL time.Duration
}

func NewTransactionReadRepository(db *sql.DB, redisClient *goredis.Client, ttl time.Duration) *TransactionReadRepository {
	fillTTL := missFillTTL
	if ttl > 0 && ttl < fillTTL {
		fillTTL = ttl
	}
	return &TransactionReadRepository{
		db:      db,
		cache:   sharedredis.NewViewCache[models.Transaction](redisClient, ttl),
		fillTTL: fillTTL,
	}
}

func (r *TransactionReadRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	if t, ok := r.cache.Get(ctx, transactionKey(id)); ok {
		return t, nil
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`
	t, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	r.cache.SetTTL(ctx, transactionKey(t.ID), t, r.fillTTL)
	return t, nil
}

// List returns one page of the user's transactions and the total count before
// pagination. q must come from listing.Normalize against TransactionSortFields.
func (r *TransactionReadRepository) List(ctx context.Context, userID int64, q listing.Query) ([]models.Transaction, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY ` + q.OrderBy() + `
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, total, nil
}

// SumByType aggregates the user's amounts per transaction type. Types with no
// rows are absent from the result.
func (r *TransactionReadRepository) SumByType(ctx context.Context, userID int64) (map[models.TransactionType]decimal.Decimal, error) {
	query := `
		SELECT type, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1
		GROUP BY type
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}
	defer rows.Close()

	sums := make(map[models.TransactionType]decimal.Decimal, 2)
	for rows.Next() {
		var txType models.TransactionType
		var sum decimal.NullDecimal
		if err := rows.Scan(&txType, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan sum: %w", err)
		}
		if sum.Valid {
			sums[txType] = sum.Decimal
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sums, nil
}

// CacheTransaction stores or refreshes the cached record after a write.
func (r *TransactionReadRepository) CacheTransaction(ctx context.Context, t *models.Transaction) {
	r.cache.Set(ctx, transactionKey(t.ID), t)
}

func (r *TransactionReadRepository) InvalidateTransactions(ctx context.Context, ids ...int64) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = transactionKey(id)
	}
	r.cache.Delete(ctx, keys...)
}

func transactionKey(id int64) string {
	return transactionKeyPrefix + strconv.FormatInt(id, 10)
}
