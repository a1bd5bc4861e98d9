package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/utils"
)

// TransactionWriteRepository handles all state-mutating operations for transactions.
// It operates exclusively against the PostgreSQL write store (source of truth).
type TransactionWriteRepository struct {
	db *sql.DB
}

func NewTransactionWriteRepository(db *sql.DB) *TransactionWriteRepository {
	return &TransactionWriteRepository{db: db}
}

// Create inserts the transaction and fills in its generated id and createdAt.
func (r *TransactionWriteRepository) Create(ctx context.Context, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, amount, category, type, reason, date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		t.UserID, t.Amount, t.Category, t.Type, utils.NullString(t.Reason), t.Date,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetByID reads the write model straight from PostgreSQL, bypassing the cache.
func (r *TransactionWriteRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
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
	return t, nil
}

// Update rewrites the mutable fields. The owner is part of the predicate, so a
// row deleted or reassigned since it was read reports ErrNotFound.
func (r *TransactionWriteRepository) Update(ctx context.Context, t *models.Transaction) error {
	query := `
		UPDATE transactions
		SET amount = $3, category = $4, type = $5, reason = $6, date = $7
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Amount, t.Category, t.Type, utils.NullString(t.Reason), t.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return expectAffected(result, t.ID)
}

func (r *TransactionWriteRepository) Delete(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM transactions WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return expectAffected(result, id)
}

// DeleteByUser removes every transaction owned by userID and returns their ids.
func (r *TransactionWriteRepository) DeleteByUser(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `DELETE FROM transactions WHERE user_id = $1 RETURNING id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete transactions of user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan deleted transaction id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to delete transactions of user %d: %w", userID, err)
	}
	return ids, nil
}

const transactionColumns = `id, user_id, amount, category, type, reason, date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var t models.Transaction
	var reason sql.NullString
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Amount, &t.Category, &t.Type,
		&reason, &t.Date, &t.CreatedAt,
	); err != nil {
		return nil, err
	}
	t.Reason = reason.String
	return &t, nil
}

func expectAffected(result sql.Result, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("transaction %d: %w", id, errs.ErrNotFound)
	}
	return nil
}
