package query

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/listing"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/policy"
	"github.com/eaglebank/ledger/transaction-service/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type TransactionReader interface {
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	List(ctx context.Context, userID int64, q listing.Query) ([]models.Transaction, int, error)
	SumByType(ctx context.Context, userID int64) (map[models.TransactionType]decimal.Decimal, error)
}

// TransactionQueryService serves ledger reads. Every result is scoped to the
// requesting user: single records through the ownership policy, listings and
// balances through the owner filter.
type TransactionQueryService struct {
	readRepo       TransactionReader
	balances       singleflight.Group
	balanceTimeout time.Duration
}

func NewTransactionQueryService(readRepo TransactionReader) *TransactionQueryService {
	return &TransactionQueryService{readRepo: readRepo, balanceTimeout: 10 * time.Second}
}

func (s *TransactionQueryService) GetTransaction(ctx context.Context, q cqrs.GetTransactionQuery) (*models.TransactionView, error) {
	t, err := s.readRepo.GetByID(ctx, q.TransactionID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(t, q.RequestingUserID); err != nil {
		return nil, fmt.Errorf("transaction %d: %w", q.TransactionID, err)
	}
	return models.NewTransactionView(t), nil
}

func (s *TransactionQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) (*listing.Page[models.TransactionView], error) {
	page, err := repository.TransactionSortFields.Normalize(q.Page)
	if err != nil {
		return nil, err
	}

	transactions, total, err := s.readRepo.List(ctx, q.RequestingUserID, page)
	if err != nil {
		return nil, err
	}

	views := make([]models.TransactionView, len(transactions))
	for i := range transactions {
		views[i] = *models.NewTransactionView(&transactions[i])
	}
	return listing.NewPage(views, total, page), nil
}

// GetBalance returns credits minus debits over the user's ledger, zero when
// the ledger is empty. Concurrent requests for one user share a single query.
// The shared query runs detached from any one caller, so a caller that gives
// up does not fail the others waiting on it.
func (s *TransactionQueryService) GetBalance(ctx context.Context, q cqrs.GetBalanceQuery) (*models.BalanceView, error) {
	key := strconv.FormatInt(q.RequestingUserID, 10)
	ch := s.balances.DoChan(key, func() (any, error) {
		sumCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.balanceTimeout)
		defer cancel()
		return s.readRepo.SumByType(sumCtx, q.RequestingUserID)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	sums := res.Val.(map[models.TransactionType]decimal.Decimal)
	return &models.BalanceView{Balance: Balance(sums)}, nil
}

// Balance folds per-type sums into a signed total. Missing types count as zero.
func Balance(sums map[models.TransactionType]decimal.Decimal) decimal.Decimal {
	credit, ok := sums[models.Credit]
	if !ok {
		credit = decimal.Zero
	}
	debit, ok := sums[models.Debit]
	if !ok {
		debit = decimal.Zero
	}
	return credit.Sub(debit)
}
