package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/errs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/eaglebank/ledger/shared/policy"
)

// TransactionWriter is the PostgreSQL write store.
type TransactionWriter interface {
	Create(ctx context.Context, t *models.Transaction) error
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)
	Update(ctx context.Context, t *models.Transaction) error
	Delete(ctx context.Context, id, userID int64) error
	DeleteByUser(ctx context.Context, userID int64) ([]int64, error)
}

// TransactionCache keeps the Redis read model in step with writes.
type TransactionCache interface {
	CacheTransaction(ctx context.Context, t *models.Transaction)
	InvalidateTransactions(ctx context.Context, ids ...int64)
}

type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// TransactionCommandService owns every ledger mutation. Ownership is checked
// after existence, so a missing id and a foreign id are reported differently.
type TransactionCommandService struct {
	writeRepo TransactionWriter
	cache     TransactionCache
	publisher EventPublisher
	now       func() time.Time
}

func NewTransactionCommandService(writeRepo TransactionWriter, cache TransactionCache, publisher EventPublisher) *TransactionCommandService {
	return &TransactionCommandService{
		writeRepo: writeRepo,
		cache:     cache,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *TransactionCommandService) CreateTransaction(ctx context.Context, cmd cqrs.CreateTransactionCommand) (*models.TransactionView, error) {
	if !cmd.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than zero", errs.ErrInvalidInput)
	}

	date := s.now()
	if cmd.Date != nil {
		date = cmd.Date.UTC()
	}
	t := &models.Transaction{
		UserID:   cmd.RequestingUserID,
		Amount:   cmd.Amount,
		Category: cmd.Category,
		Type:     models.Classify(cmd.Category),
		Reason:   cmd.Reason,
		Date:     date,
	}
	if err := s.writeRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.cache.CacheTransaction(ctx, t)
	s.publish(ctx, events.TransactionCreated, t)
	return models.NewTransactionView(t), nil
}

// UpdateTransaction applies only the fields present in the patch. A category
// change re-derives the type; a null reason clears it.
func (s *TransactionCommandService) UpdateTransaction(ctx context.Context, cmd cqrs.UpdateTransactionCommand) (*models.TransactionView, error) {
	t, err := s.loadOwned(ctx, cmd.TransactionID, cmd.RequestingUserID)
	if err != nil {
		return nil, err
	}

	if cmd.Amount.Set {
		amount, ok := cmd.Amount.Get()
		if !ok || !amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be greater than zero", errs.ErrInvalidInput)
		}
		t.Amount = amount
	}
	if cmd.Category.Set {
		category, ok := cmd.Category.Get()
		if !ok {
			return nil, fmt.Errorf("%w: category cannot be cleared", errs.ErrInvalidInput)
		}
		t.Category = category
		t.Type = models.Classify(category)
	}
	if cmd.Reason.Set {
		t.Reason = cmd.Reason.Value
	}
	if cmd.Date.Set {
		date, ok := cmd.Date.Get()
		if !ok {
			return nil, fmt.Errorf("%w: date cannot be cleared", errs.ErrInvalidInput)
		}
		t.Date = date.UTC()
	}

	if err := s.writeRepo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.cache.CacheTransaction(ctx, t)
	s.publish(ctx, events.TransactionUpdated, t)
	return models.NewTransactionView(t), nil
}

// DeleteTransaction hard-deletes and returns the record as it was.
func (s *TransactionCommandService) DeleteTransaction(ctx context.Context, cmd cqrs.DeleteTransactionCommand) (*models.TransactionView, error) {
	t, err := s.loadOwned(ctx, cmd.TransactionID, cmd.RequestingUserID)
	if err != nil {
		return nil, err
	}
	if err := s.writeRepo.Delete(ctx, t.ID, t.UserID); err != nil {
		return nil, err
	}

	s.cache.InvalidateTransactions(ctx, t.ID)
	s.publish(ctx, events.TransactionDeleted, t)
	return models.NewTransactionView(t), nil
}

// HandleUserEvent is the Redis stream subscriber handler. A deleted user takes
// their ledger with them; replays are harmless because the delete is idempotent.
func (s *TransactionCommandService) HandleUserEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.UserDeleted {
		return nil
	}

	var data events.UserDeletedEvent
	if err := event.Decode(&data); err != nil {
		return err
	}
	ids, err := s.writeRepo.DeleteByUser(ctx, data.UserID)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		s.cache.InvalidateTransactions(ctx, ids...)
	}
	slog.Info("deleted transactions of removed user", "userId", data.UserID, "count", len(ids))
	return nil
}

func (s *TransactionCommandService) loadOwned(ctx context.Context, id, principal int64) (*models.Transaction, error) {
	t, err := s.writeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(t, principal); err != nil {
		return nil, fmt.Errorf("transaction %d: %w", id, err)
	}
	return t, nil
}

func (s *TransactionCommandService) publish(ctx context.Context, eventType string, t *models.Transaction) {
	err := s.publisher.Publish(ctx, events.TransactionEventsStream, eventType, events.TransactionEvent{
		TransactionID: t.ID,
		UserID:        t.UserID,
		Amount:        t.Amount,
		Category:      string(t.Category),
		Type:          string(t.Type),
	})
	if err != nil {
		slog.Warn("failed to publish event", "type", eventType, "transactionId", t.ID, "error", err)
	}
}
