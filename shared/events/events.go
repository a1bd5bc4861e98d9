package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
	UserSeen    = "user.seen"

	TransactionCreated = "transaction.created"
	TransactionUpdated = "transaction.updated"
	TransactionDeleted = "transaction.deleted"
)

// Stream names
const (
	UserEventsStream        = "user.events"
	TransactionEventsStream = "transaction.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Decode re-decodes the generic Data payload into a typed event struct.
func (e Event) Decode(v any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", e.Type, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}

// User events
type UserCreatedEvent struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

type UserUpdatedEvent struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

type UserDeletedEvent struct {
	UserID int64 `json:"userId"`
}

// UserSeenEvent is published by the auth service after a login or refresh.
type UserSeenEvent struct {
	UserID int64     `json:"userId"`
	SeenAt time.Time `json:"seenAt"`
}

// Transaction events
type TransactionEvent struct {
	TransactionID int64           `json:"transactionId"`
	UserID        int64           `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Category      string          `json:"category"`
	Type          string          `json:"type"`
}
