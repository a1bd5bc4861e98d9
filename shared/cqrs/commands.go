package cqrs

import (
	"time"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
)

// ---------- User commands ----------

type CreateUserCommand struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateProfileCommand patches the requesting user's own profile.
// Absent or null fields are left untouched.
type UpdateProfileCommand struct {
	UserID    int64
	Email     models.Optional[string]
	FirstName models.Optional[string]
	LastName  models.Optional[string]
}

type UpdatePasswordCommand struct {
	UserID          int64
	CurrentPassword string
	NewPassword     string
}

type DeleteUserCommand struct {
	UserID int64
}

// ---------- Transaction commands ----------

type CreateTransactionCommand struct {
	RequestingUserID int64
	Amount           decimal.Decimal
	Category         models.Category
	Reason           string
	Date             *time.Time
}

// UpdateTransactionCommand patches a transaction owned by RequestingUserID.
type UpdateTransactionCommand struct {
	TransactionID    int64
	RequestingUserID int64
	Amount           models.Optional[decimal.Decimal]
	Category         models.Optional[models.Category]
	Reason           models.Optional[string]
	Date             models.Optional[time.Time]
}

type DeleteTransactionCommand struct {
	TransactionID    int64
	RequestingUserID int64
}

// ---------- Auth commands ----------

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	Token string
}
