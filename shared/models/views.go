package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserView is the read model returned to callers; it never carries the password hash.
type UserView struct {
	ID         int64      `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastSeenAt *time.Time `json:"lastSeenAt"`
}

func NewUserView(u *User) *UserView {
	return &UserView{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		CreatedAt:  u.CreatedAt,
		LastSeenAt: u.LastSeenAt,
	}
}

// TransactionView is the read model returned to callers.
// UserID is the owner and is never serialized.
type TransactionView struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"-"`
	Amount    decimal.Decimal `json:"amount"`
	Category  Category        `json:"category"`
	Type      TransactionType `json:"type"`
	Reason    *string         `json:"reason"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
}

func NewTransactionView(t *Transaction) *TransactionView {
	view := &TransactionView{
		ID:        t.ID,
		UserID:    t.UserID,
		Amount:    t.Amount,
		Category:  t.Category,
		Type:      t.Type,
		Date:      t.Date,
		CreatedAt: t.CreatedAt,
	}
	if t.Reason != "" {
		reason := t.Reason
		view.Reason = &reason
	}
	return view
}

// BalanceView is the signed account balance of one user.
type BalanceView struct {
	Balance decimal.Decimal `json:"balance"`
}
