package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the write model stored in the identity store.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastSeenAt   *time.Time `json:"lastSeenAt"`
}

// TransactionType is the ledger direction derived from a category.
type TransactionType string

const (
	Credit TransactionType = "credit"
	Debit  TransactionType = "debit"
)

// Category is the user-facing classification of a transaction.
type Category string

const (
	CategoryRevenue     Category = "revenue"
	CategoryGrant       Category = "grant"
	CategoryLoanPayment Category = "loanPayment"
	CategoryDebt        Category = "debt"
	CategoryShopping    Category = "shopping"
	CategoryFood        Category = "food"
	CategoryTransport   Category = "transport"
	CategoryHousing     Category = "housing"
	CategoryBills       Category = "bills"
	CategoryHealth      Category = "health"
	CategoryEducation   Category = "education"
	CategoryLeisure     Category = "leisure"
	CategoryTaxes       Category = "taxes"
	CategoryOther       Category = "other"
)

// CategoryNames is the validator oneof list for every known category.
const CategoryNames = "revenue grant loanPayment debt shopping food transport housing bills health education leisure taxes other"

var creditCategories = map[Category]struct{}{
	CategoryRevenue:     {},
	CategoryGrant:       {},
	CategoryLoanPayment: {},
	CategoryDebt:        {},
}

// Classify maps a category to its ledger direction. Only revenue, grant,
// loanPayment and debt are credits.
func Classify(c Category) TransactionType {
	if _, ok := creditCategories[c]; ok {
		return Credit
	}
	return Debit
}

// Transaction is the write model stored in the ledger.
type Transaction struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"userId"`
	Amount    decimal.Decimal `json:"amount"`
	Category  Category        `json:"category"`
	Type      TransactionType `json:"type"`
	Reason    string          `json:"reason"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (t *Transaction) OwnerID() int64 { return t.UserID }
