package cqrs

import "github.com/eaglebank/ledger/shared/listing"

// ---------- User queries ----------

// GetUserQuery fetches a single user by id.
type GetUserQuery struct {
	UserID int64
}

type VerifyPasswordQuery struct {
	UserID   int64
	Password string
}

// ListUsersQuery is the admin listing with optional exact-email and
// name-substring filters.
type ListUsersQuery struct {
	Page   listing.Params
	Email  string
	Search string
}

// ---------- Transaction queries ----------

// GetTransactionQuery fetches a single transaction, subject to ownership check.
type GetTransactionQuery struct {
	TransactionID    int64
	RequestingUserID int64
}

// ListTransactionsQuery pages through the requesting user's transactions.
type ListTransactionsQuery struct {
	RequestingUserID int64
	Page             listing.Params
}

type GetBalanceQuery struct {
	RequestingUserID int64
}
