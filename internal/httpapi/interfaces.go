package httpapi

import (
	"context"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
)

// AccountReader abstracts account read operations used directly by handlers.
type AccountReader interface {
	// FetchAccounts returns accounts for the given user filtered by the provided ids.
	FetchAccounts(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]ledger.Account, error)
	// ListAccounts returns all accounts for a given user.
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]ledger.Account, error)
	// GetAccount returns a user's account by ID.
	GetAccount(ctx context.Context, userID, accountID uuid.UUID) (ledger.Account, error)
}

// TransactionReader abstracts transaction read operations.
type TransactionReader interface {
	// ListTransactions returns transactions for a given user.
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]ledger.Transaction, error)
	// TransactionsByAccount returns the user's transactions touching an account.
	TransactionsByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]ledger.Transaction, error)
	// GetTransaction returns a transaction by id for the user.
	GetTransaction(ctx context.Context, userID, txID uuid.UUID) (ledger.Transaction, error)
}

// IdempotencyStore abstracts idempotency key operations for transactions.
type IdempotencyStore interface {
	// GetTransactionByIdempotencyKey resolves a transaction by idempotency key.
	GetTransactionByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string) (ledger.Transaction, bool, error)
	// SaveIdempotencyKey stores an idempotency key mapping for a transaction.
	SaveIdempotencyKey(ctx context.Context, userID uuid.UUID, key string, txID uuid.UUID) error
}

// ReadyChecker is optionally implemented by stores to indicate readiness.
type ReadyChecker interface {
	Ready(ctx context.Context) error
}

// Repository composes the read-side operations used by the API. It is a
// convenience union satisfied by both stores.
type Repository interface {
	AccountReader
	TransactionReader
	IdempotencyStore
}
