package ledger

import (
	"context"
	"time"
)

// Reader is the read side the tax engine depends on
type Reader interface {
	// FetchTransactions returns every transaction of the owner dated in
	// [start, end], both calendar days inclusive
	FetchTransactions(ctx context.Context, ownerID string, start, end time.Time) ([]Transaction, error)
}

// Repository defines the interface for transaction data operations
type Repository interface {
	Reader

	// Create a new transaction, assigning an ID when empty
	CreateTransaction(ctx context.Context, tx *Transaction) (*Transaction, error)

	// Get a transaction by ID
	GetTransaction(ctx context.Context, ownerID string, transactionID string) (*Transaction, error)

	// Replace an existing transaction; the date may move between periods
	UpdateTransaction(ctx context.Context, existing *Transaction, updated *Transaction) (*Transaction, error)

	// Delete a transaction
	DeleteTransaction(ctx context.Context, tx *Transaction) error
}
