package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tells whether a transaction adds to or subtracts from profit
type TransactionType string

const (
	// Income is money received, e.g. an invoiced renovation job
	Income TransactionType = "income"
	// Expense is money spent, e.g. materials or subcontractors
	Expense TransactionType = "expense"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction represents one dated money movement of an owner
type Transaction struct {
	TransactionID string          `json:"id"`
	OwnerID       string          `json:"ownerId"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"` // never negative, two decimals
	Date          string          `json:"date"`   //YYYY-MM-DD
	VATApplicable bool            `json:"vatApplicable"`
	Category      string          `json:"category,omitempty"`
	ProjectID     string          `json:"projectId,omitempty"`
	ClientID      string          `json:"clientId,omitempty"`
	Description   string          `json:"description,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Year returns the calendar year part of the transaction date
func (t *Transaction) Year() string {
	if len(t.Date) < 4 {
		return ""
	}
	return t.Date[:4]
}

// CreateTransactionRequest represents the data needed to record a transaction
type CreateTransactionRequest struct {
	Type          TransactionType `json:"type"`
	Amount        string          `json:"amount"`
	Date          string          `json:"date"` //YYYY-MM-DD
	VATApplicable bool            `json:"vatApplicable"`
	Category      string          `json:"category,omitempty"`
	ProjectID     string          `json:"projectId,omitempty"`
	ClientID      string          `json:"clientId,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// UpdateTransactionRequest carries the fields to change; nil means keep
type UpdateTransactionRequest struct {
	Type          *TransactionType `json:"type,omitempty"`
	Amount        *string          `json:"amount,omitempty"`
	Date          *string          `json:"date,omitempty"`
	VATApplicable *bool            `json:"vatApplicable,omitempty"`
	Category      *string          `json:"category,omitempty"`
	ProjectID     *string          `json:"projectId,omitempty"`
	ClientID      *string          `json:"clientId,omitempty"`
	Description   *string          `json:"description,omitempty"`
}

// ListTransactionsResponse represents a list of transactions in a date range
type ListTransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	TotalCount   int           `json:"totalCount"`
	From         string        `json:"from"`
	To           string        `json:"to"`
}
