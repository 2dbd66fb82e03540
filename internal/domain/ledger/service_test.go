package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

// memoryRepository keeps transactions in a map keyed by owner and ID
type memoryRepository struct {
	items  map[string]Transaction
	nextID int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{items: make(map[string]Transaction)}
}

func (r *memoryRepository) key(ownerID, id string) string { return ownerID + "#" + id }

func (r *memoryRepository) CreateTransaction(ctx context.Context, tx *Transaction) (*Transaction, error) {
	r.nextID++
	tx.TransactionID = fmt.Sprintf("tx-%d", r.nextID)
	r.items[r.key(tx.OwnerID, tx.TransactionID)] = *tx
	return tx, nil
}

func (r *memoryRepository) GetTransaction(ctx context.Context, ownerID, transactionID string) (*Transaction, error) {
	tx, ok := r.items[r.key(ownerID, transactionID)]
	if !ok {
		return nil, errors.NewNotFoundError("transaction not found")
	}
	return &tx, nil
}

func (r *memoryRepository) UpdateTransaction(ctx context.Context, existing, updated *Transaction) (*Transaction, error) {
	r.items[r.key(updated.OwnerID, updated.TransactionID)] = *updated
	return updated, nil
}

func (r *memoryRepository) DeleteTransaction(ctx context.Context, tx *Transaction) error {
	delete(r.items, r.key(tx.OwnerID, tx.TransactionID))
	return nil
}

func (r *memoryRepository) FetchTransactions(ctx context.Context, ownerID string, start, end time.Time) ([]Transaction, error) {
	from, to := start.Format("2006-01-02"), end.Format("2006-01-02")
	var out []Transaction
	for _, tx := range r.items {
		if tx.OwnerID == ownerID && tx.Date >= from && tx.Date <= to {
			out = append(out, tx)
		}
	}
	return out, nil
}

func TestRecordTransaction(t *testing.T) {
	t.Run("stores a valid income", func(t *testing.T) {
		svc := NewService(newMemoryRepository())

		tx, err := svc.RecordTransaction(context.Background(), "owner-1", &CreateTransactionRequest{
			Type:          Income,
			Amount:        "1000.00",
			Date:          "2024-01-10",
			VATApplicable: true,
			Category:      "kitchen-renovation",
			ProjectID:     "proj-7",
		})

		require.NoError(t, err)
		assert.NotEmpty(t, tx.TransactionID)
		assert.Equal(t, "owner-1", tx.OwnerID)
		assert.Equal(t, "1000", tx.Amount.String())
		assert.Equal(t, "2024", tx.Year())
		assert.False(t, tx.CreatedAt.IsZero())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc := NewService(newMemoryRepository())
		cases := map[string]*CreateTransactionRequest{
			"unknown type":    {Type: "refund", Amount: "10", Date: "2024-01-10"},
			"negative amount": {Type: Expense, Amount: "-10", Date: "2024-01-10"},
			"bad date":        {Type: Expense, Amount: "10", Date: "10/01/2024"},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := svc.RecordTransaction(context.Background(), "owner-1", req)
				assert.True(t, errors.HasCode(err, errors.CodeValidation), "got %v", err)
			})
		}
	})

	t.Run("requires an owner", func(t *testing.T) {
		svc := NewService(newMemoryRepository())
		_, err := svc.RecordTransaction(context.Background(), " ", &CreateTransactionRequest{Type: Income, Amount: "1", Date: "2024-01-01"})
		assert.Error(t, err)
	})
}

func TestUpdateTransaction(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	tx, err := svc.RecordTransaction(ctx, "owner-1", &CreateTransactionRequest{Type: Expense, Amount: "200", Date: "2024-01-15"})
	require.NoError(t, err)

	newDate := "2024-02-01"
	notVAT := true
	updated, err := svc.UpdateTransaction(ctx, "owner-1", tx.TransactionID, &UpdateTransactionRequest{
		Date:          &newDate,
		VATApplicable: &notVAT,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", updated.Date)
	assert.True(t, updated.VATApplicable)
	assert.Equal(t, "200", updated.Amount.String())

	bad := "-5"
	_, err = svc.UpdateTransaction(ctx, "owner-1", tx.TransactionID, &UpdateTransactionRequest{Amount: &bad})
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	_, err = svc.UpdateTransaction(ctx, "owner-2", tx.TransactionID, &UpdateTransactionRequest{Date: &newDate})
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestListAndDeleteTransactions(t *testing.T) {
	svc := NewService(newMemoryRepository())
	ctx := context.Background()

	for _, date := range []string{"2024-01-01", "2024-01-31", "2024-02-01"} {
		_, err := svc.RecordTransaction(ctx, "owner-1", &CreateTransactionRequest{Type: Income, Amount: "10", Date: date})
		require.NoError(t, err)
	}

	list, err := svc.ListTransactions(ctx, "owner-1", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 2, list.TotalCount)

	_, err = svc.ListTransactions(ctx, "owner-1", "2024-02-01", "2024-01-01")
	assert.True(t, errors.HasCode(err, errors.CodeValidation))

	empty, err := svc.ListTransactions(ctx, "owner-9", "2024-01-01", "2024-12-31")
	require.NoError(t, err)
	assert.NotNil(t, empty.Transactions)
	assert.Zero(t, empty.TotalCount)

	require.NoError(t, svc.DeleteTransaction(ctx, "owner-1", list.Transactions[0].TransactionID))
	list, err = svc.ListTransactions(ctx, "owner-1", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalCount)
}
