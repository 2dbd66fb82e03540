package ledger

import (
	"context"
	"time"

	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

// Service provides transaction-related business logic
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new ledger service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RecordTransaction validates and stores a new income or expense
func (s *Service) RecordTransaction(ctx context.Context, ownerID string, req *CreateTransactionRequest) (*Transaction, error) {
	if err := utils.ValidateRequiredString(ownerID, "owner"); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, errors.NewValidationError("type must be income or expense")
	}
	amount, err := utils.ParseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateISODate(req.Date); err != nil {
		return nil, err
	}

	now := s.now()
	tx := &Transaction{
		OwnerID:       ownerID,
		Type:          req.Type,
		Amount:        amount,
		Date:          req.Date,
		VATApplicable: req.VATApplicable,
		Category:      req.Category,
		ProjectID:     req.ProjectID,
		ClientID:      req.ClientID,
		Description:   req.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.repo.CreateTransaction(ctx, tx)
}

// GetTransaction retrieves a transaction by ID
func (s *Service) GetTransaction(ctx context.Context, ownerID string, transactionID string) (*Transaction, error) {
	if err := utils.ValidateRequiredString(transactionID, "transaction id"); err != nil {
		return nil, err
	}
	return s.repo.GetTransaction(ctx, ownerID, transactionID)
}

// ListTransactions returns the owner's transactions dated between from and to (inclusive)
func (s *Service) ListTransactions(ctx context.Context, ownerID string, from, to string) (*ListTransactionsResponse, error) {
	if err := utils.ValidateISODate(from); err != nil {
		return nil, err
	}
	if err := utils.ValidateISODate(to); err != nil {
		return nil, err
	}
	start, _ := time.Parse(utils.DateLayout, from)
	end, _ := time.Parse(utils.DateLayout, to)
	if end.Before(start) {
		return nil, errors.NewValidationError("to must not be before from")
	}

	txs, err := s.repo.FetchTransactions(ctx, ownerID, start, end)
	if err != nil {
		return nil, err
	}
	if txs == nil {
		txs = []Transaction{}
	}

	return &ListTransactionsResponse{
		Transactions: txs,
		TotalCount:   len(txs),
		From:         from,
		To:           to,
	}, nil
}

// UpdateTransaction applies a partial update to an existing transaction
func (s *Service) UpdateTransaction(ctx context.Context, ownerID string, transactionID string, req *UpdateTransactionRequest) (*Transaction, error) {
	existing, err := s.GetTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, errors.NewValidationError("type must be income or expense")
		}
		updated.Type = *req.Type
	}
	if req.Amount != nil {
		amount, err := utils.ParseAmount(*req.Amount)
		if err != nil {
			return nil, err
		}
		updated.Amount = amount
	}
	if req.Date != nil {
		if err := utils.ValidateISODate(*req.Date); err != nil {
			return nil, err
		}
		updated.Date = *req.Date
	}
	if req.VATApplicable != nil {
		updated.VATApplicable = *req.VATApplicable
	}
	if req.Category != nil {
		updated.Category = *req.Category
	}
	if req.ProjectID != nil {
		updated.ProjectID = *req.ProjectID
	}
	if req.ClientID != nil {
		updated.ClientID = *req.ClientID
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	updated.UpdatedAt = s.now()

	return s.repo.UpdateTransaction(ctx, existing, &updated)
}

// DeleteTransaction deletes a transaction
func (s *Service) DeleteTransaction(ctx context.Context, ownerID string, transactionID string) error {
	existing, err := s.GetTransaction(ctx, ownerID, transactionID)
	if err != nil {
		return err
	}
	return s.repo.DeleteTransaction(ctx, existing)
}
