package handlers

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/api/middleware"
	"github.com/antoniogar11/refolder-sub002/internal/api/response"
	"github.com/antoniogar11/refolder-sub002/internal/domain/ledger"
)

// TransactionService is the ledger surface the API exposes
type TransactionService interface {
	RecordTransaction(ctx context.Context, ownerID string, req *ledger.CreateTransactionRequest) (*ledger.Transaction, error)
	GetTransaction(ctx context.Context, ownerID string, transactionID string) (*ledger.Transaction, error)
	ListTransactions(ctx context.Context, ownerID string, from, to string) (*ledger.ListTransactionsResponse, error)
	UpdateTransaction(ctx context.Context, ownerID string, transactionID string, req *ledger.UpdateTransactionRequest) (*ledger.Transaction, error)
	DeleteTransaction(ctx context.Context, ownerID string, transactionID string) error
}

// TransactionHandler serves the transaction endpoints
type TransactionHandler struct {
	service TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(service TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// Create handles POST /transactions
func (h *TransactionHandler) Create(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID

	var req ledger.CreateTransactionRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.ValidationError("request body must be a JSON transaction", requestID), nil
	}

	tx, err := h.service.RecordTransaction(ctx, middleware.OwnerID(ctx), &req)
	if err != nil {
		return response.FromError(err, requestID), nil
	}
	return response.Created(tx, requestID), nil
}

// List handles GET /transactions?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *TransactionHandler) List(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID
	from := request.QueryStringParameters["from"]
	to := request.QueryStringParameters["to"]

	result, err := h.service.ListTransactions(ctx, middleware.OwnerID(ctx), from, to)
	if err != nil {
		return response.FromError(err, requestID), nil
	}
	return response.OK(result, requestID), nil
}

// Get handles GET /transactions/{transactionId}
func (h *TransactionHandler) Get(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest, transactionID string) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID

	tx, err := h.service.GetTransaction(ctx, middleware.OwnerID(ctx), transactionID)
	if err != nil {
		return response.FromError(err, requestID), nil
	}
	return response.OK(tx, requestID), nil
}

// Update handles PUT /transactions/{transactionId}
func (h *TransactionHandler) Update(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest, transactionID string) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID

	var req ledger.UpdateTransactionRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.ValidationError("request body must be a JSON object", requestID), nil
	}

	tx, err := h.service.UpdateTransaction(ctx, middleware.OwnerID(ctx), transactionID, &req)
	if err != nil {
		return response.FromError(err, requestID), nil
	}
	return response.OK(tx, requestID), nil
}

// Delete handles DELETE /transactions/{transactionId}
func (h *TransactionHandler) Delete(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest, transactionID string) (events.APIGatewayProxyResponse, error) {
	if err := h.service.DeleteTransaction(ctx, middleware.OwnerID(ctx), transactionID); err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.NoContent(), nil
}
