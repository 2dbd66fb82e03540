package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/api/response"
)

// Router dispatches API Gateway proxy requests to handlers
type Router struct {
	tax          *TaxHandler
	transactions *TransactionHandler
	profiles     *ProfileHandler
	basePath     string
}

// NewRouter creates a new router. basePath is stripped from incoming paths.
func NewRouter(tax *TaxHandler, transactions *TransactionHandler, profiles *ProfileHandler, basePath string) *Router {
	return &Router{
		tax:          tax,
		transactions: transactions,
		profiles:     profiles,
		basePath:     strings.TrimSuffix(basePath, "/"),
	}
}

// Route handles one request
func (r *Router) Route(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID
	method := request.HTTPMethod
	path := strings.TrimSuffix(strings.TrimPrefix(request.Path, r.basePath), "/")

	if method == http.MethodOptions {
		return response.Preflight(), nil
	}

	switch {
	case path == "/taxes/calculate":
		if method != http.MethodGet {
			return response.MethodNotAllowed(requestID), nil
		}
		return r.tax.Calculate(ctx, logger, request)

	case path == "/transactions":
		switch method {
		case http.MethodGet:
			return r.transactions.List(ctx, logger, request)
		case http.MethodPost:
			return r.transactions.Create(ctx, logger, request)
		}
		return response.MethodNotAllowed(requestID), nil

	case strings.HasPrefix(path, "/transactions/"):
		id := request.PathParameters["transactionId"]
		if id == "" {
			id = strings.TrimPrefix(path, "/transactions/")
		}
		if id == "" || strings.Contains(id, "/") {
			return response.NotFound("Endpoint not found", requestID), nil
		}
		switch method {
		case http.MethodGet:
			return r.transactions.Get(ctx, logger, request, id)
		case http.MethodPut:
			return r.transactions.Update(ctx, logger, request, id)
		case http.MethodDelete:
			return r.transactions.Delete(ctx, logger, request, id)
		}
		return response.MethodNotAllowed(requestID), nil

	case path == "/tax-profile":
		switch method {
		case http.MethodGet:
			return r.profiles.Get(ctx, logger, request)
		case http.MethodPut:
			return r.profiles.Put(ctx, logger, request)
		}
		return response.MethodNotAllowed(requestID), nil
	}

	return response.NotFound("Endpoint not found", requestID), nil
}
