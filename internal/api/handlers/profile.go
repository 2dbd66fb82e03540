package handlers

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/api/middleware"
	"github.com/antoniogar11/refolder-sub002/internal/api/response"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
)

// ProfileService is the tax profile surface the API exposes
type ProfileService interface {
	GetTaxProfile(ctx context.Context, ownerID string) (*profile.TaxProfile, error)
	SaveTaxProfile(ctx context.Context, ownerID string, req *profile.SaveTaxProfileRequest) (*profile.TaxProfile, error)
}

// ProfileHandler serves the tax profile endpoints
type ProfileHandler struct {
	service ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(service ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Get handles GET /tax-profile
func (h *ProfileHandler) Get(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	p, err := h.service.GetTaxProfile(ctx, middleware.OwnerID(ctx))
	if err != nil {
		return response.FromError(err, request.RequestContext.RequestID), nil
	}
	return response.OK(p, request.RequestContext.RequestID), nil
}

// Put handles PUT /tax-profile
func (h *ProfileHandler) Put(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID

	var req profile.SaveTaxProfileRequest
	if err := json.Unmarshal([]byte(request.Body), &req); err != nil {
		return response.ValidationError("request body must be a JSON tax profile", requestID), nil
	}

	p, err := h.service.SaveTaxProfile(ctx, middleware.OwnerID(ctx), &req)
	if err != nil {
		return response.FromError(err, requestID), nil
	}
	logger.Info("tax profile updated")
	return response.OK(p, requestID), nil
}
