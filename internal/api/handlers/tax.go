package handlers

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/api/middleware"
	"github.com/antoniogar11/refolder-sub002/internal/api/response"
	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
	"github.com/antoniogar11/refolder-sub002/internal/domain/tax"
)

// TaxCalculator computes the obligation of the current period
type TaxCalculator interface {
	Calculate(ctx context.Context, ownerID string, g tax.Granularity) (*tax.TaxCalculation, error)
}

// ProfileProvisioner writes a default profile for owners that have none
type ProfileProvisioner interface {
	Provision(ctx context.Context, ownerID string) (*profile.TaxProfile, error)
}

// TaxHandler serves the tax calculation endpoint
type TaxHandler struct {
	calculator  TaxCalculator
	provisioner ProfileProvisioner
}

// NewTaxHandler creates a new tax handler. When provisioner is non-nil a
// missing profile is created from the defaults and the calculation retried.
func NewTaxHandler(calculator TaxCalculator, provisioner ProfileProvisioner) *TaxHandler {
	return &TaxHandler{
		calculator:  calculator,
		provisioner: provisioner,
	}
}

// Calculate handles GET /taxes/calculate?period=month|year. A missing period
// means month.
func (h *TaxHandler) Calculate(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := request.RequestContext.RequestID

	period := request.QueryStringParameters["period"]
	if period == "" {
		period = string(tax.Month)
	}
	g, err := tax.ParseGranularity(period)
	if err != nil {
		return response.FromError(err, requestID), nil
	}

	ownerID := middleware.OwnerID(ctx)
	result, err := h.calculator.Calculate(ctx, ownerID, g)
	if err != nil && h.provisioner != nil && errors.HasCode(err, errors.CodeProfileNotFound) {
		logger.Info("provisioning default tax profile")
		if _, perr := h.provisioner.Provision(ctx, ownerID); perr != nil {
			logger.Error("failed to provision tax profile", zap.Error(perr))
			return response.FromError(err, requestID), nil
		}
		result, err = h.calculator.Calculate(ctx, ownerID, g)
	}
	if err != nil {
		return response.FromError(err, requestID), nil
	}

	return response.OK(result, requestID), nil
}
