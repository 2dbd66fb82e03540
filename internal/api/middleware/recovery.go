package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/api/response"
	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

// RecoveryMiddleware is a middleware for recovering from panics
type RecoveryMiddleware struct{}

// NewRecoveryMiddleware creates a new recovery middleware
func NewRecoveryMiddleware() RecoveryMiddleware {
	return RecoveryMiddleware{}
}

// Handle turns panics and returned errors into error envelopes so the Lambda
// runtime always receives a response.
func (m RecoveryMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				resp = response.Error(errors.NewInternalError("An unexpected error occurred", fmt.Errorf("panic: %v", r)), request.RequestContext.RequestID)
				err = nil
			}
		}()

		resp, err = next(ctx, logger, request)
		if err != nil {
			logger.Error("handler returned error", zap.Error(err))
			return response.FromError(err, request.RequestContext.RequestID), nil
		}
		return resp, nil
	}
}
