package middleware

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

// APIGatewayHandler is a function that handles API Gateway requests
type APIGatewayHandler func(context.Context, *zap.Logger, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Middleware wraps a handler
type Middleware interface {
	Handle(next APIGatewayHandler) APIGatewayHandler
}

// Chain applies middlewares so the first one listed runs outermost
func Chain(h APIGatewayHandler, mws ...Middleware) APIGatewayHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i].Handle(h)
	}
	return h
}

type requestIDKey struct{}

// RequestID returns the request id set by the logging middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
