package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
)

// LoggingMiddleware is a middleware for logging requests and responses
type LoggingMiddleware struct {
	logBodies bool
}

// NewLoggingMiddleware creates a new logging middleware. Bodies are logged
// only when logBodies is set, which is never the case in prod.
func NewLoggingMiddleware(logBodies bool) LoggingMiddleware {
	return LoggingMiddleware{logBodies: logBodies}
}

// Handle handles the logging middleware
func (m LoggingMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		startTime := time.Now()

		requestID := request.RequestContext.RequestID
		if requestID == "" {
			requestID = utils.HeaderValue(request.Headers, "X-Request-Id")
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		request.RequestContext.RequestID = requestID
		ctx = context.WithValue(ctx, requestIDKey{}, requestID)
		logger = logger.With(zap.String("requestId", requestID))

		fields := []zap.Field{
			zap.String("method", request.HTTPMethod),
			zap.String("path", request.Path),
			zap.Any("queryParameters", request.QueryStringParameters),
			zap.Any("headers", maskSensitiveHeaders(request.Headers)),
		}
		if m.logBodies && request.Body != "" {
			fields = append(fields, zap.String("body", request.Body))
		}
		logger.Info("REQUEST", fields...)

		response, err := next(ctx, logger, request)

		fields = []zap.Field{
			zap.Int("status", response.StatusCode),
			zap.Duration("duration", time.Since(startTime)),
		}
		if m.logBodies && response.Body != "" {
			fields = append(fields, zap.String("body", response.Body))
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logger.Info("RESPONSE", fields...)

		return response, err
	}
}

// maskSensitiveHeaders masks sensitive headers
func maskSensitiveHeaders(headers map[string]string) map[string]string {
	masked := make(map[string]string, len(headers))
	for k, v := range headers {
		masked[k] = v
	}

	for _, header := range []string{"Authorization", "X-Api-Key", "Cookie"} {
		for k := range masked {
			if strings.EqualFold(k, header) {
				masked[k] = "***"
			}
		}
	}

	return masked
}
