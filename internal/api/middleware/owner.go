package middleware

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/api/response"
	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
)

type ownerKey struct{}

// TokenVerifier validates a bearer token
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*utils.Claims, error)
}

// OwnerMiddleware resolves the account every request acts for. The owner comes
// from the authorizer context when API Gateway ran the authorizer, otherwise
// from the bearer token. Requests without an owner get 401.
type OwnerMiddleware struct {
	verifier TokenVerifier
}

// NewOwnerMiddleware creates a new owner middleware; verifier may be nil
func NewOwnerMiddleware(verifier TokenVerifier) OwnerMiddleware {
	return OwnerMiddleware{verifier: verifier}
}

// Handle handles the owner middleware
func (m OwnerMiddleware) Handle(next APIGatewayHandler) APIGatewayHandler {
	return func(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		if request.HTTPMethod == http.MethodOptions {
			return next(ctx, logger, request)
		}
		requestID := request.RequestContext.RequestID

		ownerID := ownerFromAuthorizer(request.RequestContext.Authorizer)
		if ownerID == "" {
			if m.verifier == nil {
				return response.AuthenticationError("authentication required", requestID), nil
			}
			token, err := utils.ExtractBearerToken(utils.HeaderValue(request.Headers, "Authorization"))
			if err != nil {
				return response.AuthenticationError(err.Error(), requestID), nil
			}
			claims, err := m.verifier.Verify(ctx, token)
			if err != nil {
				logger.Warn("token validation failed", zap.Error(err))
				return response.AuthenticationError("invalid or expired token", requestID), nil
			}
			ownerID = claims.Owner()
		}

		ctx = WithOwner(ctx, ownerID)
		return next(ctx, logger.With(zap.String("ownerId", ownerID)), request)
	}
}

func ownerFromAuthorizer(authorizer map[string]interface{}) string {
	for _, key := range []string{"ownerId", "sub"} {
		if v, ok := authorizer[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// WithOwner stores the owner in ctx
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// OwnerID returns the owner resolved for the request
func OwnerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerKey{}).(string)
	return id
}
