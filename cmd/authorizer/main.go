package main

import (
	"context"
	"fmt"
	"log"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	envconfig "github.com/antoniogar11/refolder-sub002/internal/common/config"
	applog "github.com/antoniogar11/refolder-sub002/internal/common/logger"
	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
	"github.com/antoniogar11/refolder-sub002/internal/platform/auth"
	"github.com/antoniogar11/refolder-sub002/internal/platform/secrets"
)

var (
	verifier *auth.Verifier
	logger   *zap.Logger
)

func init() {
	config, err := envconfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load Env config: %v", err)
	}

	logger, err = applog.New(config.Environment, config.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	awscfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		logger.Fatal("Failed to load AWS config", zap.Error(err))
	}

	secretStore, err := secrets.NewSigningSecretStore(secretsmanager.NewFromConfig(awscfg), config.JWTSigningSecretID)
	if err != nil {
		logger.Fatal("Failed to create secret cache", zap.Error(err))
	}
	var jwks *auth.JWKSCache
	if config.JWKSURL != "" {
		jwks = auth.NewJWKSCache(config.JWKSURL)
	}
	verifier = auth.NewVerifier(secretStore, jwks, config.JWTIssuer, logger)
}

// handler is the Lambda function handler for API Gateway REST API Request Authorizer
func handler(ctx context.Context, request events.APIGatewayCustomAuthorizerRequestTypeRequest) (events.APIGatewayCustomAuthorizerResponse, error) {
	token, err := utils.ExtractBearerToken(utils.HeaderValue(request.Headers, "Authorization"))
	if err != nil {
		logger.Info("Missing or invalid Authorization header", zap.Error(err))
		return generatePolicy("user", "Deny", request.MethodArn, nil), nil
	}

	claims, err := verifier.Verify(ctx, token)
	if err != nil {
		logger.Warn("Token validation failed", zap.Error(err))
		return generatePolicy("user", "Deny", request.MethodArn, nil), nil
	}

	owner := claims.Owner()
	authContext := map[string]interface{}{
		"ownerId": owner,
		"sub":     claims.Subject,
		"scope":   claims.Scope,
		"iss":     claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		authContext["exp"] = fmt.Sprintf("%d", claims.ExpiresAt.Unix())
	}

	//arn:aws:execute-api:{regionId}:{accountId}:{apiId}/{stage}/{httpVerb}/[{resource}/[{child-resources}]]
	arn := fmt.Sprintf("arn:aws:execute-api:%s:%s:%s/%s/%s",
		"*", // Region
		request.RequestContext.AccountID,
		request.RequestContext.APIID,
		request.RequestContext.Stage,
		"*", //HTTP Method
	)

	return generatePolicy(owner, "Allow", arn, authContext), nil
}

// generatePolicy generates an IAM policy for the authorizer response
func generatePolicy(principalID, effect, resource string, context map[string]interface{}) events.APIGatewayCustomAuthorizerResponse {
	authResponse := events.APIGatewayCustomAuthorizerResponse{
		PrincipalID: principalID,
	}

	if effect != "" && resource != "" {
		authResponse.PolicyDocument = events.APIGatewayCustomAuthorizerPolicy{
			Version: "2012-10-17",
			Statement: []events.IAMPolicyStatement{
				{
					Action:   []string{"execute-api:Invoke"},
					Effect:   effect,
					Resource: []string{resource},
				},
			},
		}
	}

	if context != nil {
		authResponse.Context = context
	}

	authResponse.UsageIdentifierKey = principalID

	return authResponse
}

func main() {
	defer logger.Sync()
	lambda.Start(handler)
}
