package main

import (
	"context"
	"log"
	"runtime"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/api/handlers"
	"github.com/antoniogar11/refolder-sub002/internal/api/middleware"
	envconfig "github.com/antoniogar11/refolder-sub002/internal/common/config"
	applog "github.com/antoniogar11/refolder-sub002/internal/common/logger"
	"github.com/antoniogar11/refolder-sub002/internal/domain/ledger"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
	"github.com/antoniogar11/refolder-sub002/internal/domain/tax"
	"github.com/antoniogar11/refolder-sub002/internal/platform/auth"
	ddbclient "github.com/antoniogar11/refolder-sub002/internal/platform/dynamodb/client"
	"github.com/antoniogar11/refolder-sub002/internal/platform/dynamodb/repository"
	"github.com/antoniogar11/refolder-sub002/internal/platform/secrets"
)

var (
	handler middleware.APIGatewayHandler
	logger  *zap.Logger
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

	dbClient := ddbclient.NewDynamoDBClient(awscfg, logger)
	factory := repository.NewFactory(dbClient, config.DynamoDBTableName, logger)

	transactionRepo := factory.TransactionRepository()
	profileRepo := factory.ProfileRepository()

	ledgerService := ledger.NewService(transactionRepo)
	profileService := profile.NewService(profileRepo, profile.Defaults{
		WithholdingRate:      config.DefaultWithholdingRate,
		VATRate:              config.DefaultVATRate,
		FiscalYearStartMonth: config.DefaultFiscalYearStartMonth,
		Timezone:             config.FiscalTimezone.String(),
	})

	engine := tax.NewEngine(transactionRepo, profileRepo, logger,
		tax.WithLedgerTimeout(config.LedgerTimeout),
		tax.WithLocation(config.FiscalTimezone),
	)

	secretStore, err := secrets.NewSigningSecretStore(secretsmanager.NewFromConfig(awscfg), config.JWTSigningSecretID)
	if err != nil {
		logger.Fatal("Failed to create secret cache", zap.Error(err))
	}
	var jwks *auth.JWKSCache
	if config.JWKSURL != "" {
		jwks = auth.NewJWKSCache(config.JWKSURL)
	}
	verifier := auth.NewVerifier(secretStore, jwks, config.JWTIssuer, logger)

	var provisioner handlers.ProfileProvisioner
	if config.AutoProvisionProfile {
		provisioner = profileService
	}

	router := handlers.NewRouter(
		handlers.NewTaxHandler(engine, provisioner),
		handlers.NewTransactionHandler(ledgerService),
		handlers.NewProfileHandler(profileService),
		"/api",
	)

	handler = middleware.Chain(router.Route,
		middleware.NewRecoveryMiddleware(),
		middleware.NewLoggingMiddleware(!config.IsProd()),
		middleware.NewOwnerMiddleware(verifier),
	)
}

func handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Debug("api - Memory Status", zap.Uint64("MB", m.Alloc/1024/1024))

	return handler(ctx, logger, request)
}

func main() {
	defer logger.Sync()
	lambda.Start(handle)
}
