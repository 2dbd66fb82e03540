package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	envconfig "github.com/antoniogar11/refolder-sub002/internal/common/config"
	applog "github.com/antoniogar11/refolder-sub002/internal/common/logger"
	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
	ddbclient "github.com/antoniogar11/refolder-sub002/internal/platform/dynamodb/client"
	"github.com/antoniogar11/refolder-sub002/internal/platform/dynamodb/repository"
	"github.com/antoniogar11/refolder-sub002/internal/platform/secrets"
)

// Example: AWS_PROFILE=refolder-dev DYNAMODB_TABLE_NAME=refolder-dev go run ./cmd/operation issue-token -owner 01HX...
func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	config, err := envconfig.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load Env config: %v", err)
	}
	logger, err := applog.New(config.Environment, config.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	switch os.Args[1] {
	case "issue-token":
		err = issueToken(ctx, config, os.Args[2:])
	case "provision-profile":
		err = provisionProfile(ctx, config, logger, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal(os.Args[1]+" failed", zap.Error(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: operation issue-token -owner ID [-ttl 1h]")
	fmt.Fprintln(os.Stderr, "       operation provision-profile -owner ID")
}

// issueToken prints an HS256 bearer token for local testing against the API
func issueToken(ctx context.Context, config *envconfig.Config, args []string) error {
	fs := flag.NewFlagSet("issue-token", flag.ExitOnError)
	owner := fs.String("owner", "", "owner id the token acts for")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return fmt.Errorf("-owner is required")
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	store, err := secrets.NewSigningSecretStore(secretsmanager.NewFromConfig(awscfg), config.JWTSigningSecretID)
	if err != nil {
		return err
	}
	secret, err := store.SigningSecret(ctx)
	if err != nil {
		return err
	}

	token, err := utils.IssueToken(secret, config.JWTIssuer, *owner, *ttl, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// provisionProfile writes the default tax profile for an owner that has none
func provisionProfile(ctx context.Context, config *envconfig.Config, logger *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("provision-profile", flag.ExitOnError)
	owner := fs.String("owner", "", "owner id to provision")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *owner == "" {
		return fmt.Errorf("-owner is required")
	}

	awscfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	factory := repository.NewFactory(ddbclient.NewDynamoDBClient(awscfg, logger), config.DynamoDBTableName, logger)
	service := profile.NewService(factory.ProfileRepository(), profile.Defaults{
		WithholdingRate:      config.DefaultWithholdingRate,
		VATRate:              config.DefaultVATRate,
		FiscalYearStartMonth: config.DefaultFiscalYearStartMonth,
		Timezone:             config.FiscalTimezone.String(),
	})

	p, err := service.Provision(ctx, *owner)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
