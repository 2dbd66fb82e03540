package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	// AWS-specific configuration
	AWSRegion         string
	DynamoDBTableName string

	// Environment info
	Environment string
	LogLevel    string

	// Tax engine
	FiscalTimezone *time.Location
	LedgerTimeout  time.Duration

	// Defaults written to a tax profile when one is provisioned for a new owner
	DefaultWithholdingRate      decimal.Decimal
	DefaultVATRate              decimal.Decimal
	DefaultFiscalYearStartMonth time.Month
	AutoProvisionProfile        bool

	// Token verification
	JWTSigningSecretID string
	JWTIssuer          string
	JWKSURL            string

	// Lambda detection flag (cached)
	isLambda bool
}

// LoadFromEnv loads the configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}

	cfg.DynamoDBTableName = os.Getenv("DYNAMODB_TABLE_NAME")
	if cfg.DynamoDBTableName == "" {
		return nil, errors.New("DYNAMODB_TABLE_NAME environment variable is required")
	}

	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "dev"
	}

	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.AWSRegion = os.Getenv("AWS_REGION")
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = "eu-south-2"
	}

	tz := os.Getenv("FISCAL_TIMEZONE")
	if tz == "" {
		tz = "Europe/Madrid"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("FISCAL_TIMEZONE %q: %w", tz, err)
	}
	cfg.FiscalTimezone = loc

	cfg.LedgerTimeout = 5 * time.Second
	if v := os.Getenv("LEDGER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("LEDGER_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.LedgerTimeout = d
	}

	if cfg.DefaultWithholdingRate, err = rateFromEnv("DEFAULT_WITHHOLDING_RATE", "0.15"); err != nil {
		return nil, err
	}
	if cfg.DefaultVATRate, err = rateFromEnv("DEFAULT_VAT_RATE", "0.21"); err != nil {
		return nil, err
	}

	cfg.DefaultFiscalYearStartMonth = time.January
	if v := os.Getenv("DEFAULT_FISCAL_YEAR_START_MONTH"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return nil, fmt.Errorf("DEFAULT_FISCAL_YEAR_START_MONTH must be 1-12, got %q", v)
		}
		cfg.DefaultFiscalYearStartMonth = time.Month(m)
	}

	cfg.AutoProvisionProfile = os.Getenv("AUTO_PROVISION_PROFILE") == "true"

	cfg.JWTSigningSecretID = os.Getenv("JWT_SIGNING_SECRET_ID")
	if cfg.JWTSigningSecretID == "" {
		cfg.JWTSigningSecretID = "refolder/jwt/signing-secret"
	}
	cfg.JWTIssuer = os.Getenv("JWT_ISSUER")
	cfg.JWKSURL = os.Getenv("JWKS_URL")

	cfg.isLambda = os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""

	return cfg, nil
}

func rateFromEnv(key, fallback string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = fallback
	}
	rate, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a decimal fraction, got %q", key, v)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return rate, nil
}

func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// IsLambda returns true if the application is running in AWS Lambda
func (c *Config) IsLambda() bool {
	return c.isLambda
}
