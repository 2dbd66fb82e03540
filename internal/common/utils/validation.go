package utils

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

// DateLayout is the calendar date format used across the API and storage
const DateLayout = "2006-01-02"

var (
	// DateRegex validates ISO 8601 date strings (YYYY-MM-DD)
	DateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ValidateISODate validates an ISO 8601 date string (YYYY-MM-DD)
func ValidateISODate(date string) error {
	if !DateRegex.MatchString(date) {
		return errors.NewValidationError("invalid date format, should be YYYY-MM-DD")
	}

	if _, err := time.Parse(DateLayout, date); err != nil {
		return errors.NewValidationError("invalid date value")
	}

	return nil
}

// ParseAmount parses a monetary amount: non-negative with at most two decimals
func ParseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, errors.NewValidationError("amount must be a decimal number")
	}
	if amount.IsNegative() {
		return decimal.Zero, errors.NewValidationError("amount must not be negative")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return decimal.Zero, errors.NewValidationError("amount must have at most two decimal places")
	}
	return amount, nil
}

// ParseRate parses a fractional tax rate such as 0.21
func ParseRate(value, fieldName string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, errors.NewValidationError(fieldName + " must be a decimal fraction")
	}
	if rate.IsNegative() {
		return decimal.Zero, errors.NewValidationError(fieldName + " must not be negative")
	}
	return rate, nil
}

// ValidateRequiredString validates that a string is not empty
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(fieldName + " is required")
	}
	return nil
}
