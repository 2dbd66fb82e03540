package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Stable error codes returned to API callers
const (
	CodeValidation              = "VALIDATION_ERROR"
	CodeAuthentication          = "AUTHENTICATION_ERROR"
	CodeNotFound                = "NOT_FOUND"
	CodeConflict                = "CONFLICT"
	CodeInternal                = "INTERNAL_ERROR"
	CodeInvalidConfiguration    = "INVALID_CONFIGURATION"
	CodeLedgerUnavailable       = "LEDGER_UNAVAILABLE"
	CodeProfileNotFound         = "PROFILE_NOT_FOUND"
	CodeUnknownCalculationError = "UNKNOWN_CALCULATION_ERROR"
)

// AppError is a custom error type for application errors
type AppError struct {
	Code       string
	Message    string
	StatusCode int // Same rule as HTTP status codes
	Err        error
	Details    map[string]interface{}
}

// Error returns a string representation of the error
func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another AppError by code
func (e AppError) Is(target error) bool {
	if target, ok := target.(AppError); ok {
		return target.Code == e.Code
	}
	return false
}

// Unwrap returns the underlying error
func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a single detail to the error
func (e AppError) WithDetail(key string, value interface{}) AppError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// As extracts an AppError from anywhere in err's chain
func As(err error) (AppError, bool) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return AppError{}, false
}

// HasCode reports whether err carries an AppError with the given code
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// NewValidationError creates a new validation error
func NewValidationError(message string) AppError {
	return AppError{
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) AppError {
	return AppError{
		Code:       CodeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) AppError {
	return AppError{
		Code:       CodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) AppError {
	return AppError{
		Code:       CodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) AppError {
	return AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInvalidConfigurationError reports a tax profile the engine refuses to use.
// Not retryable.
func NewInvalidConfigurationError(message string) AppError {
	return AppError{
		Code:       CodeInvalidConfiguration,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
	}
}

// NewLedgerUnavailableError reports a transport or storage failure while reading
// transactions. Callers may retry once with backoff.
func NewLedgerUnavailableError(message string, err error) AppError {
	return AppError{
		Code:       CodeLedgerUnavailable,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewProfileNotFoundError reports an owner without a company tax profile
func NewProfileNotFoundError(ownerID string) AppError {
	return AppError{
		Code:       CodeProfileNotFound,
		Message:    "no tax profile configured for this account",
		StatusCode: http.StatusInternalServerError,
		Details:    map[string]interface{}{"ownerId": ownerID},
	}
}

// NewUnknownCalculationError wraps anything else that broke a calculation.
// The message is generic on purpose, the cause stays in Err for logging.
func NewUnknownCalculationError(err error) AppError {
	return AppError{
		Code:       CodeUnknownCalculationError,
		Message:    "tax calculation failed",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
