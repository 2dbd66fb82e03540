package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success          bool             `json:"success"`
	Error            string           `json:"error"`
	ErrorDescription ErrorDescription `json:"error_description"`
	Metadata         ResponseMetadata `json:"metadata"`
}

// ErrorDescription represents the error details
type ErrorDescription struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error creates an error response. The wrapped cause never reaches the body.
func Error(appErr errors.AppError, requestID string) events.APIGatewayProxyResponse {
	statusCode := appErr.StatusCode
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}

	response := ErrorResponse{
		Success: false,
		Error:   appErr.Code,
		ErrorDescription: ErrorDescription{
			Message: appErr.Message,
			Details: appErr.Details,
		},
		Metadata: ResponseMetadata{
			Version:   "1.0",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			RequestID: requestID,
		},
	}

	body, err := json.Marshal(response)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"success":false,"error":"INTERNAL_ERROR","error_description":{"message":"Failed to marshal error response"}}`,
			Headers:    DefaultHeaders(),
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    DefaultHeaders(),
	}
}

// FromError renders any error. Errors that are not AppErrors become a generic
// INTERNAL_ERROR so their text is not exposed.
func FromError(err error, requestID string) events.APIGatewayProxyResponse {
	if appErr, ok := errors.As(err); ok {
		return Error(appErr, requestID)
	}
	return Error(errors.NewInternalError("An unexpected error occurred", err), requestID)
}

// ValidationError creates a validation error response
func ValidationError(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewValidationError(message), requestID)
}

// NotFound creates a not found error response
func NotFound(message string, requestID string) events.APIGatewayProxyResponse {
	return Error(errors.NewNotFoundError(message), requestID)
}

// AuthenticationError creates an authentication error response
func AuthenticationError(message string, requestID string) events.APIGatewayProxyResponse {
	resp := Error(errors.NewAuthenticationError(message), requestID)
	resp.Headers["WWW-Authenticate"] = `Bearer realm="refolder"`
	return resp
}

// MethodNotAllowed creates a 405 response
func MethodNotAllowed(requestID string) events.APIGatewayProxyResponse {
	return Error(errors.AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "method not allowed",
		StatusCode: http.StatusMethodNotAllowed,
	}, requestID)
}
