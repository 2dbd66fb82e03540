package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success  bool             `json:"success"`
	Data     interface{}      `json:"data"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata represents the metadata for responses
type ResponseMetadata struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
}

// DefaultHeaders returns the default headers for all responses
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Request-Id",
		"Access-Control-Allow-Methods": "OPTIONS,GET,POST,PUT,DELETE",
	}
}

// Success creates a success response
func Success(data interface{}, statusCode int, requestID string) events.APIGatewayProxyResponse {
	response := SuccessResponse{
		Success: true,
		Data:    data,
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
			Body:       `{"success":false,"error":"INTERNAL_ERROR","error_description":{"message":"Failed to marshal response"}}`,
			Headers:    DefaultHeaders(),
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Body:       string(body),
		Headers:    DefaultHeaders(),
	}
}

// OK creates a standard OK (200) response
func OK(data interface{}, requestID string) events.APIGatewayProxyResponse {
	return Success(data, http.StatusOK, requestID)
}

// Created creates a standard Created (201) response
func Created(data interface{}, requestID string) events.APIGatewayProxyResponse {
	return Success(data, http.StatusCreated, requestID)
}

// NoContent creates a standard No Content (204) response
func NoContent() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNoContent,
		Headers:    DefaultHeaders(),
	}
}

// Preflight answers a CORS OPTIONS request
func Preflight() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    DefaultHeaders(),
	}
}
