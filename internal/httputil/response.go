// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lapsehq/lapse-auth/internal/auth/domain"
	apperrors "github.com/lapsehq/lapse-auth/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// ProtocolErrorResponse is the OAuth-style error body used by the token
// endpoint. The field names are fixed by the protocol.
type ProtocolErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Envelope is the uniform gateway response shape. Ok discriminates between
// the Data and Error branches.
type Envelope struct {
	Ok      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// HandleErrorGin maps domain errors to HTTP status codes and returns a JSON response using Gin.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var statusCode int
	var errorResponse ErrorResponse

	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		statusCode = http.StatusNotFound
		errorResponse = ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		}

	case apperrors.Is(err, apperrors.ErrConflict):
		statusCode = http.StatusConflict
		errorResponse = ErrorResponse{
			Error:   "conflict",
			Message: "A conflict occurred with existing data",
		}

	case apperrors.Is(err, apperrors.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		errorResponse = ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		}

	case apperrors.Is(err, apperrors.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		errorResponse = ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication is required",
		}

	case apperrors.Is(err, apperrors.ErrForbidden):
		statusCode = http.StatusForbidden
		errorResponse = ErrorResponse{
			Error:   "forbidden",
			Message: "You don't have permission to access this resource",
		}

	default:
		// For unknown/internal errors, don't expose details to the client
		statusCode = http.StatusInternalServerError
		errorResponse = ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		}
	}

	// Log the full error details (including wrapped errors)
	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_code", errorResponse.Error),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, errorResponse)
}

// HandleProtocolErrorGin writes an OAuth-style error body. Protocol errors
// carry their own status and wire code; anything else becomes a 500
// server_error without leaking details.
func HandleProtocolErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	var protoErr *domain.ProtocolError
	if errors.As(err, &protoErr) {
		if logger != nil {
			logger.Warn("token request rejected",
				slog.Int("status_code", protoErr.Status),
				slog.String("error_code", protoErr.Code),
				slog.String("description", protoErr.Description),
			)
		}
		c.JSON(protoErr.Status, ProtocolErrorResponse{
			Error:            protoErr.Code,
			ErrorDescription: protoErr.Description,
		})
		return
	}

	if logger != nil {
		logger.Error("token request failed", slog.Any("error", err))
	}
	c.JSON(http.StatusInternalServerError, ProtocolErrorResponse{
		Error:            "server_error",
		ErrorDescription: "An internal error occurred",
	})
}

// OkEnvelope writes a success envelope with the given payload.
func OkEnvelope(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Envelope{Ok: true, Data: data})
}

// ErrorEnvelope writes a failure envelope with a stable error code and an
// optional human-readable message.
func ErrorEnvelope(c *gin.Context, statusCode int, errorCode, message string) {
	c.JSON(statusCode, Envelope{Ok: false, Error: errorCode, Message: message})
}

// HandleBadRequestGin writes a 400 Bad Request response for malformed JSON or parameters using Gin.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	}

	c.JSON(http.StatusBadRequest, errorResponse)
}

// HandleValidationErrorGin writes a 400 Bad Request response for validation errors using Gin.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	errorResponse := ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	}

	c.JSON(http.StatusBadRequest, errorResponse)
}
