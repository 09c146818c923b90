package domain

import (
	"fmt"

	"github.com/lapsehq/lapse-auth/internal/errors"
)

// Delegation domain errors.
var (
	// ErrServiceClientNotFound indicates no active client matches the public client_id.
	ErrServiceClientNotFound = errors.Wrap(errors.ErrNotFound, "service client not found")

	// ErrGrantNotFound indicates no grant row matches the lookup.
	ErrGrantNotFound = errors.Wrap(errors.ErrNotFound, "service grant not found")

	// ErrUserNotFound indicates the subject user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrSignatureInvalid indicates an audit row failed HMAC verification.
	ErrSignatureInvalid = errors.Wrap(errors.ErrInvalidInput, "audit signature invalid")
)

// Protocol error codes used at the OAuth-style boundary.
const (
	ProtocolInvalidRequest = "invalid_request"
	ProtocolInvalidClient  = "invalid_client"
	ProtocolInvalidScope   = "invalid_scope"
	ProtocolAccessDenied   = "access_denied"
)

// ProtocolError is an OAuth-style boundary error. It carries the wire error
// code, the HTTP status it maps to, and a human-readable description.
type ProtocolError struct {
	Code        string
	Status      int
	Description string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// InvalidRequest builds a 400 invalid_request protocol error.
func InvalidRequest(format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: ProtocolInvalidRequest, Status: 400, Description: fmt.Sprintf(format, args...)}
}

// InvalidClient builds a 401 invalid_client protocol error.
func InvalidClient(format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: ProtocolInvalidClient, Status: 401, Description: fmt.Sprintf(format, args...)}
}

// InvalidScope builds a 400 invalid_scope protocol error.
func InvalidScope(format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: ProtocolInvalidScope, Status: 400, Description: fmt.Sprintf(format, args...)}
}

// AccessDenied builds a 403 access_denied protocol error.
func AccessDenied(format string, args ...any) *ProtocolError {
	return &ProtocolError{Code: ProtocolAccessDenied, Status: 403, Description: fmt.Sprintf(format, args...)}
}
