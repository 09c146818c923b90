// Package domain defines the core user domain entities and types.
//
// Users are the delegating principals. Their credentials are handled by a
// separate identity system; this module only stores the profile fields
// needed to mint tokens and render consent screens.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/lapsehq/lapse-auth/internal/errors"
)

// User represents a user in the system
type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrUserAlreadyExists indicates a user with the same email already exists.
	ErrUserAlreadyExists = errors.Wrap(errors.ErrConflict, "user already exists")

	// ErrNameRequired indicates the name field is required.
	ErrNameRequired = errors.Wrap(errors.ErrInvalidInput, "name is required")

	// ErrEmailRequired indicates the email field is required.
	ErrEmailRequired = errors.Wrap(errors.ErrInvalidInput, "email is required")
)
