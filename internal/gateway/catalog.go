// Package gateway dispatches namespaced procedures behind a single
// scope-enforcing entry point. Routers group related procedures; each
// procedure declares its HTTP method, authentication requirement, and the
// scopes a delegated caller must hold.
package gateway

import (
	"context"
	"fmt"

	authHTTP "github.com/lapsehq/lapse-auth/internal/auth/http"
)

// Result codes returned by procedure handlers. The dispatcher translates
// them to HTTP statuses; handlers never touch the response writer.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeNoPermission  = "NO_PERMISSION"
	CodeMissingParams = "MISSING_PARAMS"
	CodeError         = "ERROR"
)

// ProcedureError is a failed procedure outcome.
type ProcedureError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *ProcedureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFound builds a NOT_FOUND procedure error.
func NotFound(message string) *ProcedureError {
	return &ProcedureError{Code: CodeNotFound, Message: message}
}

// NoPermission builds a NO_PERMISSION procedure error.
func NoPermission(message string) *ProcedureError {
	return &ProcedureError{Code: CodeNoPermission, Message: message}
}

// MissingParams builds a MISSING_PARAMS procedure error.
func MissingParams(message string) *ProcedureError {
	return &ProcedureError{Code: CodeMissingParams, Message: message}
}

// Internal builds an ERROR procedure error. The message is logged but never
// sent to the caller.
func Internal(message string) *ProcedureError {
	return &ProcedureError{Code: CodeError, Message: message}
}

// Request carries the dispatch inputs a procedure handler may need: the
// authenticated principal (nil for anonymous procedures) and the request
// parameters merged from query string and form body.
type Request struct {
	Principal *authHTTP.Principal
	Params    map[string]string
}

// Param returns the named parameter or the empty string.
func (r *Request) Param(name string) string {
	return r.Params[name]
}

// HandlerFunc executes one procedure. On success it returns the data for the
// envelope; on failure a ProcedureError.
type HandlerFunc func(ctx context.Context, req *Request) (any, *ProcedureError)

// Procedure is one catalog entry.
type Procedure struct {
	// Method is the only HTTP method the procedure answers.
	Method string

	// RequiresAuth demands an authenticated principal.
	RequiresAuth bool

	// RequiredScopes lists the scopes a delegated caller must all hold.
	// Primary callers pass unconditionally.
	RequiredScopes []string

	// Handle executes the procedure.
	Handle HandlerFunc
}

// Catalog maps (router, procedure) pairs to procedures.
type Catalog struct {
	routers map[string]map[string]*Procedure
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{routers: make(map[string]map[string]*Procedure)}
}

// Register adds a procedure under the given router and name. Registering the
// same pair twice panics: catalogs are assembled once at wiring time and a
// duplicate is a programming error.
func (c *Catalog) Register(router, name string, procedure *Procedure) {
	procedures, ok := c.routers[router]
	if !ok {
		procedures = make(map[string]*Procedure)
		c.routers[router] = procedures
	}
	if _, exists := procedures[name]; exists {
		panic(fmt.Sprintf("gateway: procedure %s/%s registered twice", router, name))
	}
	procedures[name] = procedure
}

// Lookup resolves a (router, procedure) pair.
func (c *Catalog) Lookup(router, name string) (*Procedure, bool) {
	procedures, ok := c.routers[router]
	if !ok {
		return nil, false
	}
	procedure, ok := procedures[name]
	return procedure, ok
}
