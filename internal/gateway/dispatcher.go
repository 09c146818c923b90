package gateway

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/lapsehq/lapse-auth/internal/auth/http"
	"github.com/lapsehq/lapse-auth/internal/httputil"
)

// Dispatcher answers every gateway request. Checks run in a fixed order:
// method support (405), procedure existence (404), authentication (401),
// scope enforcement for delegated callers (403), then the handler. The order
// is deliberate so an unauthenticated probe learns nothing a 404 would not
// already tell it.
type Dispatcher struct {
	catalog  *Catalog
	verifier authHTTP.TokenVerifier
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given catalog.
func NewDispatcher(catalog *Catalog, verifier authHTTP.TokenVerifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		catalog:  catalog,
		verifier: verifier,
		logger:   logger,
	}
}

// supportedMethods are the HTTP methods the gateway answers at all.
var supportedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodDelete: {},
}

// Handle serves one gateway request. Register it for every supported method
// on the "/:router/:procedure" route.
func (d *Dispatcher) Handle(c *gin.Context) {
	if _, ok := supportedMethods[c.Request.Method]; !ok {
		httputil.ErrorEnvelope(c, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}

	router := c.Param("router")
	name := c.Param("procedure")
	procedure, ok := d.catalog.Lookup(router, name)
	if !ok {
		httputil.ErrorEnvelope(c, http.StatusNotFound, CodeNotFound, "")
		return
	}
	if c.Request.Method != procedure.Method {
		httputil.ErrorEnvelope(c, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}

	principal, err := authHTTP.ResolvePrincipal(c, d.verifier)
	if err != nil {
		httputil.ErrorEnvelope(c, http.StatusUnauthorized, "unauthorized", "")
		return
	}
	if procedure.RequiresAuth && principal == nil {
		httputil.ErrorEnvelope(c, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	if principal != nil && !principal.HasScopes(procedure.RequiredScopes) {
		d.logger.Debug("gateway scope check failed",
			slog.String("router", router),
			slog.String("procedure", name),
			slog.String("actor_id", principal.ActorID.String()),
		)
		httputil.ErrorEnvelope(c, http.StatusForbidden, CodeNoPermission, "missing required scope")
		return
	}

	request := &Request{
		Principal: principal,
		Params:    collectParams(c),
	}
	data, procErr := procedure.Handle(c.Request.Context(), request)
	if procErr != nil {
		d.writeProcedureError(c, router, name, procErr)
		return
	}

	httputil.OkEnvelope(c, http.StatusOK, data)
}

// writeProcedureError maps the procedure's result code to an HTTP status.
// The code itself goes into the envelope verbatim so callers can tell a
// procedure-level NO_PERMISSION apart from a transport-level 403.
func (d *Dispatcher) writeProcedureError(c *gin.Context, router, name string, procErr *ProcedureError) {
	switch procErr.Code {
	case CodeNotFound:
		httputil.ErrorEnvelope(c, http.StatusNotFound, CodeNotFound, procErr.Message)
	case CodeNoPermission:
		httputil.ErrorEnvelope(c, http.StatusForbidden, CodeNoPermission, procErr.Message)
	case CodeMissingParams:
		httputil.ErrorEnvelope(c, http.StatusBadRequest, CodeMissingParams, procErr.Message)
	default:
		d.logger.Error("gateway procedure failed",
			slog.String("router", router),
			slog.String("procedure", name),
			slog.String("error", procErr.Message),
		)
		httputil.ErrorEnvelope(c, http.StatusInternalServerError, CodeError, "")
	}
}

// collectParams merges query and form parameters; form fields win on
// collision.
func collectParams(c *gin.Context) map[string]string {
	params := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	if err := c.Request.ParseForm(); err == nil {
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}
	}
	return params
}
