// Package http provides HTTP server implementation and request handlers.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/lapsehq/lapse-auth/internal/auth/http"
	"github.com/lapsehq/lapse-auth/internal/gateway"
)

// Server represents the public HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	db     *sql.DB
	logger *slog.Logger
}

// Routes bundles the handlers mounted on the public API surface.
type Routes struct {
	Authorize  *authHTTP.AuthorizeHandler
	Token      *authHTTP.TokenHandler
	Grants     *authHTTP.GrantHandler
	Verifier   authHTTP.TokenVerifier
	Dispatcher *gateway.Dispatcher

	// TokenRateLimit, when non-nil, is applied to the token endpoint only.
	// The endpoint authenticates callers itself, so the limiter keys on IP.
	TokenRateLimit gin.HandlerFunc
}

// NewServer creates a new HTTP server. Extra middleware (CORS, metrics) is
// applied to every route, including health and readiness.
func NewServer(
	db *sql.DB,
	host string,
	port int,
	logger *slog.Logger,
	middleware ...gin.HandlerFunc,
) *Server {
	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(logger))

	for _, m := range middleware {
		if m != nil {
			router.Use(m)
		}
	}

	s := &Server{
		router: router,
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	return s
}

// MountRoutes registers the delegation endpoints and the gateway entrypoint.
func (s *Server) MountRoutes(routes Routes) {
	oauth := s.router.Group("/oauth")

	token := oauth.Group("/token")
	if routes.TokenRateLimit != nil {
		token.Use(routes.TokenRateLimit)
	}
	token.POST("", routes.Token.Exchange)

	// Consent and grant management accept primary sessions only. A delegated
	// token must not be able to widen or revoke the grant it came from.
	session := oauth.Group("")
	session.Use(authHTTP.AuthenticationMiddleware(routes.Verifier, s.logger))
	session.Use(authHTTP.RequirePrimaryMiddleware(s.logger))
	session.POST("/authorize", routes.Authorize.Authorize)
	session.PUT("/authorize", routes.Authorize.Decide)
	session.GET("/grants", routes.Grants.List)
	session.DELETE("/grants", routes.Grants.Revoke)

	if routes.Dispatcher != nil {
		// The dispatcher resolves its own principal so that unknown
		// procedures answer 404 before any authentication check.
		s.router.Any("/api/:router/:procedure", routes.Dispatcher.Handle)
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports process liveness.
func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports whether the server can serve traffic. The database
// is the only hard dependency.
func (s *Server) readinessHandler(c *gin.Context) {
	components := gin.H{}
	ready := true

	if s.db == nil {
		components["database"] = "error"
		ready = false
	} else if err := s.db.PingContext(c.Request.Context()); err != nil {
		components["database"] = "error"
		ready = false
	} else {
		components["database"] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not_ready",
			"components": components,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "ready",
		"components": components,
	})
}
