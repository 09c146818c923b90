// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"crypto/ed25519"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/gin-gonic/gin"

	authHTTP "github.com/lapsehq/lapse-auth/internal/auth/http"
	authService "github.com/lapsehq/lapse-auth/internal/auth/service"
	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
	"github.com/lapsehq/lapse-auth/internal/config"
	"github.com/lapsehq/lapse-auth/internal/database"
	"github.com/lapsehq/lapse-auth/internal/gateway"
	"github.com/lapsehq/lapse-auth/internal/http"
	"github.com/lapsehq/lapse-auth/internal/metrics"
	"github.com/lapsehq/lapse-auth/internal/scope"
	"github.com/lapsehq/lapse-auth/internal/token"
	userUseCase "github.com/lapsehq/lapse-auth/internal/user/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger *slog.Logger
	db     *sql.DB

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Crypto material and services
	signingKey   ed25519.PrivateKey
	auditRootKey []byte
	tokenService *token.Service
	scopeCatalog *scope.Catalog

	// Auth services
	secretService authService.SecretService
	auditSigner   authService.AuditSigner

	// Repositories
	userRepo          userUseCase.UserRepository
	serviceClientRepo authUseCase.ServiceClientRepository
	serviceGrantRepo  authUseCase.ServiceGrantRepository
	tokenAuditRepo    authUseCase.TokenAuditRepository

	// Use Cases
	userUC          userUseCase.UseCase
	consentUC       authUseCase.ConsentUseCase
	exchangeUC      authUseCase.ExchangeUseCase
	grantUC         authUseCase.GrantUseCase
	serviceClientUC authUseCase.ServiceClientUseCase
	auditUC         authUseCase.AuditUseCase

	// Gateway
	gatewayDispatcher *gateway.Dispatcher

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	txManagerInit       sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	signingKeyInit      sync.Once
	auditRootKeyInit    sync.Once
	tokenServiceInit    sync.Once
	scopeCatalogInit    sync.Once
	secretServiceInit   sync.Once
	auditSignerInit     sync.Once
	userRepoInit        sync.Once
	clientRepoInit      sync.Once
	grantRepoInit       sync.Once
	auditRepoInit       sync.Once
	userUCInit          sync.Once
	consentUCInit       sync.Once
	exchangeUCInit      sync.Once
	grantUCInit         sync.Once
	serviceClientUCInit sync.Once
	auditUCInit         sync.Once
	dispatcherInit      sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider.
// Returns nil without error when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the HTTP server instance with all routes mounted.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance.
// Returns nil without error when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	var middleware []gin.HandlerFunc

	corsMiddleware := http.CreateCORSMiddleware(c.config.CORSEnabled, c.config.CORSAllowOrigins, logger)
	if corsMiddleware != nil {
		middleware = append(middleware, corsMiddleware)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	if provider != nil {
		middleware = append(middleware, metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace))
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger, middleware...)

	authorizeHandler, err := c.AuthorizeHandler(ctx)
	if err != nil {
		return nil, err
	}
	tokenHandler, err := c.TokenHandler(ctx)
	if err != nil {
		return nil, err
	}
	grantHandler, err := c.GrantHandler()
	if err != nil {
		return nil, err
	}
	tokenService, err := c.TokenService(ctx)
	if err != nil {
		return nil, err
	}
	dispatcher, err := c.GatewayDispatcher(ctx)
	if err != nil {
		return nil, err
	}

	var tokenRateLimit gin.HandlerFunc
	if c.config.RateLimitTokenEnabled {
		tokenRateLimit = authHTTP.TokenRateLimitMiddleware(
			c.config.RateLimitTokenRequestsPerSec,
			c.config.RateLimitTokenBurst,
			logger,
		)
	}

	server.MountRoutes(http.Routes{
		Authorize:      authorizeHandler,
		Token:          tokenHandler,
		Grants:         grantHandler,
		Verifier:       tokenService,
		Dispatcher:     dispatcher,
		TokenRateLimit: tokenRateLimit,
	})

	return server, nil
}
