package app

import (
	"context"
	"fmt"

	authHTTP "github.com/lapsehq/lapse-auth/internal/auth/http"
	authRepository "github.com/lapsehq/lapse-auth/internal/auth/repository"
	authService "github.com/lapsehq/lapse-auth/internal/auth/service"
	authUseCase "github.com/lapsehq/lapse-auth/internal/auth/usecase"
	"github.com/lapsehq/lapse-auth/internal/gateway"
	"github.com/lapsehq/lapse-auth/internal/scope"
	"github.com/lapsehq/lapse-auth/internal/token"
)

// ScopeCatalog returns the parsed scope catalog.
func (c *Container) ScopeCatalog() (*scope.Catalog, error) {
	c.scopeCatalogInit.Do(func() {
		catalog, err := scope.NewCatalog(c.config.ScopeCatalog)
		if err != nil {
			c.initErrors["scopeCatalog"] = fmt.Errorf("failed to parse scope catalog: %w", err)
			return
		}
		c.scopeCatalog = catalog
	})
	if storedErr, exists := c.initErrors["scopeCatalog"]; exists {
		return nil, storedErr
	}
	return c.scopeCatalog, nil
}

// TokenService returns the token service. The signing key is resolved once,
// going through the KMS keeper when the encrypted form is configured.
func (c *Container) TokenService(ctx context.Context) (*token.Service, error) {
	c.tokenServiceInit.Do(func() {
		c.signingKeyInit.Do(func() {
			key, err := token.LoadSigningKey(ctx, c.config)
			if err != nil {
				c.initErrors["signingKey"] = err
				return
			}
			c.signingKey = key
		})
		if storedErr, exists := c.initErrors["signingKey"]; exists {
			c.initErrors["tokenService"] = storedErr
			return
		}
		c.tokenService = token.NewService(c.signingKey)
	})
	if storedErr, exists := c.initErrors["tokenService"]; exists {
		return nil, storedErr
	}
	return c.tokenService, nil
}

// AuditRootKey returns the root key for audit row signatures.
func (c *Container) AuditRootKey(ctx context.Context) ([]byte, error) {
	c.auditRootKeyInit.Do(func() {
		rootKey, err := authService.LoadAuditRootKey(ctx, c.config)
		if err != nil {
			c.initErrors["auditRootKey"] = err
			return
		}
		c.auditRootKey = rootKey
	})
	if storedErr, exists := c.initErrors["auditRootKey"]; exists {
		return nil, storedErr
	}
	return c.auditRootKey, nil
}

// SecretService returns the secret service for client credential operations.
func (c *Container) SecretService() authService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = authService.NewSecretService()
	})
	return c.secretService
}

// AuditSigner returns the audit signer.
func (c *Container) AuditSigner() authService.AuditSigner {
	c.auditSignerInit.Do(func() {
		c.auditSigner = authService.NewAuditSigner()
	})
	return c.auditSigner
}

// ServiceClientRepository returns the service client repository based on database driver.
func (c *Container) ServiceClientRepository() (authUseCase.ServiceClientRepository, error) {
	c.clientRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["serviceClientRepo"] = fmt.Errorf("failed to get database for service client repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.serviceClientRepo = authRepository.NewMySQLServiceClientRepository(db)
		case "postgres":
			c.serviceClientRepo = authRepository.NewPostgreSQLServiceClientRepository(db)
		default:
			c.initErrors["serviceClientRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["serviceClientRepo"]; exists {
		return nil, storedErr
	}
	return c.serviceClientRepo, nil
}

// ServiceGrantRepository returns the service grant repository based on database driver.
func (c *Container) ServiceGrantRepository() (authUseCase.ServiceGrantRepository, error) {
	c.grantRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["serviceGrantRepo"] = fmt.Errorf("failed to get database for service grant repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.serviceGrantRepo = authRepository.NewMySQLServiceGrantRepository(db)
		case "postgres":
			c.serviceGrantRepo = authRepository.NewPostgreSQLServiceGrantRepository(db)
		default:
			c.initErrors["serviceGrantRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["serviceGrantRepo"]; exists {
		return nil, storedErr
	}
	return c.serviceGrantRepo, nil
}

// TokenAuditRepository returns the token audit repository based on database driver.
func (c *Container) TokenAuditRepository() (authUseCase.TokenAuditRepository, error) {
	c.auditRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["tokenAuditRepo"] = fmt.Errorf("failed to get database for token audit repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.tokenAuditRepo = authRepository.NewMySQLTokenAuditRepository(db)
		case "postgres":
			c.tokenAuditRepo = authRepository.NewPostgreSQLTokenAuditRepository(db)
		default:
			c.initErrors["tokenAuditRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["tokenAuditRepo"]; exists {
		return nil, storedErr
	}
	return c.tokenAuditRepo, nil
}

// ConsentUseCase returns the consent use case wrapped with metrics.
func (c *Container) ConsentUseCase(ctx context.Context) (authUseCase.ConsentUseCase, error) {
	c.consentUCInit.Do(func() {
		useCase, err := c.initConsentUseCase(ctx)
		if err != nil {
			c.initErrors["consentUseCase"] = err
			return
		}
		c.consentUC = useCase
	})
	if storedErr, exists := c.initErrors["consentUseCase"]; exists {
		return nil, storedErr
	}
	return c.consentUC, nil
}

// ExchangeUseCase returns the token exchange use case wrapped with metrics.
func (c *Container) ExchangeUseCase(ctx context.Context) (authUseCase.ExchangeUseCase, error) {
	c.exchangeUCInit.Do(func() {
		useCase, err := c.initExchangeUseCase(ctx)
		if err != nil {
			c.initErrors["exchangeUseCase"] = err
			return
		}
		c.exchangeUC = useCase
	})
	if storedErr, exists := c.initErrors["exchangeUseCase"]; exists {
		return nil, storedErr
	}
	return c.exchangeUC, nil
}

// GrantUseCase returns the grant management use case wrapped with metrics.
func (c *Container) GrantUseCase() (authUseCase.GrantUseCase, error) {
	c.grantUCInit.Do(func() {
		grantRepo, err := c.ServiceGrantRepository()
		if err != nil {
			c.initErrors["grantUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["grantUseCase"] = err
			return
		}
		c.grantUC = authUseCase.NewGrantUseCaseWithMetrics(authUseCase.NewGrantUseCase(grantRepo), bm)
	})
	if storedErr, exists := c.initErrors["grantUseCase"]; exists {
		return nil, storedErr
	}
	return c.grantUC, nil
}

// ServiceClientUseCase returns the service client registry use case.
func (c *Container) ServiceClientUseCase() (authUseCase.ServiceClientUseCase, error) {
	c.serviceClientUCInit.Do(func() {
		clientRepo, err := c.ServiceClientRepository()
		if err != nil {
			c.initErrors["serviceClientUseCase"] = err
			return
		}
		catalog, err := c.ScopeCatalog()
		if err != nil {
			c.initErrors["serviceClientUseCase"] = err
			return
		}
		c.serviceClientUC = authUseCase.NewServiceClientUseCase(clientRepo, c.SecretService(), catalog)
	})
	if storedErr, exists := c.initErrors["serviceClientUseCase"]; exists {
		return nil, storedErr
	}
	return c.serviceClientUC, nil
}

// AuditUseCase returns the token audit use case.
func (c *Container) AuditUseCase() (authUseCase.AuditUseCase, error) {
	c.auditUCInit.Do(func() {
		auditRepo, err := c.TokenAuditRepository()
		if err != nil {
			c.initErrors["auditUseCase"] = err
			return
		}
		c.auditUC = authUseCase.NewAuditUseCase(auditRepo)
	})
	if storedErr, exists := c.initErrors["auditUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditUC, nil
}

// AuthorizeHandler returns the consent endpoint handler.
func (c *Container) AuthorizeHandler(ctx context.Context) (*authHTTP.AuthorizeHandler, error) {
	consentUC, err := c.ConsentUseCase(ctx)
	if err != nil {
		return nil, err
	}
	return authHTTP.NewAuthorizeHandler(consentUC, c.Logger()), nil
}

// TokenHandler returns the token exchange endpoint handler.
func (c *Container) TokenHandler(ctx context.Context) (*authHTTP.TokenHandler, error) {
	exchangeUC, err := c.ExchangeUseCase(ctx)
	if err != nil {
		return nil, err
	}
	return authHTTP.NewTokenHandler(exchangeUC, c.Logger()), nil
}

// GrantHandler returns the grant management endpoint handler.
func (c *Container) GrantHandler() (*authHTTP.GrantHandler, error) {
	grantUC, err := c.GrantUseCase()
	if err != nil {
		return nil, err
	}
	return authHTTP.NewGrantHandler(grantUC, c.Logger()), nil
}

// GatewayDispatcher returns the gateway dispatcher with the default
// procedure set registered.
func (c *Container) GatewayDispatcher(ctx context.Context) (*gateway.Dispatcher, error) {
	c.dispatcherInit.Do(func() {
		tokenService, err := c.TokenService(ctx)
		if err != nil {
			c.initErrors["gatewayDispatcher"] = err
			return
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["gatewayDispatcher"] = err
			return
		}
		grantUC, err := c.GrantUseCase()
		if err != nil {
			c.initErrors["gatewayDispatcher"] = err
			return
		}

		catalog := gateway.NewCatalog()
		gateway.RegisterDefaultProcedures(catalog, userRepo, grantUC)
		c.gatewayDispatcher = gateway.NewDispatcher(catalog, tokenService, c.Logger())
	})
	if storedErr, exists := c.initErrors["gatewayDispatcher"]; exists {
		return nil, storedErr
	}
	return c.gatewayDispatcher, nil
}

// initConsentUseCase creates the consent use case with all its dependencies.
func (c *Container) initConsentUseCase(ctx context.Context) (authUseCase.ConsentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	clientRepo, err := c.ServiceClientRepository()
	if err != nil {
		return nil, err
	}
	grantRepo, err := c.ServiceGrantRepository()
	if err != nil {
		return nil, err
	}
	auditRepo, err := c.TokenAuditRepository()
	if err != nil {
		return nil, err
	}
	tokenService, err := c.TokenService(ctx)
	if err != nil {
		return nil, err
	}
	auditRootKey, err := c.AuditRootKey(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := c.ScopeCatalog()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := authUseCase.NewConsentUseCase(
		txManager,
		clientRepo,
		grantRepo,
		auditRepo,
		tokenService,
		c.AuditSigner(),
		auditRootKey,
		catalog,
	)

	return authUseCase.NewConsentUseCaseWithMetrics(useCase, bm), nil
}

// initExchangeUseCase creates the token exchange use case with all its dependencies.
func (c *Container) initExchangeUseCase(ctx context.Context) (authUseCase.ExchangeUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, err
	}
	clientRepo, err := c.ServiceClientRepository()
	if err != nil {
		return nil, err
	}
	grantRepo, err := c.ServiceGrantRepository()
	if err != nil {
		return nil, err
	}
	auditRepo, err := c.TokenAuditRepository()
	if err != nil {
		return nil, err
	}
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, err
	}
	tokenService, err := c.TokenService(ctx)
	if err != nil {
		return nil, err
	}
	auditRootKey, err := c.AuditRootKey(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := c.ScopeCatalog()
	if err != nil {
		return nil, err
	}
	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}

	useCase := authUseCase.NewExchangeUseCase(
		txManager,
		clientRepo,
		grantRepo,
		auditRepo,
		userRepo,
		tokenService,
		c.SecretService(),
		c.AuditSigner(),
		auditRootKey,
		catalog,
	)

	return authUseCase.NewExchangeUseCaseWithMetrics(useCase, bm), nil
}
