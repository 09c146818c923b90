package app

import (
	"fmt"

	userRepository "github.com/lapsehq/lapse-auth/internal/user/repository"
	userUseCase "github.com/lapsehq/lapse-auth/internal/user/usecase"
)

// UserRepository returns the user repository based on database driver.
func (c *Container) UserRepository() (userUseCase.UserRepository, error) {
	c.userRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["userRepo"] = fmt.Errorf("failed to get database for user repository: %w", err)
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.userRepo = userRepository.NewMySQLUserRepository(db)
		case "postgres":
			c.userRepo = userRepository.NewPostgreSQLUserRepository(db)
		default:
			c.initErrors["userRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// UserUseCase returns the user use case instance.
func (c *Container) UserUseCase() (userUseCase.UseCase, error) {
	c.userUCInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		userRepo, err := c.UserRepository()
		if err != nil {
			c.initErrors["userUseCase"] = err
			return
		}
		c.userUC = userUseCase.NewUserUseCase(txManager, userRepo)
	})
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUC, nil
}
