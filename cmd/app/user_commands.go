package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/lapsehq/lapse-auth/cmd/app/commands"
	"github.com/lapsehq/lapse-auth/internal/app"
	"github.com/lapsehq/lapse-auth/internal/config"
)

func getUserCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "register-user",
			Usage: "Register a new user profile",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "User display name",
				},
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "User email address",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}

				return commands.RunRegisterUser(
					ctx,
					userUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("email"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "issue-user-token",
			Usage: "Mint a primary token for an existing user",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "User email address",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				userUseCase, err := container.UserUseCase()
				if err != nil {
					return err
				}
				tokenService, err := container.TokenService(ctx)
				if err != nil {
					return err
				}

				return commands.RunIssueUserToken(
					ctx,
					userUseCase,
					tokenService,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("format"),
				)
			},
		},
	}
}
