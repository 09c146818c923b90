package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/lapsehq/lapse-auth/cmd/app/commands"
	"github.com/lapsehq/lapse-auth/internal/app"
	"github.com/lapsehq/lapse-auth/internal/config"
)

func getClientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-service-client",
			Usage: "Register a new service client",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Aliases:  []string{"n"},
					Required: true,
					Usage:    "Human-readable client name",
				},
				&cli.StringFlag{
					Name:    "trust-level",
					Aliases: []string{"t"},
					Value:   "unverified",
					Usage:   "Trust level: unverified, verified or first_party",
				},
				&cli.StringFlag{
					Name:     "scopes",
					Aliases:  []string{"s"},
					Required: true,
					Usage:    "Space-separated scopes the client may request",
				},
				&cli.StringSliceFlag{
					Name:    "redirect-uri",
					Aliases: []string{"r"},
					Usage:   "Registered redirect URI (repeatable)",
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

				clientUseCase, err := container.ServiceClientUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateServiceClient(
					ctx,
					clientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("name"),
					cmd.String("trust-level"),
					cmd.String("scopes"),
					cmd.StringSlice("redirect-uri"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "rotate-client-secret",
			Usage: "Replace a service client's secret",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "client-id",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Public client identifier (lc_...)",
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

				clientUseCase, err := container.ServiceClientUseCase()
				if err != nil {
					return err
				}

				return commands.RunRotateClientSecret(
					ctx,
					clientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("client-id"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "revoke-service-client",
			Usage: "Disable a service client",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "client-id",
					Aliases:  []string{"c"},
					Required: true,
					Usage:    "Public client identifier (lc_...)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				clientUseCase, err := container.ServiceClientUseCase()
				if err != nil {
					return err
				}

				return commands.RunRevokeServiceClient(
					ctx,
					clientUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("client-id"),
				)
			},
		},
	}
}
