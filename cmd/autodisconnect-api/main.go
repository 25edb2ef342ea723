package main

import (
	"context"
	"os"

	"github.com/netwirefiber/autodisconnect/pkg/access"
	"github.com/netwirefiber/autodisconnect/pkg/cmd"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	flags := append(cmd.AllFlags(),
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   defaultPort,
			Sources: cli.EnvVars("PORT"),
		},
	)

	command := &cli.Command{
		Name:                  "autodisconnect-api",
		Usage:                 "Receive CRM notifications and serve manual operations over HTTP",
		EnableShellCompletion: true,
		Flags:                 flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := cmd.NewRuntime(ctx, command, "api")
			if err != nil {
				return err
			}

			defer func() {
				err := rt.Close(ctx)
				if err != nil {
					rt.Logger.ErrorContext(ctx, "Failed to close runtime", "error", err)
				}
			}()

			rt.Logger.InfoContext(ctx, "Initializing autodisconnect API")

			api := NewAPI(
				rt.Logger,
				rt.EventTrigger(),
				rt.Workflow,
				rt.Batch,
				access.NewToggler(rt.Client, rt.Config.DealModule, rt.Logger),
				rt.Persistence,
			)

			err = api.Start(command.Int("port"))
			if err != nil {
				rt.Logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
