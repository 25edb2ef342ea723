package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/netwirefiber/autodisconnect/pkg/access"
	"github.com/netwirefiber/autodisconnect/pkg/cmd"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/notify"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/manual"
	cli "github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "autodisconnect",
		Usage:                 "Disconnect PPPoE access for customers with repeated payment failures",
		EnableShellCompletion: true,
		Flags:                 cmd.AllFlags(),
		Commands: []*cli.Command{
			runCommand(),
			processCommand(),
			accessCommand(),
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Process every payment that is due for disconnection",
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := cmd.NewRuntime(ctx, command, "cli")
			if err != nil {
				return err
			}
			defer closeRuntime(ctx, rt)

			summary, err := manual.NewTrigger(rt.Batch, notify.NewLogNotifier(rt.Logger), rt.Logger).Run(ctx)
			if err != nil {
				return err
			}

			return writeJSON(command.Root().Writer, summary)
		},
	}
}

func processCommand() *cli.Command {
	return &cli.Command{
		Name:    "process",
		Aliases: []string{"p"},
		Usage:   "Run the disconnection workflow for one payment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "payment-id",
				Usage:    "CRM record ID of the payment",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rt, err := cmd.NewRuntime(ctx, command, "cli")
			if err != nil {
				return err
			}
			defer closeRuntime(ctx, rt)

			outcome, err := rt.Workflow.Process(ctx, command.String("payment-id"), models.TriggerManual)
			if err != nil {
				return err
			}

			return writeJSON(command.Root().Writer, outcome)
		},
	}
}

func accessCommand() *cli.Command {
	return &cli.Command{
		Name:    "access",
		Aliases: []string{"a"},
		Usage:   "Enable or disable internet access for a deal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "deal-id",
				Usage:    "CRM record ID of the deal",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "status",
				Usage:    "Internet access status (Enabled or Disabled)",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			status, err := access.ParseStatus(command.String("status"))
			if err != nil {
				return err
			}

			rt, err := cmd.NewRuntime(ctx, command, "cli")
			if err != nil {
				return err
			}
			defer closeRuntime(ctx, rt)

			toggler := access.NewToggler(rt.Client, rt.Config.DealModule, rt.Logger)

			return toggler.Apply(ctx, notify.NewLogNotifier(rt.Logger), command.String("deal-id"), status)
		},
	}
}

func closeRuntime(ctx context.Context, rt *cmd.Runtime) {
	err := rt.Close(ctx)
	if err != nil {
		rt.Logger.ErrorContext(ctx, "Failed to close runtime", "error", err)
	}
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(value)
}
