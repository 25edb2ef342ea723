package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/netwirefiber/autodisconnect/pkg/cmd"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/queue"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/schedule"
	cli "github.com/urfave/cli/v3"
)

func main() {
	flags := append(cmd.AllFlags(),
		&cli.StringFlag{
			Name:    "cron",
			Usage:   "Cron expression of the batch run",
			Value:   schedule.DefaultCronExpr,
			Sources: cli.EnvVars("BATCH_CRON"),
		},
		&cli.StringFlag{
			Name:    "queue",
			Usage:   "Redis list of record update notifications (requires --redis-url)",
			Value:   queue.DefaultQueue,
			Sources: cli.EnvVars("NOTIFICATION_QUEUE"),
		},
	)

	command := &cli.Command{
		Name:                  "autodisconnect-worker",
		EnableShellCompletion: true,
		Usage:                 "Run scheduled batches and react to CRM record updates",
		Flags:                 flags,
		Action: func(ctx context.Context, command *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			rt, err := cmd.NewRuntime(ctx, command, "autodisconnect-worker")
			if err != nil {
				return err
			}

			defer func() {
				err := rt.Close(context.WithoutCancel(ctx))
				if err != nil {
					rt.Logger.ErrorContext(ctx, "Failed to close runtime", "error", err)
				}
			}()

			rt.Logger.InfoContext(ctx, "Initializing autodisconnect worker")

			worker := NewWorker(rt.Logger)

			scheduleTrigger, err := schedule.NewTrigger(command.String("cron"), rt.Logger,
				schedule.WithLocker(rt.Locker()),
				schedule.WithLocation(rt.Config.Location()),
			)
			if err != nil {
				return err
			}

			worker.AddTrigger("schedule", scheduleTrigger, func(ctx context.Context, _ map[string]any) error {
				_, err := rt.Batch.Run(ctx, models.TriggerSchedule)

				return err
			})

			eventTrigger := rt.EventTrigger()

			if rt.Redis != nil {
				queueTrigger, err := queue.NewTrigger(rt.Redis, command.String("queue"), rt.Logger)
				if err != nil {
					return err
				}

				worker.AddTrigger("queue", queueTrigger, eventTrigger.Callback())
			}

			if rt.EventBus != nil {
				worker.SubscribeRecordUpdates(rt.EventBus, eventTrigger.EventHandler())
			}

			return worker.Run(ctx)
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
