// Package cmd wires the shared components of the autodisconnect binaries
// from command-line flags.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/netwirefiber/autodisconnect/pkg/cache"
	"github.com/netwirefiber/autodisconnect/pkg/disconnect"
	"github.com/netwirefiber/autodisconnect/pkg/eventbus"
	"github.com/netwirefiber/autodisconnect/pkg/log"
	"github.com/netwirefiber/autodisconnect/pkg/lookup"
	"github.com/netwirefiber/autodisconnect/pkg/mikrotik"
	"github.com/netwirefiber/autodisconnect/pkg/otelhelper"
	"github.com/netwirefiber/autodisconnect/pkg/persistence"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/batch"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/event"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/schedule"
	"github.com/netwirefiber/autodisconnect/pkg/vtiger"
	redis "github.com/redis/go-redis/v9"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	redisPrefix = "autodisconnect:"
	dedupTTL    = 7 * 24 * time.Hour
)

// Runtime holds everything a binary needs to run the workflow.
type Runtime struct {
	Logger      *slog.Logger
	Config      disconnect.Config
	Client      *lookup.Client
	Workflow    *disconnect.Workflow
	Batch       *batch.Trigger
	Persistence persistence.Persistence
	Tracer      trace.Tracer

	// EventBus and Redis are nil when not configured.
	EventBus eventbus.EventBus
	Redis    *redis.Client

	closers []func(context.Context) error
}

// NewRuntime builds the runtime from the shared flags. On error every
// component opened so far is closed again.
func NewRuntime(ctx context.Context, command *cli.Command, name string) (*Runtime, error) {
	log.Setup(command.String("log-level"))

	rt := &Runtime{Logger: log.WithModule(name)}

	err := rt.init(ctx, command, name)
	if err != nil {
		_ = rt.Close(ctx)

		return nil, err
	}

	return rt, nil
}

func (rt *Runtime) init(ctx context.Context, command *cli.Command, name string) error {
	config, err := WorkflowConfig(command)
	if err != nil {
		return err
	}

	rt.Config = config

	rt.Tracer = otelhelper.NoopTracer()

	if command.Bool("tracing") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to start tracing: %w", err)
		}

		rt.Tracer = tracer
		rt.closers = append(rt.closers, shutdown)
	}

	rt.Client, err = NewLookupClient(command, rt.Logger)
	if err != nil {
		return err
	}

	rt.Persistence, err = NewPersistence(ctx, rt.Logger, command.String("database-url"))
	if err != nil {
		return err
	}

	rt.closers = append(rt.closers, rt.Persistence.Close)

	rt.EventBus, err = NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), rt.Logger)
	if err != nil {
		return err
	}

	if rt.EventBus != nil {
		rt.closers = append(rt.closers, func(context.Context) error { return rt.EventBus.Close() })
	}

	if url := command.String("redis-url"); url != "" {
		rt.Redis, err = cache.NewClient(ctx, url)
		if err != nil {
			return err
		}

		rt.closers = append(rt.closers, func(context.Context) error { return rt.Redis.Close() })
	}

	options := []disconnect.Option{
		disconnect.WithLogger(rt.Logger),
		disconnect.WithTracer(rt.Tracer),
		disconnect.WithSink(disconnect.RunSinkFunc(rt.Persistence.RunRepository().Save)),
	}

	batchOptions := []batch.Option{
		batch.WithLogger(rt.Logger),
		batch.WithTracer(rt.Tracer),
		batch.WithMaxConcurrency(command.Int("max-concurrency")),
	}

	if rt.EventBus != nil {
		options = append(options, disconnect.WithSink(eventbus.NewRunPublisher(rt.EventBus)))
		batchOptions = append(batchOptions, batch.WithPublisher(rt.EventBus))
	}

	rt.Workflow, err = disconnect.NewWorkflow(config, rt.Client, options...)
	if err != nil {
		return err
	}

	rt.Batch = batch.NewTrigger(rt.Workflow, rt.Client, batchOptions...)

	return nil
}

// NewLookupClient builds the CRM and router adapters from the remote flags.
func NewLookupClient(command *cli.Command, logger *slog.Logger) (*lookup.Client, error) {
	timeout := command.Duration("call-timeout")

	records, err := vtiger.NewClient(vtiger.Config{
		BaseURL:   command.String("crm-url"),
		Username:  command.String("crm-username"),
		AccessKey: command.String("crm-access-key"),
		Timeout:   timeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	router, err := mikrotik.NewClient(mikrotik.Config{
		BaseURL:  command.String("router-url"),
		Username: command.String("router-username"),
		Password: command.String("router-password"),
		Timeout:  timeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	return lookup.NewClient(records, router,
		lookup.WithCallTimeout(timeout),
		lookup.WithLogger(logger),
	), nil
}

// Deduplicator is Redis backed when Redis is configured, in-memory otherwise.
func (rt *Runtime) Deduplicator() event.Deduplicator {
	if rt.Redis != nil {
		return cache.NewRedisDeduplicator(rt.Redis, redisPrefix+"seen:", dedupTTL)
	}

	return cache.NewMemoryDeduplicator(dedupTTL)
}

// Locker is Redis backed when Redis is configured, in-memory otherwise.
func (rt *Runtime) Locker() schedule.Locker {
	if rt.Redis != nil {
		return cache.NewRedisLocker(rt.Redis, redisPrefix+"lock:")
	}

	return cache.NewMemoryLocker()
}

// EventTrigger builds the notification handler over the runtime's workflow.
func (rt *Runtime) EventTrigger() *event.Trigger {
	return event.NewTrigger(rt.Workflow, rt.Deduplicator(), rt.Logger)
}

// Close releases every component in reverse order of opening.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error

	for i := len(rt.closers) - 1; i >= 0; i-- {
		errs = append(errs, rt.closers[i](ctx))
	}

	rt.closers = nil

	return errors.Join(errs...)
}
