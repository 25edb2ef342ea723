package cmd

import (
	"time"

	"github.com/netwirefiber/autodisconnect/pkg/disconnect"
	"github.com/netwirefiber/autodisconnect/pkg/lookup"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/batch"
	cli "github.com/urfave/cli/v3"
)

// LoggingFlags configure process logging and tracing.
func LoggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export OpenTelemetry traces over OTLP/HTTP",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
	}
}

// RemoteFlags configure the CRM and router endpoints.
func RemoteFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "crm-url",
			Usage:    "Base URL of the CRM REST API",
			Required: true,
			Sources:  cli.EnvVars("CRM_URL"),
		},
		&cli.StringFlag{
			Name:     "crm-username",
			Usage:    "CRM API user",
			Required: true,
			Sources:  cli.EnvVars("CRM_USERNAME"),
		},
		&cli.StringFlag{
			Name:     "crm-access-key",
			Usage:    "CRM API access key",
			Required: true,
			Sources:  cli.EnvVars("CRM_ACCESS_KEY"),
		},
		&cli.StringFlag{
			Name:     "router-url",
			Usage:    "Base URL of the router REST API",
			Required: true,
			Sources:  cli.EnvVars("ROUTER_URL"),
		},
		&cli.StringFlag{
			Name:     "router-username",
			Usage:    "Router API user",
			Required: true,
			Sources:  cli.EnvVars("ROUTER_USERNAME"),
		},
		&cli.StringFlag{
			Name:     "router-password",
			Usage:    "Router API password",
			Required: true,
			Sources:  cli.EnvVars("ROUTER_PASSWORD"),
		},
		&cli.DurationFlag{
			Name:    "call-timeout",
			Usage:   "Timeout of every remote call",
			Value:   lookup.DefaultCallTimeout,
			Sources: cli.EnvVars("CALL_TIMEOUT"),
		},
	}
}

// WorkflowFlags parameterise the disconnection workflow.
func WorkflowFlags() []cli.Flag {
	defaults := disconnect.DefaultConfig()

	return []cli.Flag{
		&cli.IntFlag{
			Name:    "retry-threshold",
			Usage:   "Retry counter value at which a payment is disconnected",
			Value:   defaults.RetryThreshold,
			Sources: cli.EnvVars("RETRY_THRESHOLD"),
		},
		&cli.StringFlag{
			Name:    "created-after",
			Usage:   "Only payments created after this instant are processed",
			Value:   defaults.CreatedAfter.Format(time.RFC3339),
			Sources: cli.EnvVars("CREATED_AFTER"),
		},
		&cli.StringFlag{
			Name:    "settled-status",
			Usage:   "Payment status that is never disconnected (empty disables the check)",
			Value:   defaults.SettledStatus,
			Sources: cli.EnvVars("SETTLED_STATUS"),
		},
		&cli.StringFlag{
			Name:    "disconnection-stage",
			Usage:   "Deal sales stage set after a disconnection",
			Value:   defaults.DisconnectionStage,
			Sources: cli.EnvVars("DISCONNECTION_STAGE"),
		},
		&cli.StringFlag{
			Name:    "timezone",
			Usage:   "Time zone of journal timestamps and CRM dates",
			Value:   defaults.TimeZone,
			Sources: cli.EnvVars("TIMEZONE"),
		},
		&cli.IntFlag{
			Name:    "filter-id",
			Usage:   "CRM list filter batch queries are scoped to (0 for none)",
			Value:   defaults.FilterID,
			Sources: cli.EnvVars("FILTER_ID"),
		},
		&cli.IntFlag{
			Name:    "max-concurrency",
			Usage:   "Maximum number of payments processed at once",
			Value:   batch.DefaultMaxConcurrency,
			Sources: cli.EnvVars("MAX_CONCURRENCY"),
		},
	}
}

// InfraFlags select the persistence, event bus and Redis backends.
func InfraFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Run history storage (file://dir or postgres://...)",
			Value:   "file://./data",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (kafka, gochannel, none)",
			Value:   "none",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Value:   "localhost:9092",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "Redis URL for locks, deduplication and the notification queue",
			Sources: cli.EnvVars("REDIS_URL"),
		},
	}
}

// AllFlags is every shared flag.
func AllFlags() []cli.Flag {
	var flags []cli.Flag

	flags = append(flags, LoggingFlags()...)
	flags = append(flags, RemoteFlags()...)
	flags = append(flags, WorkflowFlags()...)
	flags = append(flags, InfraFlags()...)

	return flags
}

// WorkflowConfig builds a validated disconnect.Config from the workflow flags.
func WorkflowConfig(command *cli.Command) (disconnect.Config, error) {
	config := disconnect.DefaultConfig()

	config.RetryThreshold = command.Int("retry-threshold")
	config.SettledStatus = command.String("settled-status")
	config.DisconnectionStage = command.String("disconnection-stage")
	config.TimeZone = command.String("timezone")
	config.FilterID = command.Int("filter-id")

	cutoff, err := config.ParseCutoff(command.String("created-after"))
	if err != nil {
		return disconnect.Config{}, err
	}

	config.CreatedAfter = cutoff

	err = config.Validate()
	if err != nil {
		return disconnect.Config{}, err
	}

	return config, nil
}
