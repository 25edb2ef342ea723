// Package batch runs the disconnection workflow over every payment the CRM
// reports as due.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/netwirefiber/autodisconnect/pkg/disconnect"
	"github.com/netwirefiber/autodisconnect/pkg/eventbus"
	"github.com/netwirefiber/autodisconnect/pkg/events"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/otelhelper"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const DefaultMaxConcurrency = 4

// Workflow is the part of disconnect.Workflow a batch needs.
type Workflow interface {
	Run(ctx context.Context, payment models.Payment, trigger models.TriggerKind) disconnect.Outcome
	PaymentFromRecord(record models.Record) models.Payment
	Config() disconnect.Config
}

type Summary struct {
	Total     int                  `json:"total"`
	Succeeded int                  `json:"succeeded"`
	Flagged   int                  `json:"flagged"`
	Skipped   int                  `json:"skipped"`
	Outcomes  []disconnect.Outcome `json:"outcomes"`
}

type Trigger struct {
	workflow       Workflow
	client         protocol.LookupClient
	maxConcurrency int
	publisher      eventbus.EventPublisher
	tracer         trace.Tracer
	logger         *slog.Logger
}

type Option func(*Trigger)

func WithMaxConcurrency(n int) Option {
	return func(t *Trigger) {
		if n > 0 {
			t.maxConcurrency = n
		}
	}
}

// WithPublisher publishes a BatchFinished event after every batch.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(t *Trigger) {
		t.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(t *Trigger) {
		t.tracer = tracer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(t *Trigger) {
		t.logger = logger
	}
}

func NewTrigger(workflow Workflow, client protocol.LookupClient, opts ...Option) *Trigger {
	t := &Trigger{
		workflow:       workflow,
		client:         client,
		maxConcurrency: DefaultMaxConcurrency,
		tracer:         otelhelper.NoopTracer(),
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	t.logger = t.logger.With("module", "batch_trigger")

	return t
}

// Run queries the due payments and drives each through the workflow. Only a
// failed query is an error; individual runs report through the summary.
func (t *Trigger) Run(ctx context.Context, kind models.TriggerKind) (Summary, error) {
	config := t.workflow.Config()

	ctx, span := otelhelper.StartSpan(ctx, t.tracer, "batch.run",
		attribute.String(otelhelper.TriggerTypeKey, string(kind)),
	)
	defer span.End()

	records, err := t.client.QueryRecords(ctx, config.PaymentsModule, config.BatchFilter())
	if err != nil {
		otelhelper.SetError(span, err)

		return Summary{}, fmt.Errorf("failed to query due payments: %w", err)
	}

	span.SetAttributes(attribute.Int(otelhelper.BatchSizeKey, len(records)))
	t.logger.InfoContext(ctx, "Processing due payments", "count", len(records), "max_concurrency", t.maxConcurrency)

	outcomes := make([]disconnect.Outcome, len(records))

	var group errgroup.Group
	group.SetLimit(t.maxConcurrency)

	for i, record := range records {
		payment := t.workflow.PaymentFromRecord(record)

		group.Go(func() error {
			if payment.ID == "" {
				outcomes[i] = disconnect.Outcome{Trigger: kind, State: models.RunStateSkipped, Reason: "record has no id"}

				return nil
			}

			outcomes[i] = t.workflow.Run(ctx, payment, kind)

			return nil
		})
	}

	_ = group.Wait()

	summary := Summarize(outcomes)

	t.logger.InfoContext(ctx, "Batch finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"flagged", summary.Flagged,
		"skipped", summary.Skipped,
	)

	t.publish(ctx, kind, summary)

	return summary, nil
}

func (t *Trigger) publish(ctx context.Context, kind models.TriggerKind, summary Summary) {
	if t.publisher == nil {
		return
	}

	err := t.publisher.Publish(ctx, string(kind), events.BatchFinished{
		BaseEvent: events.NewBaseEvent(events.BatchFinishedEvent),
		Trigger:   kind,
		Total:     summary.Total,
		Succeeded: summary.Succeeded,
		Flagged:   summary.Flagged,
		Skipped:   summary.Skipped,
	})
	if err != nil {
		t.logger.ErrorContext(ctx, "Failed to publish batch summary", "error", err)
	}
}

func Summarize(outcomes []disconnect.Outcome) Summary {
	summary := Summary{Total: len(outcomes), Outcomes: outcomes}

	for _, outcome := range outcomes {
		switch outcome.State {
		case models.RunStateDone:
			summary.Succeeded++
		case models.RunStateFlagged:
			summary.Flagged++
		default:
			summary.Skipped++
		}
	}

	return summary
}
