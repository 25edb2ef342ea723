// Package disconnect implements the non-payment disconnection workflow: walk a
// failed payment to its deal's PPPoE account, disable the account, then record
// the outcome on the deal and the payment.
package disconnect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/netwirefiber/autodisconnect/pkg/log"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/otelhelper"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Guard is the verdict of the applicability checks.
type Guard struct {
	Applies bool
	Reason  string
}

type Workflow struct {
	config   Config
	client   protocol.LookupClient
	logger   *slog.Logger
	tracer   trace.Tracer
	location *time.Location
	sinks    []RunSink
	now      func() time.Time
}

type Option func(*Workflow)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(w *Workflow) {
		w.tracer = tracer
	}
}

// WithSink registers a receiver for finished runs.
func WithSink(sink RunSink) Option {
	return func(w *Workflow) {
		w.sinks = append(w.sinks, sink)
	}
}

func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		w.now = now
	}
}

func NewWorkflow(config Config, client protocol.LookupClient, opts ...Option) (*Workflow, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	if client == nil {
		return nil, errors.New("lookup client is required")
	}

	w := &Workflow{
		config:   config,
		client:   client,
		logger:   slog.Default(),
		tracer:   otelhelper.NoopTracer(),
		location: config.Location(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.With("module", "disconnect_workflow")

	return w, nil
}

func (w *Workflow) Config() Config {
	return w.config
}

// PaymentFromRecord maps a payment record using the workflow's modules and zone.
func (w *Workflow) PaymentFromRecord(record models.Record) models.Payment {
	return models.PaymentFromRecord(record, w.config.PaymentsModule, w.config.InvoiceModule, w.location)
}

// Evaluate runs the applicability checks used by event driven and single
// payment invocations. Batch runs rely on the query predicate instead.
func (w *Workflow) Evaluate(payment models.Payment) Guard {
	switch {
	case !payment.HasRetryCounter || payment.RetryCounter != w.config.RetryThreshold:
		return Guard{Reason: fmt.Sprintf("retry counter %d is not %d", payment.RetryCounter, w.config.RetryThreshold)}
	case !payment.CreatedAt.After(w.config.CreatedAfter):
		return Guard{Reason: "created before " + w.config.CreatedAfter.Format(time.RFC3339)}
	case payment.InternetDisabledByPlatform:
		return Guard{Reason: "internet already disabled"}
	case w.config.SettledStatus != "" && payment.Status == w.config.SettledStatus:
		return Guard{Reason: "payment status is " + payment.Status}
	}

	return Guard{Applies: true}
}

// RunIfApplicable evaluates the guards and runs the workflow only when they pass.
func (w *Workflow) RunIfApplicable(ctx context.Context, payment models.Payment, trigger models.TriggerKind) Outcome {
	guard := w.Evaluate(payment)
	if !guard.Applies {
		w.logger.DebugContext(ctx, "Payment not applicable", "payment_id", payment.ID, "reason", guard.Reason)

		return w.skipped(payment, trigger, guard.Reason)
	}

	return w.Run(ctx, payment, trigger)
}

// Process fetches a payment by id and runs it through RunIfApplicable.
// The error only reports a failure to load the payment.
func (w *Workflow) Process(ctx context.Context, paymentID string, trigger models.TriggerKind) (Outcome, error) {
	record, err := w.client.GetRecord(ctx, w.config.PaymentsModule, paymentID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load payment %s: %w", paymentID, err)
	}

	payment := w.PaymentFromRecord(record)
	if payment.ID == "" {
		payment.ID = paymentID
	}

	return w.RunIfApplicable(ctx, payment, trigger), nil
}

// Run drives one payment through the pipeline. It never fails: every problem
// ends the run flagged, and the run's journal is written back to the payment
// exactly once. Cancelling ctx does not interrupt a started run.
func (w *Workflow) Run(ctx context.Context, payment models.Payment, trigger models.TriggerKind) Outcome {
	ctx = context.WithoutCancel(ctx)

	if payment.InternetDisabledByPlatform {
		return w.skipped(payment, trigger, "internet already disabled")
	}

	run := &Run{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		Payment:   payment,
		State:     models.RunStateStart,
		StartedAt: w.now(),
	}
	run.Journal = log.NewJournal(w.location, log.WithClock(w.now), log.WithLogger(w.logger.With("run_id", run.ID)))

	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "disconnect.run",
		attribute.String(otelhelper.RunIDKey, run.ID),
		attribute.String(otelhelper.PaymentIDKey, payment.ID),
		attribute.String(otelhelper.PaymentNumberKey, payment.Number),
		attribute.String(otelhelper.TriggerTypeKey, string(trigger)),
	)
	defer span.End()

	logger := w.logger.With("run_id", run.ID, "payment_id", payment.ID, "trigger", trigger)
	logger.InfoContext(ctx, "Starting disconnection run")

	run.log("Processing payment: " + payment.Label())

	var stepErr *StepError

	for _, s := range w.pipeline() {
		err := w.runStep(ctx, s, run)
		if err == nil {
			run.State = s.reached

			continue
		}

		if !errors.As(err, &stepErr) {
			stepErr = fail(s.name+" failed", "Unexpected failure in "+s.name+".", err)
		}

		break
	}

	var outcome Outcome
	if stepErr != nil {
		outcome = w.flag(ctx, run, stepErr)
		otelhelper.SetFlagged(span, stepErr.Reason)
		logger.WarnContext(ctx, "Disconnection run flagged", "reason", stepErr.Reason, "error", stepErr.Err)
	} else {
		outcome = w.complete(ctx, run)
		logger.InfoContext(ctx, "Disconnection run completed", "pppoe_id", run.Account.ID, "deal_id", run.Deal.ID)
	}

	span.SetAttributes(attribute.String(otelhelper.RunStateKey, string(outcome.State)))

	w.notifySinks(ctx, logger, outcome)

	return outcome
}

func (w *Workflow) runStep(ctx context.Context, s step, run *Run) error {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "disconnect.step."+s.name,
		attribute.String(otelhelper.RunIDKey, run.ID),
		attribute.String(otelhelper.StepNameKey, s.name),
	)
	defer span.End()

	err := s.fn(ctx, run)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.StepNameKey, s.name))
	}

	return err
}

// flag records the failure, sets the script-failed checkbox and persists the
// journal. Failures of either write are logged and otherwise ignored.
func (w *Workflow) flag(ctx context.Context, run *Run, stepErr *StepError) Outcome {
	if stepErr.Message != "" {
		run.log(stepErr.Message)
	}

	if stepErr.Err != nil {
		run.log("Error: " + stepErr.Err.Error())
	}

	run.log("[INFO] Flagging script failure: " + stepErr.Reason)
	run.State = models.RunStateFlagged

	err := w.client.PutRecord(ctx, run.Payment.Module, run.Payment.ID, map[string]any{
		models.FieldScriptFailed: models.BoolString(true),
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to flag payment", "payment_id", run.Payment.ID, "error", err)
	} else {
		run.Payment.ScriptFailed = true
	}

	return w.finish(ctx, run, stepErr.Reason)
}

func (w *Workflow) complete(ctx context.Context, run *Run) Outcome {
	run.State = models.RunStateDone

	return w.finish(ctx, run, "")
}

func (w *Workflow) finish(ctx context.Context, run *Run, reason string) Outcome {
	logs := run.Journal.Flush(run.Payment.ID)

	err := w.client.PutRecord(ctx, run.Payment.Module, run.Payment.ID, map[string]any{
		models.FieldScriptLogs: logs,
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to persist run logs", "payment_id", run.Payment.ID, "error", err)
	}

	run.Payment.ScriptLogs = logs

	return Outcome{
		RunID:         run.ID,
		PaymentID:     run.Payment.ID,
		PaymentNumber: run.Payment.Number,
		Trigger:       run.Trigger,
		State:         run.State,
		Reason:        reason,
		Logs:          logs,
		StartedAt:     run.StartedAt,
		FinishedAt:    w.now(),
	}
}

func (w *Workflow) skipped(payment models.Payment, trigger models.TriggerKind, reason string) Outcome {
	now := w.now()

	return Outcome{
		PaymentID:     payment.ID,
		PaymentNumber: payment.Number,
		Trigger:       trigger,
		State:         models.RunStateSkipped,
		Reason:        reason,
		StartedAt:     now,
		FinishedAt:    now,
	}
}

func (w *Workflow) notifySinks(ctx context.Context, logger *slog.Logger, outcome Outcome) {
	record := outcome.Record()

	for _, sink := range w.sinks {
		err := sink.RunFinished(ctx, record)
		if err != nil {
			logger.ErrorContext(ctx, "Run sink failed", "error", err)
		}
	}
}
