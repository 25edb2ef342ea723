// Package manual drives one batch on operator request and reports a single
// aggregate notification.
package manual

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
	"github.com/netwirefiber/autodisconnect/pkg/triggers/batch"
)

const MessageNothingToProcess = "No payments to process right now."

type Batch interface {
	Run(ctx context.Context, kind models.TriggerKind) (batch.Summary, error)
}

type Trigger struct {
	batch    Batch
	notifier protocol.Notifier
	logger   *slog.Logger
}

func NewTrigger(batch Batch, notifier protocol.Notifier, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}

	return &Trigger{
		batch:    batch,
		notifier: notifier,
		logger:   logger.With("module", "manual_trigger"),
	}
}

// Run shows progress, processes the due payments and hides progress before
// sending exactly one notification. A query failure is returned with an
// empty summary.
func (t *Trigger) Run(ctx context.Context) (batch.Summary, error) {
	t.notifier.ShowProgress(ctx)

	summary, err := t.batch.Run(ctx, models.TriggerManual)

	t.notifier.HideProgress(ctx)

	if err != nil {
		t.logger.ErrorContext(ctx, "Manual run could not query payments", "error", err)
		t.notifier.NotifyError(ctx, MessageNothingToProcess)

		return summary, err
	}

	message, ok := Message(summary)
	if ok {
		t.notifier.NotifySuccess(ctx, message)
	} else {
		t.notifier.NotifyError(ctx, message)
	}

	t.logger.InfoContext(ctx, "Manual run finished", "total", summary.Total, "succeeded", summary.Succeeded)

	return summary, nil
}

// Message renders the aggregate notification for a summary and reports
// whether it is a success.
func Message(summary batch.Summary) (string, bool) {
	if summary.Total == 0 {
		return MessageNothingToProcess, false
	}

	failed := summary.Total - summary.Succeeded
	if failed == 0 {
		return fmt.Sprintf("Processed %d payment(s).", summary.Total), true
	}

	return fmt.Sprintf("Errors on %d of %d payment(s). Check logs.", failed, summary.Total), false
}
