// Package event runs the disconnection workflow in reaction to CRM record
// update notifications, at most once per notification.
package event

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/netwirefiber/autodisconnect/pkg/disconnect"
	"github.com/netwirefiber/autodisconnect/pkg/events"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
)

var ErrMissingRecord = errors.New("notification carries no record")

type Deduplicator interface {
	// FirstSeen records id and reports whether it had not been seen before.
	FirstSeen(ctx context.Context, id string) (bool, error)
}

// Workflow is the part of disconnect.Workflow the event trigger needs.
type Workflow interface {
	RunIfApplicable(ctx context.Context, payment models.Payment, trigger models.TriggerKind) disconnect.Outcome
	PaymentFromRecord(record models.Record) models.Payment
	Config() disconnect.Config
}

type Trigger struct {
	workflow Workflow
	dedup    Deduplicator
	logger   *slog.Logger
}

func NewTrigger(workflow Workflow, dedup Deduplicator, logger *slog.Logger) *Trigger {
	if logger == nil {
		logger = slog.Default()
	}

	return &Trigger{
		workflow: workflow,
		dedup:    dedup,
		logger:   logger.With("module", "event_trigger"),
	}
}

// Handle processes one notification. handled is false when the notification
// concerns another module, carries no record id, or was already seen.
func (t *Trigger) Handle(ctx context.Context, event events.RecordUpdated) (disconnect.Outcome, bool, error) {
	config := t.workflow.Config()

	if event.Module != "" && event.Module != config.PaymentsModule {
		return disconnect.Outcome{}, false, nil
	}

	if event.RecordID() == "" {
		t.logger.WarnContext(ctx, "Ignoring notification without record id", "event_id", event.ID)

		return disconnect.Outcome{}, false, nil
	}

	key := notificationKey(event)

	first, err := t.dedup.FirstSeen(ctx, key)
	if err != nil {
		return disconnect.Outcome{}, false, fmt.Errorf("failed to deduplicate notification %s: %w", key, err)
	}

	if !first {
		t.logger.DebugContext(ctx, "Duplicate notification", "event_id", key)

		return disconnect.Outcome{}, false, nil
	}

	payment := t.workflow.PaymentFromRecord(event.Record)

	outcome := t.workflow.RunIfApplicable(ctx, payment, models.TriggerEvent)

	t.logger.InfoContext(ctx, "Notification handled",
		"event_id", key,
		"payment_id", payment.ID,
		"state", outcome.State,
		"reason", outcome.Reason,
	)

	return outcome, true, nil
}

// notificationKey falls back to the record id and modification time when the
// notification itself has no id, and to a digest of the record content when
// the record has no modification time either.
func notificationKey(event events.RecordUpdated) string {
	if event.ID != "" {
		return event.ID
	}

	if modified := event.Record.String("modifiedtime"); modified != "" {
		return event.RecordID() + "@" + modified
	}

	// encoding/json sorts map keys, so equal records yield equal digests.
	raw, err := json.Marshal(event.Record)
	if err != nil {
		return event.RecordID() + "@" + uuid.NewString()
	}

	sum := sha256.Sum256(raw)

	return event.RecordID() + "#" + hex.EncodeToString(sum[:])
}

// Callback adapts Handle to sources that deliver decoded JSON maps.
func (t *Trigger) Callback() protocol.TriggerCallback {
	return func(ctx context.Context, data map[string]any) error {
		event, err := FromTriggerData(data)
		if err != nil {
			return err
		}

		_, _, err = t.Handle(ctx, event)

		return err
	}
}

// EventHandler adapts Handle to the event bus.
func (t *Trigger) EventHandler() func(ctx context.Context, event any) error {
	return func(ctx context.Context, event any) error {
		update, ok := event.(*events.RecordUpdated)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}

		_, _, err := t.Handle(ctx, *update)

		return err
	}
}

// FromTriggerData decodes {"id", "module", "record"} notifications. A payload
// without "record" is taken to be the record itself.
func FromTriggerData(data map[string]any) (events.RecordUpdated, error) {
	if _, ok := data["record"]; !ok {
		if _, hasID := data["id"]; !hasID {
			return events.RecordUpdated{}, ErrMissingRecord
		}

		return events.RecordUpdated{
			BaseEvent: events.BaseEvent{Type: events.RecordUpdatedEvent},
			Module:    models.Record(data).String(models.FieldRecordModule),
			Record:    models.Record(data),
		}, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return events.RecordUpdated{}, fmt.Errorf("failed to encode notification: %w", err)
	}

	var event events.RecordUpdated

	err = json.Unmarshal(raw, &event)
	if err != nil {
		return events.RecordUpdated{}, fmt.Errorf("failed to decode notification: %w", err)
	}

	if len(event.Record) == 0 {
		return events.RecordUpdated{}, ErrMissingRecord
	}

	event.Type = events.RecordUpdatedEvent

	return event, nil
}
