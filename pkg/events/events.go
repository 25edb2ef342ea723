// Package events defines the notifications that flow through the event bus:
// CRM record updates in, disconnection outcomes out.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/netwirefiber/autodisconnect/pkg/models"
)

type EventType string

// Kafka topics.
const Topic = "autodisconnect.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Inbound CRM notifications.
	RecordUpdatedEvent EventType = "record.updated"

	// Disconnection lifecycle events.
	DisconnectionCompletedEvent EventType = "disconnection.completed"
	DisconnectionFlaggedEvent   EventType = "disconnection.flagged"
	BatchFinishedEvent          EventType = "batch.finished"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
	}
}

// RecordUpdated is a CRM notification that a record changed. ID identifies
// the notification itself and is what deduplication keys on.
type RecordUpdated struct {
	BaseEvent

	Module string        `json:"module"`
	Record models.Record `json:"record"`
}

func (r RecordUpdated) GetType() EventType {
	return RecordUpdatedEvent
}

// RecordID is the id of the updated record.
func (r RecordUpdated) RecordID() string {
	return r.Record.String("id")
}

func NewRecordUpdated(id, module string, record models.Record) RecordUpdated {
	base := NewBaseEvent(RecordUpdatedEvent)
	if id != "" {
		base.ID = id
	}

	return RecordUpdated{BaseEvent: base, Module: module, Record: record}
}

type DisconnectionCompleted struct {
	BaseEvent

	RunID         string             `json:"run_id"`
	PaymentID     string             `json:"payment_id"`
	PaymentNumber string             `json:"payment_number,omitempty"`
	Trigger       models.TriggerKind `json:"trigger"`
	Duration      time.Duration      `json:"duration"`
}

func (d DisconnectionCompleted) GetType() EventType {
	return DisconnectionCompletedEvent
}

type DisconnectionFlagged struct {
	BaseEvent

	RunID         string             `json:"run_id"`
	PaymentID     string             `json:"payment_id"`
	PaymentNumber string             `json:"payment_number,omitempty"`
	Trigger       models.TriggerKind `json:"trigger"`
	Reason        string             `json:"reason"`
	Logs          string             `json:"logs"`
}

func (d DisconnectionFlagged) GetType() EventType {
	return DisconnectionFlaggedEvent
}

type BatchFinished struct {
	BaseEvent

	Trigger   models.TriggerKind `json:"trigger"`
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Flagged   int                `json:"flagged"`
	Skipped   int                `json:"skipped"`
}

func (b BatchFinished) GetType() EventType {
	return BatchFinishedEvent
}

// FromRunRecord maps a finished run to its lifecycle event. Runs that did not
// reach done or flagged have none.
func FromRunRecord(record models.RunRecord) (any, bool) {
	switch record.State {
	case models.RunStateDone:
		base := NewBaseEvent(DisconnectionCompletedEvent)
		base.Timestamp = record.FinishedAt.UTC()

		return DisconnectionCompleted{
			BaseEvent:     base,
			RunID:         record.ID,
			PaymentID:     record.PaymentID,
			PaymentNumber: record.PaymentNumber,
			Trigger:       record.Trigger,
			Duration:      record.FinishedAt.Sub(record.StartedAt),
		}, true
	case models.RunStateFlagged:
		base := NewBaseEvent(DisconnectionFlaggedEvent)
		base.Timestamp = record.FinishedAt.UTC()

		return DisconnectionFlagged{
			BaseEvent:     base,
			RunID:         record.ID,
			PaymentID:     record.PaymentID,
			PaymentNumber: record.PaymentNumber,
			Trigger:       record.Trigger,
			Reason:        record.Reason,
			Logs:          record.Logs,
		}, true
	default:
		return nil, false
	}
}
