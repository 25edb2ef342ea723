package models

import "time"

type RunState string

const (
	RunStateStart            RunState = "start"
	RunStateInvoiceResolved  RunState = "invoice_resolved"
	RunStateDealResolved     RunState = "deal_resolved"
	RunStateUsernameResolved RunState = "username_resolved"
	RunStatePPPoEIDResolved  RunState = "pppoe_id_resolved"
	RunStateAccessDisabled   RunState = "access_disabled"
	RunStateStageUpdated     RunState = "stage_updated"
	RunStatePaymentMarked    RunState = "payment_marked"
	RunStateDone             RunState = "done"
	RunStateFlagged          RunState = "flagged"
	RunStateSkipped          RunState = "skipped"
)

// IsTerminal reports whether no further step follows the state.
func (s RunState) IsTerminal() bool {
	return s == RunStateDone || s == RunStateFlagged || s == RunStateSkipped
}

type TriggerKind string

const (
	TriggerBatch    TriggerKind = "batch"
	TriggerEvent    TriggerKind = "event"
	TriggerManual   TriggerKind = "manual"
	TriggerSchedule TriggerKind = "schedule"
)

// RunRecord is the audit entry written once a workflow run finishes.
type RunRecord struct {
	ID            string      `json:"id"`
	PaymentID     string      `json:"payment_id"`
	PaymentNumber string      `json:"payment_number,omitempty"`
	Trigger       TriggerKind `json:"trigger"`
	State         RunState    `json:"state"`
	Reason        string      `json:"reason,omitempty"`
	Logs          string      `json:"logs"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
}
