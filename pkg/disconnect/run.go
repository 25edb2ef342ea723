package disconnect

import (
	"context"
	"time"

	"github.com/netwirefiber/autodisconnect/pkg/log"
	"github.com/netwirefiber/autodisconnect/pkg/models"
)

// Run is the state of one traversal of the workflow for one payment.
type Run struct {
	ID        string
	Trigger   models.TriggerKind
	Payment   models.Payment
	Journal   *log.Journal
	Invoice   models.Invoice
	Deal      models.Deal
	Account   models.PPPoEAccount
	State     models.RunState
	StartedAt time.Time
}

func (r *Run) log(message string) {
	r.Journal.Record(r.Payment.ID, message)
}

// Outcome is what a caller learns about a finished run.
type Outcome struct {
	RunID         string             `json:"run_id"`
	PaymentID     string             `json:"payment_id"`
	PaymentNumber string             `json:"payment_number,omitempty"`
	Trigger       models.TriggerKind `json:"trigger"`
	State         models.RunState    `json:"state"`
	Reason        string             `json:"reason,omitempty"`
	Logs          string             `json:"logs,omitempty"`
	StartedAt     time.Time          `json:"started_at"`
	FinishedAt    time.Time          `json:"finished_at"`
}

func (o Outcome) Succeeded() bool {
	return o.State == models.RunStateDone
}

func (o Outcome) Flagged() bool {
	return o.State == models.RunStateFlagged
}

func (o Outcome) Skipped() bool {
	return o.State == models.RunStateSkipped
}

func (o Outcome) Record() models.RunRecord {
	return models.RunRecord{
		ID:            o.RunID,
		PaymentID:     o.PaymentID,
		PaymentNumber: o.PaymentNumber,
		Trigger:       o.Trigger,
		State:         o.State,
		Reason:        o.Reason,
		Logs:          o.Logs,
		StartedAt:     o.StartedAt,
		FinishedAt:    o.FinishedAt,
	}
}

// StepError terminates a run in the flagged state. Reason is the short,
// stable description persisted with the flag; Message is the journal line.
type StepError struct {
	Reason  string
	Message string
	Err     error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}

	return e.Reason
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func fail(reason, message string, err error) *StepError {
	return &StepError{Reason: reason, Message: message, Err: err}
}

// RunSink receives the record of every run that reached done or flagged.
type RunSink interface {
	RunFinished(ctx context.Context, record models.RunRecord) error
}

type RunSinkFunc func(ctx context.Context, record models.RunRecord) error

func (f RunSinkFunc) RunFinished(ctx context.Context, record models.RunRecord) error {
	return f(ctx, record)
}
