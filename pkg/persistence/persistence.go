// Package persistence defines storage for the audit history of workflow runs.
package persistence

import (
	"context"

	"github.com/netwirefiber/autodisconnect/pkg/models"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type Persistence interface {
	RunRepository() RunRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// RunRepository stores one record per finished workflow run.
type RunRepository interface {
	// Save inserts the record, replacing any record with the same ID.
	Save(ctx context.Context, record models.RunRecord) error
	GetByID(ctx context.Context, id string) (*models.RunRecord, error)
	// List returns the matching records, most recently finished first.
	List(ctx context.Context, opts ListRunsOptions) ([]models.RunRecord, error)
}

type ListRunsOptions struct {
	PaymentID string
	State     models.RunState
	Trigger   models.TriggerKind
	Limit     int
}

// Normalize clamps Limit into [1, MaxListLimit], defaulting to DefaultListLimit.
func (o ListRunsOptions) Normalize() ListRunsOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}

	o.Limit = min(o.Limit, MaxListLimit)

	return o
}

// Matches reports whether record passes the filters of o.
func (o ListRunsOptions) Matches(record models.RunRecord) bool {
	if o.PaymentID != "" && record.PaymentID != o.PaymentID {
		return false
	}

	if o.State != "" && record.State != o.State {
		return false
	}

	if o.Trigger != "" && record.Trigger != o.Trigger {
		return false
	}

	return true
}
