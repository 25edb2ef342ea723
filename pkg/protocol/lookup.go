// Package protocol defines the contracts between the disconnection workflow,
// its triggers and the remote systems they talk to.
package protocol

import (
	"context"

	"github.com/netwirefiber/autodisconnect/pkg/models"
)

// RecordStore is the CRM records API.
type RecordStore interface {
	Get(ctx context.Context, module, id string) (models.Record, error)
	Put(ctx context.Context, module, id string, fields map[string]any) error
	Query(ctx context.Context, module string, filter models.Filter) ([]models.Record, error)
}

// Router is the router management API holding PPPoE subscriber accounts.
type Router interface {
	// FindAccount returns the raw JSON array of accounts matching username.
	FindAccount(ctx context.Context, username string) ([]byte, error)
	SetAccountEnabled(ctx context.Context, accountID string, enabled bool) error
}

// LookupClient is everything the workflow needs from the outside world.
type LookupClient interface {
	GetRecord(ctx context.Context, module, id string) (models.Record, error)
	PutRecord(ctx context.Context, module, id string, fields map[string]any) error
	QueryRecords(ctx context.Context, module string, filter models.Filter) ([]models.Record, error)
	FindPPPoEAccount(ctx context.Context, username string) (models.PPPoEAccount, error)
	SetPPPoEAccountEnabled(ctx context.Context, accountID string, enabled bool) error
}
