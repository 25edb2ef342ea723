// Package lookup implements the workflow's view of the CRM and the router
// management system, classifying every failure as not-found, transport or parse.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
)

const DefaultCallTimeout = 15 * time.Second

// Client implements protocol.LookupClient on top of a record store and a router.
type Client struct {
	records protocol.RecordStore
	router  protocol.Router
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Client)

// WithCallTimeout bounds every remote call. Zero disables the bound.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(records protocol.RecordStore, router protocol.Router, opts ...Option) *Client {
	c := &Client{
		records: records,
		router:  router,
		timeout: DefaultCallTimeout,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.logger = c.logger.With("module", "lookup_client")

	return c
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.timeout)
}

func classify(err error) error {
	if errors.Is(err, protocol.ErrNotFound) {
		return ErrNotFound
	}

	return ErrTransport
}

func (c *Client) GetRecord(ctx context.Context, module, id string) (models.Record, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	record, err := c.records.Get(callCtx, module, id)
	if err != nil {
		c.logger.DebugContext(ctx, "Record fetch failed", "record_module", module, "record_id", id, "error", err)

		return nil, newError("GetRecord", module, id, classify(err), err)
	}

	if len(record) == 0 {
		return nil, newError("GetRecord", module, id, ErrTransport, errors.New("empty record"))
	}

	return record, nil
}

func (c *Client) PutRecord(ctx context.Context, module, id string, fields map[string]any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	err := c.records.Put(callCtx, module, id, fields)
	if err != nil {
		c.logger.DebugContext(ctx, "Record update failed", "record_module", module, "record_id", id, "error", err)

		return newError("PutRecord", module, id, ErrTransport, err)
	}

	return nil
}

func (c *Client) QueryRecords(ctx context.Context, module string, filter models.Filter) ([]models.Record, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	records, err := c.records.Query(callCtx, module, filter)
	if err != nil {
		return nil, newError("QueryRecords", module, "", ErrTransport, err)
	}

	return records, nil
}

// FindPPPoEAccount takes the first element of the router's JSON array as the match.
func (c *Client) FindPPPoEAccount(ctx context.Context, username string) (models.PPPoEAccount, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	payload, err := c.router.FindAccount(callCtx, username)
	if err != nil {
		return models.PPPoEAccount{}, newError("FindPPPoEAccount", "", username, classify(err), err)
	}

	if len(bytes.TrimSpace(payload)) == 0 {
		return models.PPPoEAccount{}, newError("FindPPPoEAccount", "", username, ErrTransport, errors.New("empty response"))
	}

	var accounts []map[string]any

	err = json.Unmarshal(payload, &accounts)
	if err != nil {
		return models.PPPoEAccount{}, newError("FindPPPoEAccount", "", username, ErrParse, err)
	}

	if len(accounts) == 0 {
		return models.PPPoEAccount{}, newError("FindPPPoEAccount", "", username, ErrNotFound, nil)
	}

	first := models.Record(accounts[0])

	id := first.String(".id")
	if id == "" {
		return models.PPPoEAccount{}, newError("FindPPPoEAccount", "", username, ErrNotFound, errors.New("account has no .id"))
	}

	return models.PPPoEAccount{
		ID:       id,
		Name:     first.String("name"),
		Disabled: first.Bool("disabled"),
	}, nil
}

func (c *Client) SetPPPoEAccountEnabled(ctx context.Context, accountID string, enabled bool) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	err := c.router.SetAccountEnabled(callCtx, accountID, enabled)
	if err != nil {
		return newError("SetPPPoEAccountEnabled", "", accountID, ErrTransport, err)
	}

	return nil
}
