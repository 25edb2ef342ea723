// Package access switches a deal's internet access on or off on the router
// and records the new status on the deal.
package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/netwirefiber/autodisconnect/pkg/lookup"
	"github.com/netwirefiber/autodisconnect/pkg/models"
	"github.com/netwirefiber/autodisconnect/pkg/protocol"
)

type Status string

const (
	StatusEnabled  Status = "Enabled"
	StatusDisabled Status = "Disabled"
)

// ParseStatus accepts the two statuses in any letter case.
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "enabled":
		return StatusEnabled, nil
	case "disabled":
		return StatusDisabled, nil
	default:
		return "", &Error{Message: MessageMissingStatus, Err: ErrInvalidStatus}
	}
}

// User-facing messages.
const (
	MessageMissingStatus   = "Please select an internet access status."
	MessageMissingUsername = "Missing PPPoE username in the current deal."
	MessageDealFetchFailed = "Failed to load the deal."
	MessageFetchFailed     = "Failed to fetch PPPoE ID."
	MessageInvalidResponse = "Invalid response while fetching PPPoE ID."
	MessageUserNotFound    = "PPPoE user not found on Netwire Fiber Radius Server."
	MessageUpdateFailed    = "Failed to update internet access status."
)

var (
	ErrInvalidStatus   = errors.New("invalid internet access status")
	ErrMissingUsername = errors.New("deal has no pppoe username")
)

// Error carries the operator-facing message next to the underlying failure.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the operator-facing message for err.
func UserMessage(err error) string {
	var accessErr *Error
	if errors.As(err, &accessErr) {
		return accessErr.Message
	}

	return MessageUpdateFailed
}

type Toggler struct {
	client     protocol.LookupClient
	dealModule string
	logger     *slog.Logger
}

func NewToggler(client protocol.LookupClient, dealModule string, logger *slog.Logger) *Toggler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Toggler{
		client:     client,
		dealModule: dealModule,
		logger:     logger.With("module", "internet_access"),
	}
}

// Set applies status to the deal's PPPoE account and returns the success
// message. Writing the status back onto the deal is best effort.
func (t *Toggler) Set(ctx context.Context, dealID string, status Status) (string, error) {
	if status != StatusEnabled && status != StatusDisabled {
		return "", &Error{Message: MessageMissingStatus, Err: ErrInvalidStatus}
	}

	record, err := t.client.GetRecord(ctx, t.dealModule, dealID)
	if err != nil {
		return "", &Error{Message: MessageDealFetchFailed, Err: err}
	}

	deal := models.DealFromRecord(record, t.dealModule)
	if deal.PPPoEUsername == "" {
		return "", &Error{Message: MessageMissingUsername, Err: ErrMissingUsername}
	}

	account, err := t.client.FindPPPoEAccount(ctx, deal.PPPoEUsername)
	if err != nil {
		return "", &Error{Message: lookupMessage(err), Err: err}
	}

	err = t.client.SetPPPoEAccountEnabled(ctx, account.ID, status == StatusEnabled)
	if err != nil {
		return "", &Error{Message: MessageUpdateFailed, Err: err}
	}

	err = t.client.PutRecord(ctx, t.dealModule, dealID, map[string]any{
		models.FieldInternetAccessStatus: string(status),
	})
	if err != nil {
		t.logger.WarnContext(ctx, "Internet access changed but deal status was not saved",
			"deal_id", dealID,
			"status", status,
			"error", err,
		)
	}

	t.logger.InfoContext(ctx, "Internet access updated",
		"deal_id", dealID,
		"username", deal.PPPoEUsername,
		"pppoe_id", account.ID,
		"status", status,
	)

	return fmt.Sprintf("Internet access status %s successfully.", strings.ToLower(string(status))), nil
}

// Apply runs Set behind the notifier's progress indicator and reports the
// result as one notification.
func (t *Toggler) Apply(ctx context.Context, notifier protocol.Notifier, dealID string, status Status) error {
	notifier.ShowProgress(ctx)

	message, err := t.Set(ctx, dealID, status)

	notifier.HideProgress(ctx)

	if err != nil {
		notifier.NotifyError(ctx, UserMessage(err))

		return err
	}

	notifier.NotifySuccess(ctx, message)

	return nil
}

func lookupMessage(err error) string {
	switch {
	case lookup.IsNotFound(err):
		return MessageUserNotFound
	case lookup.IsParse(err):
		return MessageInvalidResponse
	default:
		return MessageFetchFailed
	}
}
