package disconnect

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/netwirefiber/autodisconnect/pkg/log"
	"github.com/netwirefiber/autodisconnect/pkg/models"
)

const (
	DefaultRetryThreshold     = 4
	DefaultSettledStatus      = "Success"
	DefaultFailureStatus      = "Failure"
	DefaultDisconnectionStage = "Non Payment Internet Disconnection"
	DefaultPaymentsModule     = "Payments"
	DefaultInvoiceModule      = "Invoice"
	DefaultDealModule         = "Potentials"
	DefaultFilterID           = 171
)

// Config parameterises the workflow. One Config serves every trigger.
type Config struct {
	// RetryThreshold is the retry counter value at which a payment is disconnected.
	RetryThreshold int `validate:"gte=1"`

	// CreatedAfter excludes payments created on or before the instant.
	CreatedAfter time.Time `validate:"required"`

	// SettledStatus skips payments already in this status. Empty disables the check.
	SettledStatus string

	FailureStatus      string `validate:"required"`
	DisconnectionStage string `validate:"required"`
	PaymentsModule     string `validate:"required"`
	InvoiceModule      string `validate:"required"`
	DealModule         string `validate:"required"`
	TimeZone           string `validate:"required"`

	// FilterID is the saved list view batch queries are scoped to. Zero means none.
	FilterID int `validate:"gte=0"`
}

func DefaultConfig() Config {
	location := log.LoadLocation(log.DefaultTimeZone)

	return Config{
		RetryThreshold:     DefaultRetryThreshold,
		CreatedAfter:       time.Date(2025, time.May, 28, 23, 59, 59, 0, location),
		SettledStatus:      DefaultSettledStatus,
		FailureStatus:      DefaultFailureStatus,
		DisconnectionStage: DefaultDisconnectionStage,
		PaymentsModule:     DefaultPaymentsModule,
		InvoiceModule:      DefaultInvoiceModule,
		DealModule:         DefaultDealModule,
		TimeZone:           log.DefaultTimeZone,
		FilterID:           DefaultFilterID,
	}
}

func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err != nil {
		return fmt.Errorf("invalid disconnection config: %w", err)
	}

	return nil
}

// Location is the zone journal timestamps and createdtime values are read in.
func (c Config) Location() *time.Location {
	return log.LoadLocation(c.TimeZone)
}

// BatchFilter selects last month's failed payments at the threshold that were
// neither disconnected nor flagged yet.
func (c Config) BatchFilter() models.Filter {
	return models.Filter{ListID: c.FilterID}.And(
		models.Equal(models.FieldPaymentStatus, c.FailureStatus),
		models.Equal(models.FieldRetryCounter, fmt.Sprint(c.RetryThreshold)),
		models.LastMonth(models.FieldCreatedTime),
		models.EqualFlag(models.FieldInternetDisabledByPlatform, false),
		models.EqualFlag(models.FieldScriptFailed, false),
	)
}

// ParseCutoff reads a cutoff given as RFC 3339 or as "2006-01-02 15:04:05"
// in the configured zone.
func (c Config) ParseCutoff(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	t, err := time.ParseInLocation(models.CreatedTimeLayout, value, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cutoff %q: %w", value, err)
	}

	return t, nil
}
