package models

import (
	"time"
)

// CRM field names.
const (
	FieldPaymentNumber              = "paymentsno"
	FieldPaymentStatus              = "paymentsstatus"
	FieldRetryCounter               = "retrycounter"
	FieldCreatedTime                = "createdtime"
	FieldRelatedTo                  = "related_to"
	FieldInternetDisabledByPlatform = "cf_payments_internetdisabledbyvtiger"
	FieldScriptFailed               = "cf_payments_vtapscriptfailed"
	FieldScriptLogs                 = "cf_payments_scriptlogs"
	FieldRecordModule               = "record_module"

	FieldInvoiceDeal = "potential_id"

	FieldPPPoEUsername        = "cf_potentials_pppoeusername"
	FieldSalesStage           = "sales_stage"
	FieldInternetAccessStatus = "cf_potentials_internetaccessstatus"
)

// CreatedTimeLayout is the layout of createdtime values.
const CreatedTimeLayout = "2006-01-02 15:04:05"

type Payment struct {
	ID                         string    `json:"id"`
	Module                     string    `json:"module"`
	Number                     string    `json:"number"`
	Status                     string    `json:"status"`
	RetryCounter               int       `json:"retry_counter"`
	HasRetryCounter            bool      `json:"-"`
	CreatedAt                  time.Time `json:"created_at"`
	RelatedInvoice             RecordRef `json:"related_invoice"`
	InternetDisabledByPlatform bool      `json:"internet_disabled_by_platform"`
	ScriptFailed               bool      `json:"script_failed"`
	ScriptLogs                 string    `json:"script_logs,omitempty"`
}

// Label identifies the payment in log lines and notifications.
func (p Payment) Label() string {
	if p.Number != "" {
		return p.Number
	}

	return p.ID
}

type Invoice struct {
	ID   string    `json:"id"`
	Deal RecordRef `json:"deal"`
}

type Deal struct {
	ID                   string `json:"id"`
	Module               string `json:"module"`
	PPPoEUsername        string `json:"pppoe_username"`
	SalesStage           string `json:"sales_stage"`
	InternetAccessStatus string `json:"internet_access_status"`
}

// PPPoEAccount is a subscriber account on the router management system.
type PPPoEAccount struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Disabled bool   `json:"disabled"`
}

// PaymentFromRecord maps a payment record. createdtime values without a zone
// are read in location. invoiceModule is used when related_to has no module.
func PaymentFromRecord(record Record, module, invoiceModule string, location *time.Location) Payment {
	if location == nil {
		location = time.UTC
	}

	payment := Payment{
		ID:                         record.String("id"),
		Module:                     module,
		Number:                     record.String(FieldPaymentNumber),
		Status:                     record.String(FieldPaymentStatus),
		InternetDisabledByPlatform: record.Bool(FieldInternetDisabledByPlatform),
		ScriptFailed:               record.Bool(FieldScriptFailed),
		ScriptLogs:                 record.String(FieldScriptLogs),
	}

	if recordModule := record.String(FieldRecordModule); recordModule != "" {
		payment.Module = recordModule
	}

	payment.RetryCounter, payment.HasRetryCounter = record.Int(FieldRetryCounter)

	if created := record.String(FieldCreatedTime); created != "" {
		if t, err := time.ParseInLocation(CreatedTimeLayout, created, location); err == nil {
			payment.CreatedAt = t
		} else if t, err := time.Parse(time.RFC3339, created); err == nil {
			payment.CreatedAt = t
		}
	}

	if ref, ok := record.Ref(FieldRelatedTo, invoiceModule); ok {
		payment.RelatedInvoice = ref
	}

	return payment
}

func InvoiceFromRecord(record Record, dealModule string) Invoice {
	invoice := Invoice{ID: record.String("id")}

	if ref, ok := record.Ref(FieldInvoiceDeal, dealModule); ok {
		invoice.Deal = ref
	}

	return invoice
}

func DealFromRecord(record Record, module string) Deal {
	return Deal{
		ID:                   record.String("id"),
		Module:               module,
		PPPoEUsername:        record.String(FieldPPPoEUsername),
		SalesStage:           record.String(FieldSalesStage),
		InternetAccessStatus: record.String(FieldInternetAccessStatus),
	}
}
