package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Ref(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		expected RecordRef
		ok       bool
	}{
		{
			name:     "webservice id string",
			record:   Record{"related_to": "12x345"},
			expected: RecordRef{ID: "345", Module: "Invoice"},
			ok:       true,
		},
		{
			name:     "object with module",
			record:   Record{"related_to": map[string]any{"id": "345", "module": "SalesOrder"}},
			expected: RecordRef{ID: "345", Module: "SalesOrder"},
			ok:       true,
		},
		{
			name:     "object without module",
			record:   Record{"related_to": map[string]any{"id": float64(345)}},
			expected: RecordRef{ID: "345", Module: "Invoice"},
			ok:       true,
		},
		{
			name:   "prefix without id",
			record: Record{"related_to": "12x"},
		},
		{
			name:   "empty",
			record: Record{"related_to": ""},
		},
		{
			name:   "missing",
			record: Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, ok := tt.record.Ref("related_to", "Invoice")

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, ref)
		})
	}
}

func TestRecord_Bool(t *testing.T) {
	record := Record{"a": "1", "b": "0", "c": true, "d": float64(1), "e": nil}

	assert.True(t, record.Bool("a"))
	assert.False(t, record.Bool("b"))
	assert.True(t, record.Bool("c"))
	assert.True(t, record.Bool("d"))
	assert.False(t, record.Bool("e"))
	assert.False(t, record.Bool("missing"))
}

func TestRecord_Int(t *testing.T) {
	record := Record{"a": "4", "b": float64(2), "c": "4.00", "d": "four", "e": "4.9", "f": float64(3.5)}

	n, ok := record.Int("a")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	n, ok = record.Int("b")
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	n, ok = record.Int("c")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, ok = record.Int("d")
	assert.False(t, ok)

	_, ok = record.Int("e")
	assert.False(t, ok, "fractional counters are not truncated")

	_, ok = record.Int("f")
	assert.False(t, ok)

	_, ok = record.Int("missing")
	assert.False(t, ok)
}

func TestPaymentFromRecord(t *testing.T) {
	toronto, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	payment := PaymentFromRecord(Record{
		"id":                                   "171x5",
		"paymentsno":                           "PAY-5",
		"paymentsstatus":                       "Failure",
		"retrycounter":                         "4",
		"createdtime":                          "2025-06-10 09:30:00",
		"related_to":                           "12x40",
		"cf_payments_internetdisabledbyvtiger": "0",
		"cf_payments_vtapscriptfailed":         "1",
	}, "Payments", "Invoice", toronto)

	assert.Equal(t, "171x5", payment.ID)
	assert.Equal(t, "Payments", payment.Module)
	assert.Equal(t, "PAY-5", payment.Label())
	assert.Equal(t, "Failure", payment.Status)
	assert.Equal(t, 4, payment.RetryCounter)
	assert.True(t, payment.HasRetryCounter)
	assert.Equal(t, time.Date(2025, 6, 10, 9, 30, 0, 0, toronto), payment.CreatedAt)
	assert.Equal(t, RecordRef{ID: "40", Module: "Invoice"}, payment.RelatedInvoice)
	assert.False(t, payment.InternetDisabledByPlatform)
	assert.True(t, payment.ScriptFailed)
}

func TestPaymentFromRecord_RecordModuleWins(t *testing.T) {
	payment := PaymentFromRecord(Record{"id": "5", "record_module": "PaymentsCustom"}, "Payments", "Invoice", nil)

	assert.Equal(t, "PaymentsCustom", payment.Module)
	assert.Equal(t, "5", payment.Label())
	assert.False(t, payment.HasRetryCounter)
}

func TestInvoiceAndDealFromRecord(t *testing.T) {
	invoice := InvoiceFromRecord(Record{"id": "40", "potential_id": map[string]any{"id": "77"}}, "Potentials")
	assert.Equal(t, RecordRef{ID: "77", Module: "Potentials"}, invoice.Deal)

	deal := DealFromRecord(Record{"id": "77", "cf_potentials_pppoeusername": "jdoe123", "sales_stage": "Closed Won"}, "Potentials")
	assert.Equal(t, "jdoe123", deal.PPPoEUsername)
	assert.Equal(t, "Closed Won", deal.SalesStage)
}

func TestFilter_Query(t *testing.T) {
	filter := Filter{ListID: 171}.And(
		Equal(FieldPaymentStatus, "Failure"),
		Equal(FieldRetryCounter, "4"),
		LastMonth(FieldCreatedTime),
		EqualFlag(FieldInternetDisabledByPlatform, false),
	)

	query, err := filter.Query()
	require.NoError(t, err)

	assert.JSONEq(t, `[[
		["paymentsstatus","equal",["Failure"]],
		["retrycounter","equal",["4"]],
		["createdtime","lastmonth",""],
		["cf_payments_internetdisabledbyvtiger","equal",0]
	]]`, query)
}

func TestFilter_QueryRejectsIncompleteCondition(t *testing.T) {
	_, err := Filter{Conditions: []Condition{{Field: "x"}}}.Query()

	assert.Error(t, err)
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "5", RecordID("171x5"))
	assert.Equal(t, "5", RecordID("5"))
}
