package disconnect

import (
	"context"

	"github.com/netwirefiber/autodisconnect/pkg/models"
)

// Reasons a run ends flagged.
const (
	ReasonMissingInvoiceLink = "missing invoice link"
	ReasonInvoiceFetchFailed = "invoice fetch failed"
	ReasonInvoiceWithoutDeal = "invoice not linked to deal"
	ReasonDealFetchFailed    = "deal fetch failed"
	ReasonMissingUsername    = "missing pppoe username"
	ReasonLookupFailed       = "pppoe lookup failed"
	ReasonDisableFailed      = "disable call failed"
	ReasonStageUpdateFailed  = "stage update failed"
	ReasonPaymentMarkFailed  = "payment mark failed"
)

type step struct {
	name string
	// reached is the run state once the step succeeds.
	reached models.RunState
	fn      func(ctx context.Context, run *Run) error
}

func (w *Workflow) pipeline() []step {
	return []step{
		{name: "resolve_invoice", reached: models.RunStateInvoiceResolved, fn: w.resolveInvoice},
		{name: "resolve_deal", reached: models.RunStateDealResolved, fn: w.resolveDeal},
		{name: "resolve_username", reached: models.RunStateUsernameResolved, fn: w.resolveUsername},
		{name: "resolve_pppoe_id", reached: models.RunStatePPPoEIDResolved, fn: w.resolveAccount},
		{name: "disable_access", reached: models.RunStateAccessDisabled, fn: w.disableAccess},
		{name: "update_stage", reached: models.RunStateStageUpdated, fn: w.updateStage},
		{name: "mark_payment", reached: models.RunStatePaymentMarked, fn: w.markPayment},
	}
}

func (w *Workflow) resolveInvoice(ctx context.Context, run *Run) error {
	ref := run.Payment.RelatedInvoice
	if ref.IsZero() {
		return fail(ReasonMissingInvoiceLink, "Missing invoice related to the payment.", nil)
	}

	record, err := w.client.GetRecord(ctx, ref.Module, ref.ID)
	if err != nil {
		return fail(ReasonInvoiceFetchFailed, "Failed to fetch invoice related to the payment.", err)
	}

	run.Invoice = models.InvoiceFromRecord(record, w.config.DealModule)
	if run.Invoice.ID == "" {
		run.Invoice.ID = ref.ID
	}

	run.log("Invoice " + run.Invoice.ID + " found.")

	return nil
}

func (w *Workflow) resolveDeal(ctx context.Context, run *Run) error {
	ref := run.Invoice.Deal
	if ref.IsZero() {
		return fail(ReasonInvoiceWithoutDeal, "Invoice is not linked to a deal.", nil)
	}

	record, err := w.client.GetRecord(ctx, ref.Module, ref.ID)
	if err != nil {
		return fail(ReasonDealFetchFailed, "Failed to fetch deal related to the invoice of the payment.", err)
	}

	run.Deal = models.DealFromRecord(record, ref.Module)
	run.Deal.ID = ref.ID

	run.log("Deal " + run.Deal.ID + " found.")

	return nil
}

func (w *Workflow) resolveUsername(_ context.Context, run *Run) error {
	if run.Deal.PPPoEUsername == "" {
		return fail(ReasonMissingUsername, "PPPoE username field is missing from the deal.", nil)
	}

	run.log("PPPoE username: " + run.Deal.PPPoEUsername)

	return nil
}

func (w *Workflow) resolveAccount(ctx context.Context, run *Run) error {
	account, err := w.client.FindPPPoEAccount(ctx, run.Deal.PPPoEUsername)
	if err != nil {
		return fail(ReasonLookupFailed, "PPPoE lookup failed on router API.", err)
	}

	run.Account = account
	run.log("PPPoE ID found: " + account.ID)

	return nil
}

func (w *Workflow) disableAccess(ctx context.Context, run *Run) error {
	err := w.client.SetPPPoEAccountEnabled(ctx, run.Account.ID, false)
	if err != nil {
		return fail(ReasonDisableFailed, "Failed to disable PPPoE user on radius server.", err)
	}

	run.log("PPPoE user disabled on radius server.")

	return nil
}

func (w *Workflow) updateStage(ctx context.Context, run *Run) error {
	err := w.client.PutRecord(ctx, run.Deal.Module, run.Deal.ID, map[string]any{
		models.FieldSalesStage: w.config.DisconnectionStage,
	})
	if err != nil {
		return fail(ReasonStageUpdateFailed, "Failed to update deal stage to '"+w.config.DisconnectionStage+"'.", err)
	}

	run.Deal.SalesStage = w.config.DisconnectionStage
	run.log("Deal sales stage updated to '" + w.config.DisconnectionStage + "'.")

	return nil
}

func (w *Workflow) markPayment(ctx context.Context, run *Run) error {
	err := w.client.PutRecord(ctx, run.Payment.Module, run.Payment.ID, map[string]any{
		models.FieldInternetDisabledByPlatform: models.BoolString(true),
	})
	if err != nil {
		return fail(ReasonPaymentMarkFailed, "Failed to mark payment as internet disabled.", err)
	}

	run.Payment.InternetDisabledByPlatform = true
	run.log("Payment marked as internet disabled.")

	return nil
}
