package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookpass/internal/logger"
	"bookpass/internal/metrics"
	"bookpass/internal/retry"
	"bookpass/internal/tenant"
)

var (
	// ErrNotPaid carries the exact wording surfaced to callers when
	// delivery is refused. The check runs against the external system at
	// send time, every time.
	ErrNotPaid = errors.New("Invoice cannot be sent because payment has not been completed.")

	// ErrLinkingFailure means the invoice exists externally but the local
	// write-back failed. The attempt log has the external id.
	ErrLinkingFailure = errors.New("invoice created but could not be linked locally")
)

// Orchestrator decides when an invoice is created and when it may be
// delivered. It runs strictly after the booking transaction has committed.
type Orchestrator struct {
	client    Client
	documents DocumentSender
	attempts  AttemptRepository

	retryAttempts int
	retryBase     time.Duration
}

func NewOrchestrator(client Client, documents DocumentSender, attempts AttemptRepository, retryAttempts int, retryBase time.Duration) *Orchestrator {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Orchestrator{
		client:        client,
		documents:     documents,
		attempts:      attempts,
		retryAttempts: retryAttempts,
		retryBase:     retryBase,
	}
}

func credentialsFor(t *tenant.Tenant) Credentials {
	return Credentials{
		OrgID:        t.ZohoOrgID,
		ClientID:     t.ZohoClientID,
		ClientSecret: t.ZohoClientSecret,
		RefreshToken: t.ZohoRefreshToken,
	}
}

func paymentNotes(method, reference string) string {
	switch method {
	case "transfer":
		return "Paid by bank transfer, reference: " + reference
	case "onsite":
		return "Paid on site"
	default:
		return ""
	}
}

// MaybeIssue creates an invoice for the paid portion of an event, or
// reports that none is needed. The rules, in order:
//
//   - paid_quantity = 0 or total = 0: success with an empty id. The
//     external system never sees a zero-amount invoice.
//   - an invoice id already exists on the row: returned as-is, no call.
//   - otherwise one invoice is created whose single line item carries
//     exactly the paid quantity at the unchanged unit price.
//
// A created-but-unlinked invoice is returned together with
// ErrLinkingFailure and logged as partial_success for reconciliation.
func (o *Orchestrator) MaybeIssue(ctx context.Context, t *tenant.Tenant, req IssueRequest) (string, error) {
	if req.PaidQuantity <= 0 || req.TotalPriceCents <= 0 {
		return "", nil
	}

	if req.ExistingInvoiceID != "" {
		return req.ExistingInvoiceID, nil
	}

	if !t.HasInvoicing() {
		return "", fmt.Errorf("tenant %d has no invoicing credentials", t.ID)
	}

	createReq := CreateInvoiceRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Currency:      req.Currency,
		LineItems: []LineItem{{
			Name:           req.ServiceName,
			Quantity:       req.PaidQuantity,
			UnitPriceCents: req.UnitPriceCents,
		}},
		Notes: paymentNotes(req.PaymentMethod, req.TransactionReference),
	}
	snapshot, _ := json.Marshal(createReq)

	creds := credentialsFor(t)

	var invoiceID string
	err := retry.Do(ctx, o.retryAttempts, o.retryBase, func(ctx context.Context) error {
		var err error
		invoiceID, err = o.client.CreateInvoice(ctx, creds, createReq)
		return err
	})
	if err != nil {
		detail := err.Error()
		o.attempts.Record(ctx, Attempt{
			TenantID:        t.ID,
			Kind:            req.Kind,
			TargetID:        req.TargetID,
			Status:          AttemptFailed,
			RequestSnapshot: string(snapshot),
			ErrorDetail:     &detail,
		})
		metrics.RecordInvoice(AttemptFailed)
		return "", fmt.Errorf("invoice creation failed: %w", err)
	}

	if req.Link != nil {
		stored, linkErr := req.Link(ctx, invoiceID)
		if linkErr != nil {
			detail := linkErr.Error()
			o.attempts.Record(ctx, Attempt{
				TenantID:         t.ID,
				Kind:             req.Kind,
				TargetID:         req.TargetID,
				Status:           AttemptPartialSuccess,
				InvoiceID:        &invoiceID,
				RequestSnapshot:  string(snapshot),
				ResponseSnapshot: fmt.Sprintf(`{"invoice_id":%q}`, invoiceID),
				ErrorDetail:      &detail,
			})
			metrics.RecordInvoice(AttemptPartialSuccess)
			logger.Errorf("Invoice %s created for %s %d but write-back failed: %v", invoiceID, req.Kind, req.TargetID, linkErr)
			return invoiceID, fmt.Errorf("%w: %s", ErrLinkingFailure, invoiceID)
		}
		if stored != "" && stored != invoiceID {
			// A concurrent attempt linked first; its invoice wins.
			logger.Infof("Invoice %s for %s %d superseded by existing %s", invoiceID, req.Kind, req.TargetID, stored)
			invoiceID = stored
		}
	}

	o.attempts.Record(ctx, Attempt{
		TenantID:         t.ID,
		Kind:             req.Kind,
		TargetID:         req.TargetID,
		Status:           AttemptSuccess,
		InvoiceID:        &invoiceID,
		RequestSnapshot:  string(snapshot),
		ResponseSnapshot: fmt.Sprintf(`{"invoice_id":%q}`, invoiceID),
	})
	metrics.RecordInvoice(AttemptSuccess)

	return invoiceID, nil
}

// Deliver sends an existing invoice through one channel, but only after
// the external system confirms it is paid. The status is re-fetched on
// every call; a locally cached "paid" flag is never good enough.
func (o *Orchestrator) Deliver(ctx context.Context, t *tenant.Tenant, invoiceID, channel, recipient string) error {
	creds := credentialsFor(t)

	status, err := o.client.GetInvoiceStatus(ctx, creds, invoiceID)
	if err != nil {
		metrics.RecordInvoiceDelivery(channel, "status_check_failed")
		return fmt.Errorf("could not verify invoice status: %w", err)
	}

	if !status.IsPaid() {
		metrics.RecordInvoiceDelivery(channel, "refused_unpaid")
		return ErrNotPaid
	}

	var send func(ctx context.Context) error
	switch channel {
	case ChannelEmail:
		send = func(ctx context.Context) error {
			return o.client.SendInvoiceEmail(ctx, creds, invoiceID, recipient)
		}
	case ChannelWhatsApp:
		if t.WhatsAppPhoneID == "" || t.WhatsAppToken == "" {
			metrics.RecordInvoiceDelivery(channel, AttemptFailed)
			return fmt.Errorf("tenant %d has no WhatsApp credentials", t.ID)
		}
		docURL, err := o.client.InvoiceURL(ctx, creds, invoiceID)
		if err != nil {
			metrics.RecordInvoiceDelivery(channel, AttemptFailed)
			return fmt.Errorf("could not resolve invoice document: %w", err)
		}
		send = func(ctx context.Context) error {
			return o.documents.SendDocument(ctx, t.WhatsAppPhoneID, t.WhatsAppToken, recipient, docURL, "Your invoice")
		}
	default:
		return fmt.Errorf("unknown delivery channel %q", channel)
	}

	if err := retry.Do(ctx, o.retryAttempts, o.retryBase, send); err != nil {
		metrics.RecordInvoiceDelivery(channel, AttemptFailed)
		return fmt.Errorf("invoice delivery failed: %w", err)
	}

	metrics.RecordInvoiceDelivery(channel, AttemptSuccess)
	return nil
}
