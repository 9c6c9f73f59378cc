package invoice

import (
	"context"
	"time"
)

const (
	AttemptSuccess        = "success"
	AttemptFailed         = "failed"
	AttemptPartialSuccess = "partial_success"

	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"

	statusPaid = "Paid"
)

// Credentials for the external accounting system. Resolved per tenant per
// call; never stored in package state.
type Credentials struct {
	OrgID        string
	ClientID     string
	ClientSecret string
	RefreshToken string
}

type LineItem struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"rate_cents"`
}

type CreateInvoiceRequest struct {
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	Currency      string     `json:"currency"`
	LineItems     []LineItem `json:"line_items"`
	Notes         string     `json:"notes"`
}

// Status as reported by the external system. The external system is the
// only source of truth for payment state; we never trust a cached copy.
type Status struct {
	Status       string `json:"status"`
	BalanceCents int64  `json:"balance_cents"`
}

func (s Status) IsPaid() bool {
	return s.Status == statusPaid || s.BalanceCents <= 0
}

// IssueRequest describes one booking or subscription event that may need
// an invoice. Link writes the external id back to the owning row and
// returns the id actually stored there, which wins over the one we just
// created if a concurrent attempt got there first.
type IssueRequest struct {
	Kind                 string // "booking" or "subscription"
	TargetID             int
	ExistingInvoiceID    string
	CustomerName         string
	CustomerEmail        string
	ServiceName          string
	PaidQuantity         int
	UnitPriceCents       int64
	TotalPriceCents      int64
	Currency             string
	PaymentMethod        string
	TransactionReference string

	Link func(ctx context.Context, invoiceID string) (string, error)
}

// Attempt is the reconciliation record of one invoice operation. Kept even
// on success so operators can trace what was sent to the external system.
type Attempt struct {
	ID               int       `db:"id" json:"id"`
	TenantID         int       `db:"tenant_id" json:"tenant_id"`
	Kind             string    `db:"kind" json:"kind"`
	TargetID         int       `db:"target_id" json:"target_id"`
	Status           string    `db:"status" json:"status"`
	InvoiceID        *string   `db:"invoice_id" json:"invoice_id,omitempty"`
	RequestSnapshot  string    `db:"request_snapshot" json:"request_snapshot"`
	ResponseSnapshot string    `db:"response_snapshot" json:"response_snapshot"`
	ErrorDetail      *string   `db:"error_detail" json:"error_detail,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
