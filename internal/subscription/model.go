package subscription

import "time"

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"

	PaymentMethodOnsite   = "onsite"
	PaymentMethodTransfer = "transfer"

	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Package is a prepaid bundle of service units sold at a fixed price.
type Package struct {
	ID         int       `db:"id" json:"id"`
	TenantID   int       `db:"tenant_id" json:"tenant_id"`
	Name       string    `db:"name" json:"name"`
	PriceCents int64     `db:"price_cents" json:"price_cents"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PackageItem is one covered service and the number of prepaid units.
type PackageItem struct {
	ID        int `db:"id" json:"id"`
	PackageID int `db:"package_id" json:"package_id"`
	ServiceID int `db:"service_id" json:"service_id"`
	Quantity  int `db:"quantity" json:"quantity"`
}

// PackageSubscription is one customer's purchase of a package. InvoiceID
// is written at most once for the lifetime of the row; cancellation is
// terminal and never touches the ledger.
type PackageSubscription struct {
	ID                   int       `db:"id" json:"id"`
	TenantID             int       `db:"tenant_id" json:"tenant_id"`
	CustomerID           int       `db:"customer_id" json:"customer_id"`
	PackageID            int       `db:"package_id" json:"package_id"`
	PaymentStatus        string    `db:"payment_status" json:"payment_status"`
	PaymentMethod        string    `db:"payment_method" json:"payment_method"`
	TransactionReference *string   `db:"transaction_reference" json:"transaction_reference,omitempty"`
	InvoiceID            *string   `db:"invoice_id" json:"invoice_id,omitempty"`
	Status               string    `db:"status" json:"status"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

type PurchaseRequest struct {
	PackageID            int    `json:"package_id" binding:"required,min=1"`
	PaymentMethod        string `json:"payment_method" binding:"required,oneof=onsite transfer"`
	TransactionReference string `json:"transaction_reference,omitempty"`
}

type PurchaseResponse struct {
	Subscription *PackageSubscription `json:"subscription"`
	InvoiceID    string               `json:"invoice_id,omitempty"`
	InvoiceError string               `json:"invoice_error,omitempty"`
}
