package booking

import "time"

const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"

	PaymentMethodOnsite   = "onsite"
	PaymentMethodTransfer = "transfer"
)

// Booking is one reservation of a slot. The three quantity columns always
// satisfy package_covered_quantity + paid_quantity = visitor_count, and
// total_price_cents = paid_quantity * the service's unit price at booking
// time. PackageSubscriptionID is nil when no package units were spent.
type Booking struct {
	ID                     int       `db:"id" json:"id"`
	TenantID               int       `db:"tenant_id" json:"tenant_id"`
	SlotID                 int       `db:"slot_id" json:"slot_id"`
	ServiceID              int       `db:"service_id" json:"service_id"`
	CustomerID             int       `db:"customer_id" json:"customer_id"`
	VisitorCount           int       `db:"visitor_count" json:"visitor_count"`
	PackageCoveredQuantity int       `db:"package_covered_quantity" json:"package_covered_quantity"`
	PaidQuantity           int       `db:"paid_quantity" json:"paid_quantity"`
	TotalPriceCents        int64     `db:"total_price_cents" json:"total_price_cents"`
	PackageSubscriptionID  *int      `db:"package_subscription_id" json:"package_subscription_id,omitempty"`
	InvoiceID              *string   `db:"invoice_id" json:"invoice_id,omitempty"`
	PaymentMethod          string    `db:"payment_method" json:"payment_method"`
	TransactionReference   *string   `db:"transaction_reference" json:"transaction_reference,omitempty"`
	Status                 string    `db:"status" json:"status"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
}

type BookingWithDetails struct {
	Booking
	SlotStartsAt  time.Time `db:"slot_starts_at" json:"slot_starts_at"`
	SlotEndsAt    time.Time `db:"slot_ends_at" json:"slot_ends_at"`
	ServiceName   string    `db:"service_name" json:"service_name"`
	CustomerName  string    `db:"customer_name" json:"customer_name"`
	CustomerEmail string    `db:"customer_email" json:"customer_email"`
}

// CreateBookingRequest is validated once at the boundary; business code
// below it never re-checks shapes.
type CreateBookingRequest struct {
	SlotID               int    `json:"slot_id" binding:"required,min=1"`
	RequestedQty         int    `json:"requested_qty" binding:"required,min=1"`
	SubscriptionID       *int   `json:"subscription_id,omitempty"`
	PaymentMethod        string `json:"payment_method,omitempty" binding:"omitempty,oneof=onsite transfer"`
	TransactionReference string `json:"transaction_reference,omitempty"`
}

// BookSlotResponse reports the reservation result. Invoice and delivery
// outcomes are auxiliary: a failed invoice never undoes the booking, the
// caller just sees invoice_error alongside the created booking.
type BookSlotResponse struct {
	Booking      *Booking   `json:"booking"`
	Allocation   Allocation `json:"allocation"`
	InvoiceID    string     `json:"invoice_id,omitempty"`
	InvoiceError string     `json:"invoice_error,omitempty"`
}
