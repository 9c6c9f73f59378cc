package booking

import "context"

// CreateBookingParams is the resolved input of the booking transaction.
// UnitPriceCents comes from the service row, looked up once by the caller.
type CreateBookingParams struct {
	TenantID             int
	CustomerID           int
	SlotID               int
	ServiceID            int
	RequestedQty         int
	SubscriptionID       *int
	UnitPriceCents       int64
	PaymentMethod        string
	TransactionReference *string
}

type Repository interface {
	// CreateBooking runs the whole allocation inside one transaction: it
	// locks the slot row, re-checks capacity, locks the ledger entry,
	// recomputes the package/paid split and persists the booking. See
	// repository.go for the exact locking order.
	CreateBooking(ctx context.Context, p CreateBookingParams) (*Booking, error)

	GetBookingByID(ctx context.Context, id int) (*Booking, error)
	CancelBooking(ctx context.Context, id int) error
	SetInvoiceID(ctx context.Context, bookingID int, invoiceID string) (string, error)
	GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error)
	GetBookingsBySlot(ctx context.Context, slotID int) ([]BookingWithDetails, error)
	GetBookingsByService(ctx context.Context, serviceID int) ([]BookingWithDetails, error)
}
