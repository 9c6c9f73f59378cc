package booking

import (
	"context"
	"database/sql"
	"errors"

	"bookpass/internal/ledger"

	"github.com/jmoiron/sqlx"
)

var (
	ErrSlotNotFound                      = errors.New("slot not found")
	ErrSlotExhausted                     = errors.New("slot does not have enough capacity")
	ErrBookingNotFoundOrAlreadyCancelled = errors.New("booking not found or already cancelled")
)

type repository struct {
	db     *sqlx.DB
	ledger ledger.Repository
}

func NewRepository(db *sqlx.DB, ledgerRepo ledger.Repository) Repository {
	return &repository{db: db, ledger: ledgerRepo}
}

// CreateBooking is the atomic allocation step. Lock order is always slot
// first, then ledger entry, so concurrent bookings against the same
// resources serialize instead of deadlocking. The package/paid split is
// recomputed here under the locks; whatever the caller computed from an
// unlocked read is advisory only. A subscription that went missing or was
// cancelled between the caller's read and this transaction degrades to a
// fully paid booking instead of failing.
func (r *repository) CreateBooking(ctx context.Context, p CreateBookingParams) (*Booking, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var slot struct {
		ID                int `db:"id"`
		ServiceID         int `db:"service_id"`
		AvailableCapacity int `db:"available_capacity"`
	}
	err = tx.QueryRowxContext(ctx,
		`SELECT id, service_id, available_capacity
		 FROM slots
		 WHERE id = $1
		 FOR UPDATE`,
		p.SlotID,
	).StructScan(&slot)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	if slot.AvailableCapacity < p.RequestedQty {
		return nil, ErrSlotExhausted
	}

	remaining := 0
	subscriptionID := p.SubscriptionID
	if subscriptionID != nil {
		entry, err := r.ledger.GetForUpdate(ctx, tx, *subscriptionID, p.ServiceID)
		switch {
		case errors.Is(err, ledger.ErrNoEntry):
			// Not covered, or the subscription was cancelled concurrently.
			subscriptionID = nil
		case err != nil:
			return nil, err
		default:
			remaining = entry.RemainingQuantity
		}
	}

	alloc := Allocate(p.RequestedQty, remaining, p.UnitPriceCents)
	if alloc.Covered == 0 {
		subscriptionID = nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE slots
		 SET available_capacity = available_capacity - $2
		 WHERE id = $1`,
		p.SlotID, p.RequestedQty,
	)
	if err != nil {
		return nil, err
	}

	if subscriptionID != nil && alloc.Covered > 0 {
		if _, err := r.ledger.Decrement(ctx, tx, *subscriptionID, p.ServiceID, alloc.Covered); err != nil {
			return nil, err
		}
	}

	var booking Booking
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO bookings
		 (tenant_id, slot_id, service_id, customer_id, visitor_count,
		  package_covered_quantity, paid_quantity, total_price_cents,
		  package_subscription_id, payment_method, transaction_reference, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'booked')
		 RETURNING id, tenant_id, slot_id, service_id, customer_id, visitor_count,
		           package_covered_quantity, paid_quantity, total_price_cents,
		           package_subscription_id, invoice_id, payment_method,
		           transaction_reference, status, created_at`,
		p.TenantID, p.SlotID, slot.ServiceID, p.CustomerID, p.RequestedQty,
		alloc.Covered, alloc.Paid, alloc.PriceCents,
		subscriptionID, p.PaymentMethod, p.TransactionReference,
	).StructScan(&booking)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) GetBookingByID(ctx context.Context, id int) (*Booking, error) {
	query := `
		SELECT id, tenant_id, slot_id, service_id, customer_id, visitor_count,
		       package_covered_quantity, paid_quantity, total_price_cents,
		       package_subscription_id, invoice_id, payment_method,
		       transaction_reference, status, created_at
		FROM bookings
		WHERE id = $1
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

// CancelBooking frees the slot capacity but deliberately leaves the ledger
// alone: spent package units are not refunded on cancellation.
func (r *repository) CancelBooking(ctx context.Context, id int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var cancelled struct {
		SlotID       int `db:"slot_id"`
		VisitorCount int `db:"visitor_count"`
	}
	err = tx.QueryRowxContext(ctx,
		`UPDATE bookings
		 SET status = 'cancelled'
		 WHERE id = $1 AND status = 'booked'
		 RETURNING slot_id, visitor_count`,
		id,
	).StructScan(&cancelled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFoundOrAlreadyCancelled
		}
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE slots
		 SET available_capacity = available_capacity + $2
		 WHERE id = $1`,
		cancelled.SlotID, cancelled.VisitorCount,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// SetInvoiceID links an external invoice to the booking exactly once. When
// a link already exists the stored id is returned unchanged, so repeated
// invoicing attempts converge on the first invoice.
func (r *repository) SetInvoiceID(ctx context.Context, bookingID int, invoiceID string) (string, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings
		 SET invoice_id = $2
		 WHERE id = $1 AND invoice_id IS NULL`,
		bookingID, invoiceID,
	)
	if err != nil {
		return "", err
	}

	var stored string
	err = r.db.GetContext(ctx, &stored,
		`SELECT invoice_id FROM bookings WHERE id = $1`,
		bookingID,
	)
	if err != nil {
		return "", err
	}

	return stored, nil
}

func (r *repository) GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error) {
	query := `
		SELECT id, tenant_id, slot_id, service_id, customer_id, visitor_count,
		       package_covered_quantity, paid_quantity, total_price_cents,
		       package_subscription_id, invoice_id, payment_method,
		       transaction_reference, status, created_at
		FROM bookings
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	var bookings []Booking
	err := r.db.SelectContext(ctx, &bookings, query, customerID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) GetBookingsBySlot(ctx context.Context, slotID int) ([]BookingWithDetails, error) {
	query := `
		SELECT
			b.id, b.tenant_id, b.slot_id, b.service_id, b.customer_id, b.visitor_count,
			b.package_covered_quantity, b.paid_quantity, b.total_price_cents,
			b.package_subscription_id, b.invoice_id, b.payment_method,
			b.transaction_reference, b.status, b.created_at,
			sl.starts_at AS slot_starts_at,
			sl.ends_at AS slot_ends_at,
			sv.name AS service_name,
			c.name AS customer_name,
			c.email AS customer_email
		FROM bookings b
		JOIN slots sl ON b.slot_id = sl.id
		JOIN services sv ON b.service_id = sv.id
		JOIN customers c ON b.customer_id = c.id
		WHERE b.slot_id = $1
		ORDER BY b.created_at DESC
	`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query, slotID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) GetBookingsByService(ctx context.Context, serviceID int) ([]BookingWithDetails, error) {
	query := `
		SELECT
			b.id, b.tenant_id, b.slot_id, b.service_id, b.customer_id, b.visitor_count,
			b.package_covered_quantity, b.paid_quantity, b.total_price_cents,
			b.package_subscription_id, b.invoice_id, b.payment_method,
			b.transaction_reference, b.status, b.created_at,
			sl.starts_at AS slot_starts_at,
			sl.ends_at AS slot_ends_at,
			sv.name AS service_name,
			c.name AS customer_name,
			c.email AS customer_email
		FROM bookings b
		JOIN slots sl ON b.slot_id = sl.id
		JOIN services sv ON b.service_id = sv.id
		JOIN customers c ON b.customer_id = c.id
		WHERE b.service_id = $1
		ORDER BY sl.starts_at DESC, b.created_at DESC
	`

	var bookings []BookingWithDetails
	err := r.db.SelectContext(ctx, &bookings, query, serviceID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}
