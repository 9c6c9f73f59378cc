package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookpass/internal/catalog"
	"bookpass/internal/customer"
	"bookpass/internal/invoice"
	"bookpass/internal/ledger"
	"bookpass/internal/logger"
	"bookpass/internal/metrics"
	"bookpass/internal/tenant"
)

var (
	ErrInvalidQuantity          = errors.New("requested quantity must be positive")
	ErrMissingTransferReference = errors.New("transaction reference is required for transfer payments")
	ErrSlotInPast               = errors.New("cannot book a slot in the past")
	ErrBookingNotFound          = errors.New("booking not found")
	ErrSubscriptionNotOwned     = errors.New("subscription does not belong to this customer")
)

// Invoicer is the slice of the invoice orchestrator the booking flow uses.
type Invoicer interface {
	MaybeIssue(ctx context.Context, t *tenant.Tenant, req invoice.IssueRequest) (string, error)
}

// Mailer enqueues the booking confirmation; failures are logged only.
type Mailer interface {
	SendBookingConfirmation(ctx context.Context, email, name, serviceName string, when time.Time, visitors, covered, paid int) error
	SendCancellation(ctx context.Context, email, name, serviceName string) error
}

// SubscriptionReader checks ownership of a subscription used for a booking.
type SubscriptionReader interface {
	OwnerOf(ctx context.Context, subscriptionID int) (customerID int, err error)
}

type Service interface {
	BookSlot(ctx context.Context, tenantID, customerID int, req CreateBookingRequest) (*BookSlotResponse, error)
	CancelBooking(ctx context.Context, customerID, bookingID int) error
	GetBooking(ctx context.Context, customerID, bookingID int) (*Booking, error)
	GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error)
	GetBookingsBySlot(ctx context.Context, slotID int) ([]BookingWithDetails, error)
	GetBookingsByService(ctx context.Context, serviceID int) ([]BookingWithDetails, error)
	PreviewAllocation(ctx context.Context, subscriptionID, serviceID, requestedQty int, unitPriceCents int64) Allocation
}

type service struct {
	repo            Repository
	catalogRepo     catalog.Repository
	ledgerRepo      ledger.Repository
	customerRepo    customer.Repository
	tenantRepo      tenant.Repository
	subscriptions   SubscriptionReader
	invoicer        Invoicer
	mailer          Mailer
	defaultCurrency string
	txTimeout       time.Duration
}

func NewService(
	repo Repository,
	catalogRepo catalog.Repository,
	ledgerRepo ledger.Repository,
	customerRepo customer.Repository,
	tenantRepo tenant.Repository,
	subscriptions SubscriptionReader,
	invoicer Invoicer,
	mailer Mailer,
	defaultCurrency string,
	txTimeout time.Duration,
) Service {
	return &service{
		repo:            repo,
		catalogRepo:     catalogRepo,
		ledgerRepo:      ledgerRepo,
		customerRepo:    customerRepo,
		tenantRepo:      tenantRepo,
		subscriptions:   subscriptions,
		invoicer:        invoicer,
		mailer:          mailer,
		defaultCurrency: defaultCurrency,
		txTimeout:       txTimeout,
	}
}

// BookSlot reserves units of a slot, spending package balance first. The
// reservation itself lives or dies with the database transaction; the
// invoice and the confirmation email run after the commit and report their
// problems as auxiliary fields, never as a failed booking.
func (s *service) BookSlot(ctx context.Context, tenantID, customerID int, req CreateBookingRequest) (*BookSlotResponse, error) {
	if req.RequestedQty <= 0 {
		return nil, ErrInvalidQuantity
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = PaymentMethodOnsite
	}
	var transactionReference *string
	if paymentMethod == PaymentMethodTransfer {
		if req.TransactionReference == "" {
			return nil, ErrMissingTransferReference
		}
		transactionReference = &req.TransactionReference
	}

	slot, err := s.catalogRepo.GetSlotByID(ctx, req.SlotID)
	if err != nil {
		return nil, ErrSlotNotFound
	}

	if slot.StartsAt.Before(time.Now()) {
		return nil, ErrSlotInPast
	}

	// Unlocked fast path; the transaction re-checks under the row lock.
	if slot.AvailableCapacity < req.RequestedQty {
		return nil, ErrSlotExhausted
	}

	svc, err := s.catalogRepo.GetServiceByID(ctx, slot.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.TenantID != tenantID {
		return nil, ErrSlotNotFound
	}

	subscriptionID := req.SubscriptionID
	if subscriptionID != nil {
		owner, err := s.subscriptions.OwnerOf(ctx, *subscriptionID)
		if err != nil {
			// Missing subscription degrades to a fully paid booking.
			logger.Infof("Subscription %d not usable for booking: %v", *subscriptionID, err)
			subscriptionID = nil
		} else if owner != customerID {
			return nil, ErrSubscriptionNotOwned
		}
	}

	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	booking, err := s.repo.CreateBooking(txCtx, CreateBookingParams{
		TenantID:             tenantID,
		CustomerID:           customerID,
		SlotID:               slot.ID,
		ServiceID:            slot.ServiceID,
		RequestedQty:         req.RequestedQty,
		SubscriptionID:       subscriptionID,
		UnitPriceCents:       svc.UnitPriceCents,
		PaymentMethod:        paymentMethod,
		TransactionReference: transactionReference,
	})
	if err != nil {
		metrics.RecordBooking("rejected", "none")
		return nil, err
	}

	alloc := Allocation{
		Covered:    booking.PackageCoveredQuantity,
		Paid:       booking.PaidQuantity,
		PriceCents: booking.TotalPriceCents,
	}
	metrics.RecordBooking("created", alloc.Coverage())
	if alloc.Covered > 0 {
		metrics.RecordLedgerDecrement()
	}

	resp := &BookSlotResponse{
		Booking:    booking,
		Allocation: alloc,
	}

	cust, custErr := s.customerRepo.FindByID(ctx, customerID)

	invoiceID, invErr := s.issueInvoice(ctx, booking, svc, cust, paymentMethod, req.TransactionReference)
	if invErr != nil {
		logger.Errorf("Invoice for booking %d failed: %v", booking.ID, invErr)
		resp.InvoiceError = invErr.Error()
	} else {
		resp.InvoiceID = invoiceID
	}

	if custErr == nil && cust != nil {
		if err := s.mailer.SendBookingConfirmation(ctx, cust.Email, cust.Name, svc.Name,
			slot.StartsAt, booking.VisitorCount, alloc.Covered, alloc.Paid); err != nil {
			logger.Errorf("Confirmation email for booking %d failed: %v", booking.ID, err)
		}
	}

	return resp, nil
}

func (s *service) issueInvoice(ctx context.Context, b *Booking, svc *catalog.Service, cust *customer.Customer, paymentMethod, transactionReference string) (string, error) {
	if b.PaidQuantity <= 0 || b.TotalPriceCents <= 0 {
		return "", nil
	}

	t, err := s.tenantRepo.GetByID(ctx, b.TenantID)
	if err != nil {
		return "", fmt.Errorf("tenant lookup failed: %w", err)
	}
	if !t.HasInvoicing() {
		return "", nil
	}

	var custName, custEmail string
	if cust != nil {
		custName = cust.Name
		custEmail = cust.Email
	}

	currency := t.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	var existing string
	if b.InvoiceID != nil {
		existing = *b.InvoiceID
	}

	return s.invoicer.MaybeIssue(ctx, t, invoice.IssueRequest{
		Kind:                 "booking",
		TargetID:             b.ID,
		ExistingInvoiceID:    existing,
		CustomerName:         custName,
		CustomerEmail:        custEmail,
		ServiceName:          svc.Name,
		PaidQuantity:         b.PaidQuantity,
		UnitPriceCents:       svc.UnitPriceCents,
		TotalPriceCents:      b.TotalPriceCents,
		Currency:             currency,
		PaymentMethod:        paymentMethod,
		TransactionReference: transactionReference,
		Link: func(ctx context.Context, invoiceID string) (string, error) {
			return s.repo.SetInvoiceID(ctx, b.ID, invoiceID)
		},
	})
}

func (s *service) CancelBooking(ctx context.Context, customerID, bookingID int) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return ErrBookingNotFound
	}

	if booking.CustomerID != customerID {
		return errors.New("unauthorized: can only cancel own bookings")
	}

	if err := s.repo.CancelBooking(ctx, bookingID); err != nil {
		if errors.Is(err, ErrBookingNotFoundOrAlreadyCancelled) {
			return ErrBookingNotFound
		}
		return err
	}

	if cust, err := s.customerRepo.FindByID(ctx, customerID); err == nil && cust != nil {
		if svc, err := s.catalogRepo.GetServiceByID(ctx, booking.ServiceID); err == nil {
			if err := s.mailer.SendCancellation(ctx, cust.Email, cust.Name, svc.Name); err != nil {
				logger.Errorf("Cancellation email for booking %d failed: %v", bookingID, err)
			}
		}
	}

	return nil
}

func (s *service) GetBooking(ctx context.Context, customerID, bookingID int) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, ErrBookingNotFound
	}

	if booking.CustomerID != customerID {
		return nil, ErrBookingNotFound
	}

	return booking, nil
}

func (s *service) GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error) {
	return s.repo.GetCustomerBookings(ctx, customerID)
}

func (s *service) GetBookingsBySlot(ctx context.Context, slotID int) ([]BookingWithDetails, error) {
	return s.repo.GetBookingsBySlot(ctx, slotID)
}

func (s *service) GetBookingsByService(ctx context.Context, serviceID int) ([]BookingWithDetails, error) {
	return s.repo.GetBookingsByService(ctx, serviceID)
}

// PreviewAllocation shows the split a booking would get right now. Purely
// advisory: the committed split is whatever the transaction recomputes.
func (s *service) PreviewAllocation(ctx context.Context, subscriptionID, serviceID, requestedQty int, unitPriceCents int64) Allocation {
	remaining := 0
	if balance, err := s.ledgerRepo.GetBalance(ctx, subscriptionID, serviceID); err == nil {
		remaining = balance.Remaining
	}
	return Allocate(requestedQty, remaining, unitPriceCents)
}
