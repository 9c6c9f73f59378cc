package booking

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"bookpass/internal/catalog"
	"bookpass/internal/customer"
	"bookpass/internal/invoice"
	"bookpass/internal/ledger"
	"bookpass/internal/logger"
	"bookpass/internal/tenant"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

// Mock repositories
type MockBookingRepo struct{ mock.Mock }
type MockCatalogRepo struct{ mock.Mock }
type MockLedgerRepo struct{ mock.Mock }
type MockCustomerRepo struct{ mock.Mock }
type MockTenantRepo struct{ mock.Mock }
type MockSubscriptionReader struct{ mock.Mock }
type MockInvoicer struct{ mock.Mock }
type MockMailer struct{ mock.Mock }

func (m *MockBookingRepo) CreateBooking(ctx context.Context, p CreateBookingParams) (*Booking, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) GetBookingByID(ctx context.Context, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) CancelBooking(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookingRepo) SetInvoiceID(ctx context.Context, bookingID int, invoiceID string) (string, error) {
	args := m.Called(ctx, bookingID, invoiceID)
	return args.String(0), args.Error(1)
}

func (m *MockBookingRepo) GetCustomerBookings(ctx context.Context, customerID int) ([]Booking, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockBookingRepo) GetBookingsBySlot(ctx context.Context, slotID int) ([]BookingWithDetails, error) {
	args := m.Called(ctx, slotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithDetails), args.Error(1)
}

func (m *MockBookingRepo) GetBookingsByService(ctx context.Context, serviceID int) ([]BookingWithDetails, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithDetails), args.Error(1)
}

func (m *MockCatalogRepo) CreateService(ctx context.Context, tenantID int, name string, unitPriceCents int64) (*catalog.Service, error) {
	args := m.Called(ctx, tenantID, name, unitPriceCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Service), args.Error(1)
}

func (m *MockCatalogRepo) GetServiceByID(ctx context.Context, id int) (*catalog.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Service), args.Error(1)
}

func (m *MockCatalogRepo) ListServices(ctx context.Context, tenantID int) ([]catalog.Service, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Service), args.Error(1)
}

func (m *MockCatalogRepo) CreateSlot(ctx context.Context, serviceID int, startsAt, endsAt time.Time, capacity int) (*catalog.Slot, error) {
	args := m.Called(ctx, serviceID, startsAt, endsAt, capacity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Slot), args.Error(1)
}

func (m *MockCatalogRepo) GetSlotByID(ctx context.Context, id int) (*catalog.Slot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Slot), args.Error(1)
}

func (m *MockCatalogRepo) ListSlots(ctx context.Context, serviceID int, onlyFuture bool) ([]catalog.Slot, error) {
	args := m.Called(ctx, serviceID, onlyFuture)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Slot), args.Error(1)
}

func (m *MockLedgerRepo) GetBalance(ctx context.Context, subscriptionID, serviceID int) (*ledger.Balance, error) {
	args := m.Called(ctx, subscriptionID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Balance), args.Error(1)
}

func (m *MockLedgerRepo) CreateEntry(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID, quantity int) (*ledger.Entry, error) {
	args := m.Called(ctx, tx, subscriptionID, serviceID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) GetForUpdate(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID int) (*ledger.Entry, error) {
	args := m.Called(ctx, tx, subscriptionID, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerRepo) Decrement(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID, amount int) (int, error) {
	args := m.Called(ctx, tx, subscriptionID, serviceID, amount)
	return args.Int(0), args.Error(1)
}

func (m *MockLedgerRepo) ListBySubscription(ctx context.Context, subscriptionID int) ([]ledger.Entry, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Entry), args.Error(1)
}

func (m *MockCustomerRepo) Create(ctx context.Context, tenantID int, name, email, phone, passwordHash, role string) (*customer.Customer, error) {
	args := m.Called(ctx, tenantID, name, email, phone, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) FindByID(ctx context.Context, id int) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockTenantRepo) GetByID(ctx context.Context, id int) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tenant.Tenant), args.Error(1)
}

func (m *MockTenantRepo) Currency(ctx context.Context, id int, fallback string) (string, error) {
	args := m.Called(ctx, id, fallback)
	return args.String(0), args.Error(1)
}

func (m *MockSubscriptionReader) OwnerOf(ctx context.Context, subscriptionID int) (int, error) {
	args := m.Called(ctx, subscriptionID)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoicer) MaybeIssue(ctx context.Context, t *tenant.Tenant, req invoice.IssueRequest) (string, error) {
	args := m.Called(ctx, t, req)
	return args.String(0), args.Error(1)
}

func (m *MockMailer) SendBookingConfirmation(ctx context.Context, email, name, serviceName string, when time.Time, visitors, covered, paid int) error {
	return m.Called(ctx, email, name, serviceName, when, visitors, covered, paid).Error(0)
}

func (m *MockMailer) SendCancellation(ctx context.Context, email, name, serviceName string) error {
	return m.Called(ctx, email, name, serviceName).Error(0)
}

type serviceMocks struct {
	repo          *MockBookingRepo
	catalogRepo   *MockCatalogRepo
	ledgerRepo    *MockLedgerRepo
	customerRepo  *MockCustomerRepo
	tenantRepo    *MockTenantRepo
	subscriptions *MockSubscriptionReader
	invoicer      *MockInvoicer
	mailer        *MockMailer
}

func newServiceWithMocks() (Service, *serviceMocks) {
	m := &serviceMocks{
		repo:          new(MockBookingRepo),
		catalogRepo:   new(MockCatalogRepo),
		ledgerRepo:    new(MockLedgerRepo),
		customerRepo:  new(MockCustomerRepo),
		tenantRepo:    new(MockTenantRepo),
		subscriptions: new(MockSubscriptionReader),
		invoicer:      new(MockInvoicer),
		mailer:        new(MockMailer),
	}

	svc := NewService(
		m.repo, m.catalogRepo, m.ledgerRepo, m.customerRepo, m.tenantRepo,
		m.subscriptions, m.invoicer, m.mailer,
		"QAR", 5*time.Second,
	)

	return svc, m
}

func TestService_BookSlot_Validation(t *testing.T) {
	svc, _ := newServiceWithMocks()

	_, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{
		SlotID:       1,
		RequestedQty: 0,
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{
		SlotID:        1,
		RequestedQty:  2,
		PaymentMethod: PaymentMethodTransfer,
	})
	assert.ErrorIs(t, err, ErrMissingTransferReference)
}

func TestService_BookSlot_SlotChecks(t *testing.T) {
	futureTime := time.Now().Add(24 * time.Hour)
	pastTime := time.Now().Add(-24 * time.Hour)

	t.Run("slot not found", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.catalogRepo.On("GetSlotByID", mock.Anything, 999).Return(nil, catalog.ErrSlotNotFound)

		_, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{SlotID: 999, RequestedQty: 1})
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})

	t.Run("slot in past", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.catalogRepo.On("GetSlotByID", mock.Anything, 1).Return(&catalog.Slot{
			ID:                1,
			ServiceID:         2,
			StartsAt:          pastTime,
			EndsAt:            pastTime.Add(time.Hour),
			Capacity:          20,
			AvailableCapacity: 20,
		}, nil)

		_, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{SlotID: 1, RequestedQty: 1})
		assert.ErrorIs(t, err, ErrSlotInPast)
	})

	t.Run("not enough capacity", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.catalogRepo.On("GetSlotByID", mock.Anything, 1).Return(&catalog.Slot{
			ID:                1,
			ServiceID:         2,
			StartsAt:          futureTime,
			EndsAt:            futureTime.Add(time.Hour),
			Capacity:          20,
			AvailableCapacity: 3,
		}, nil)

		_, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{SlotID: 1, RequestedQty: 5})
		assert.ErrorIs(t, err, ErrSlotExhausted)
	})

	t.Run("slot of another tenant", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.catalogRepo.On("GetSlotByID", mock.Anything, 1).Return(&catalog.Slot{
			ID:                1,
			ServiceID:         2,
			StartsAt:          futureTime,
			EndsAt:            futureTime.Add(time.Hour),
			Capacity:          20,
			AvailableCapacity: 20,
		}, nil)
		m.catalogRepo.On("GetServiceByID", mock.Anything, 2).Return(&catalog.Service{
			ID:             2,
			TenantID:       42,
			Name:           "Spa Visit",
			UnitPriceCents: 20000,
		}, nil)

		_, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{SlotID: 1, RequestedQty: 1})
		assert.ErrorIs(t, err, ErrSlotNotFound)
	})
}

func TestService_BookSlot_SubscriptionOwnership(t *testing.T) {
	futureTime := time.Now().Add(24 * time.Hour)
	subID := 7

	slot := &catalog.Slot{
		ID:                1,
		ServiceID:         2,
		StartsAt:          futureTime,
		EndsAt:            futureTime.Add(time.Hour),
		Capacity:          20,
		AvailableCapacity: 20,
	}
	svcRow := &catalog.Service{ID: 2, TenantID: 1, Name: "Spa Visit", UnitPriceCents: 20000}

	t.Run("foreign subscription is rejected", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.catalogRepo.On("GetSlotByID", mock.Anything, 1).Return(slot, nil)
		m.catalogRepo.On("GetServiceByID", mock.Anything, 2).Return(svcRow, nil)
		m.subscriptions.On("OwnerOf", mock.Anything, subID).Return(99, nil)

		_, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{
			SlotID: 1, RequestedQty: 1, SubscriptionID: &subID,
		})
		assert.ErrorIs(t, err, ErrSubscriptionNotOwned)
	})

	t.Run("missing subscription degrades to fully paid", func(t *testing.T) {
		svc, m := newServiceWithMocks()
		m.catalogRepo.On("GetSlotByID", mock.Anything, 1).Return(slot, nil)
		m.catalogRepo.On("GetServiceByID", mock.Anything, 2).Return(svcRow, nil)
		m.subscriptions.On("OwnerOf", mock.Anything, subID).Return(0, errors.New("subscription not found"))
		m.repo.On("CreateBooking", mock.Anything, mock.MatchedBy(func(p CreateBookingParams) bool {
			return p.SubscriptionID == nil && p.RequestedQty == 3
		})).Return(&Booking{
			ID:              10,
			TenantID:        1,
			CustomerID:      1,
			SlotID:          1,
			ServiceID:       2,
			VisitorCount:    3,
			PaidQuantity:    3,
			TotalPriceCents: 60000,
			PaymentMethod:   PaymentMethodOnsite,
			Status:          StatusBooked,
		}, nil)
		m.customerRepo.On("FindByID", mock.Anything, 1).Return(&customer.Customer{
			ID: 1, TenantID: 1, Name: "Maryam", Email: "maryam@example.com",
		}, nil)
		m.tenantRepo.On("GetByID", mock.Anything, 1).Return(&tenant.Tenant{
			ID: 1, Currency: "QAR",
			ZohoOrgID: "org", ZohoClientID: "cid", ZohoClientSecret: "sec", ZohoRefreshToken: "ref",
		}, nil)
		m.invoicer.On("MaybeIssue", mock.Anything, mock.Anything, mock.Anything).Return("INV-1", nil)
		m.mailer.On("SendBookingConfirmation", mock.Anything, "maryam@example.com", "Maryam", "Spa Visit",
			mock.Anything, 3, 0, 3).Return(nil)

		resp, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{
			SlotID: 1, RequestedQty: 3, SubscriptionID: &subID,
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, resp.Allocation.Paid)
		assert.Equal(t, 0, resp.Allocation.Covered)
		assert.Equal(t, "INV-1", resp.InvoiceID)
		m.repo.AssertExpectations(t)
	})
}

func TestService_BookSlot_InvoiceFailureIsNotFatal(t *testing.T) {
	futureTime := time.Now().Add(24 * time.Hour)

	svc, m := newServiceWithMocks()
	m.catalogRepo.On("GetSlotByID", mock.Anything, 1).Return(&catalog.Slot{
		ID: 1, ServiceID: 2, StartsAt: futureTime, EndsAt: futureTime.Add(time.Hour),
		Capacity: 20, AvailableCapacity: 20,
	}, nil)
	m.catalogRepo.On("GetServiceByID", mock.Anything, 2).Return(&catalog.Service{
		ID: 2, TenantID: 1, Name: "Spa Visit", UnitPriceCents: 20000,
	}, nil)
	m.repo.On("CreateBooking", mock.Anything, mock.Anything).Return(&Booking{
		ID: 10, TenantID: 1, CustomerID: 1, SlotID: 1, ServiceID: 2,
		VisitorCount: 2, PaidQuantity: 2, TotalPriceCents: 40000,
		PaymentMethod: PaymentMethodOnsite, Status: StatusBooked,
	}, nil)
	m.customerRepo.On("FindByID", mock.Anything, 1).Return(&customer.Customer{
		ID: 1, Name: "Maryam", Email: "maryam@example.com",
	}, nil)
	m.tenantRepo.On("GetByID", mock.Anything, 1).Return(&tenant.Tenant{
		ID: 1, Currency: "QAR",
		ZohoOrgID: "org", ZohoClientID: "cid", ZohoClientSecret: "sec", ZohoRefreshToken: "ref",
	}, nil)
	m.invoicer.On("MaybeIssue", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("invoice creation failed: zoho down"))
	m.mailer.On("SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{SlotID: 1, RequestedQty: 2})

	assert.NoError(t, err)
	assert.NotNil(t, resp.Booking)
	assert.Empty(t, resp.InvoiceID)
	assert.Contains(t, resp.InvoiceError, "zoho down")
}

func TestService_BookSlot_FullyCoveredSkipsInvoicer(t *testing.T) {
	futureTime := time.Now().Add(24 * time.Hour)
	subID := 7

	svc, m := newServiceWithMocks()
	m.catalogRepo.On("GetSlotByID", mock.Anything, 1).Return(&catalog.Slot{
		ID: 1, ServiceID: 2, StartsAt: futureTime, EndsAt: futureTime.Add(time.Hour),
		Capacity: 20, AvailableCapacity: 20,
	}, nil)
	m.catalogRepo.On("GetServiceByID", mock.Anything, 2).Return(&catalog.Service{
		ID: 2, TenantID: 1, Name: "Spa Visit", UnitPriceCents: 20000,
	}, nil)
	m.subscriptions.On("OwnerOf", mock.Anything, subID).Return(1, nil)
	m.repo.On("CreateBooking", mock.Anything, mock.Anything).Return(&Booking{
		ID: 11, TenantID: 1, CustomerID: 1, SlotID: 1, ServiceID: 2,
		VisitorCount: 5, PackageCoveredQuantity: 5, PaidQuantity: 0, TotalPriceCents: 0,
		PackageSubscriptionID: &subID, PaymentMethod: PaymentMethodOnsite, Status: StatusBooked,
	}, nil)
	m.customerRepo.On("FindByID", mock.Anything, 1).Return(&customer.Customer{
		ID: 1, Name: "Maryam", Email: "maryam@example.com",
	}, nil)
	m.mailer.On("SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	resp, err := svc.BookSlot(context.Background(), 1, 1, CreateBookingRequest{
		SlotID: 1, RequestedQty: 5, SubscriptionID: &subID,
	})

	assert.NoError(t, err)
	assert.Empty(t, resp.InvoiceID)
	assert.Empty(t, resp.InvoiceError)
	assert.Equal(t, "package", resp.Allocation.Coverage())
	m.invoicer.AssertNotCalled(t, "MaybeIssue", mock.Anything, mock.Anything, mock.Anything)
	m.tenantRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestService_CancelBooking(t *testing.T) {
	svc, m := newServiceWithMocks()

	m.repo.On("GetBookingByID", mock.Anything, 1).Return(&Booking{
		ID: 1, CustomerID: 1, ServiceID: 2, Status: StatusBooked,
	}, nil)
	m.repo.On("CancelBooking", mock.Anything, 1).Return(nil)
	m.customerRepo.On("FindByID", mock.Anything, 1).Return(&customer.Customer{
		ID: 1, Name: "Maryam", Email: "maryam@example.com",
	}, nil)
	m.catalogRepo.On("GetServiceByID", mock.Anything, 2).Return(&catalog.Service{
		ID: 2, Name: "Spa Visit",
	}, nil)
	m.mailer.On("SendCancellation", mock.Anything, "maryam@example.com", "Maryam", "Spa Visit").Return(nil)

	err := svc.CancelBooking(context.Background(), 1, 1)

	assert.NoError(t, err)
	m.repo.AssertExpectations(t)
}

func TestService_CancelBooking_NotOwner(t *testing.T) {
	svc, m := newServiceWithMocks()

	m.repo.On("GetBookingByID", mock.Anything, 1).Return(&Booking{
		ID: 1, CustomerID: 99, Status: StatusBooked,
	}, nil)

	err := svc.CancelBooking(context.Background(), 1, 1)

	assert.Error(t, err)
	m.repo.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
}

func TestService_GetBooking_OwnershipHidden(t *testing.T) {
	svc, m := newServiceWithMocks()

	m.repo.On("GetBookingByID", mock.Anything, 5).Return(&Booking{
		ID: 5, CustomerID: 99,
	}, nil)

	_, err := svc.GetBooking(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestService_PreviewAllocation(t *testing.T) {
	svc, m := newServiceWithMocks()

	m.ledgerRepo.On("GetBalance", mock.Anything, 7, 2).Return(&ledger.Balance{Remaining: 8}, nil)

	alloc := svc.PreviewAllocation(context.Background(), 7, 2, 10, 20000)
	assert.Equal(t, 8, alloc.Covered)
	assert.Equal(t, 2, alloc.Paid)
	assert.Equal(t, int64(40000), alloc.PriceCents)
}

func TestService_PreviewAllocation_NoEntry(t *testing.T) {
	svc, m := newServiceWithMocks()

	m.ledgerRepo.On("GetBalance", mock.Anything, 7, 2).Return(nil, ledger.ErrNoEntry)

	alloc := svc.PreviewAllocation(context.Background(), 7, 2, 3, 30000)
	assert.Equal(t, 0, alloc.Covered)
	assert.Equal(t, 3, alloc.Paid)
	assert.Equal(t, int64(90000), alloc.PriceCents)
}
