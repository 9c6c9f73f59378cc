package subscription

import (
	"context"
	"errors"
	"fmt"

	"bookpass/internal/customer"
	"bookpass/internal/invoice"
	"bookpass/internal/ledger"
	"bookpass/internal/logger"
	"bookpass/internal/metrics"
	"bookpass/internal/tenant"
)

var (
	ErrMissingTransferReference = errors.New("transaction reference is required for transfer payments")
	ErrPackageTenantMismatch    = errors.New("package does not belong to this tenant")
)

// Invoicer is the slice of the invoice orchestrator this service needs.
type Invoicer interface {
	MaybeIssue(ctx context.Context, t *tenant.Tenant, req invoice.IssueRequest) (string, error)
}

// Mailer enqueues the purchase confirmation; failures are logged only.
type Mailer interface {
	SendPurchaseConfirmation(ctx context.Context, email, name, packageName string) error
}

type Service interface {
	Purchase(ctx context.Context, tenantID, customerID int, req PurchaseRequest) (*PurchaseResponse, error)
	GetByID(ctx context.Context, id int) (*PackageSubscription, error)
	ListByCustomer(ctx context.Context, customerID int) ([]PackageSubscription, error)
	GetBalances(ctx context.Context, subscriptionID int) ([]ledger.Entry, error)
	Cancel(ctx context.Context, customerID, subscriptionID int) error
	MarkPaid(ctx context.Context, tenantID, subscriptionID int) error
	ListPackages(ctx context.Context, tenantID int) ([]Package, error)
}

type service struct {
	repo            Repository
	ledgerRepo      ledger.Repository
	customerRepo    customer.Repository
	tenantRepo      tenant.Repository
	invoicer        Invoicer
	mailer          Mailer
	defaultCurrency string
}

func NewService(
	repo Repository,
	ledgerRepo ledger.Repository,
	customerRepo customer.Repository,
	tenantRepo tenant.Repository,
	invoicer Invoicer,
	mailer Mailer,
	defaultCurrency string,
) Service {
	return &service{
		repo:            repo,
		ledgerRepo:      ledgerRepo,
		customerRepo:    customerRepo,
		tenantRepo:      tenantRepo,
		invoicer:        invoicer,
		mailer:          mailer,
		defaultCurrency: defaultCurrency,
	}
}

// Purchase creates a subscription with its ledger entries, then invoices
// the package price. Validation happens before any row is written; invoice
// problems after the commit surface as InvoiceError, not as a failed
// purchase.
func (s *service) Purchase(ctx context.Context, tenantID, customerID int, req PurchaseRequest) (*PurchaseResponse, error) {
	var transactionReference *string
	if req.PaymentMethod == PaymentMethodTransfer {
		if req.TransactionReference == "" {
			return nil, ErrMissingTransferReference
		}
		transactionReference = &req.TransactionReference
	}

	pkg, err := s.repo.GetPackageByID(ctx, req.PackageID)
	if err != nil {
		return nil, err
	}
	if pkg.TenantID != tenantID {
		return nil, ErrPackageTenantMismatch
	}

	items, err := s.repo.GetPackageItems(ctx, pkg.ID)
	if err != nil {
		return nil, err
	}

	sub, err := s.repo.CreateSubscription(ctx, tenantID, customerID, pkg, items, req.PaymentMethod, transactionReference)
	if err != nil {
		return nil, err
	}

	metrics.RecordSubscription(req.PaymentMethod)

	resp := &PurchaseResponse{Subscription: sub}

	invoiceID, invErr := s.issueInvoice(ctx, sub, pkg)
	if invErr != nil {
		logger.Errorf("Invoice for subscription %d failed: %v", sub.ID, invErr)
		resp.InvoiceError = invErr.Error()
	} else {
		resp.InvoiceID = invoiceID
	}

	if cust, err := s.customerRepo.FindByID(ctx, customerID); err == nil && cust != nil {
		if err := s.mailer.SendPurchaseConfirmation(ctx, cust.Email, cust.Name, pkg.Name); err != nil {
			logger.Errorf("Purchase confirmation email for subscription %d failed: %v", sub.ID, err)
		}
	}

	return resp, nil
}

func (s *service) issueInvoice(ctx context.Context, sub *PackageSubscription, pkg *Package) (string, error) {
	t, err := s.tenantRepo.GetByID(ctx, sub.TenantID)
	if err != nil {
		return "", fmt.Errorf("tenant lookup failed: %w", err)
	}
	if !t.HasInvoicing() {
		return "", nil
	}

	cust, err := s.customerRepo.FindByID(ctx, sub.CustomerID)
	if err != nil {
		return "", fmt.Errorf("customer lookup failed: %w", err)
	}

	currency := t.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	var existing string
	if sub.InvoiceID != nil {
		existing = *sub.InvoiceID
	}
	var reference string
	if sub.TransactionReference != nil {
		reference = *sub.TransactionReference
	}

	return s.invoicer.MaybeIssue(ctx, t, invoice.IssueRequest{
		Kind:                 "subscription",
		TargetID:             sub.ID,
		ExistingInvoiceID:    existing,
		CustomerName:         cust.Name,
		CustomerEmail:        cust.Email,
		ServiceName:          pkg.Name,
		PaidQuantity:         1,
		UnitPriceCents:       pkg.PriceCents,
		TotalPriceCents:      pkg.PriceCents,
		Currency:             currency,
		PaymentMethod:        sub.PaymentMethod,
		TransactionReference: reference,
		Link: func(ctx context.Context, invoiceID string) (string, error) {
			return s.repo.SetInvoiceID(ctx, sub.ID, invoiceID)
		},
	})
}

func (s *service) GetByID(ctx context.Context, id int) (*PackageSubscription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListByCustomer(ctx context.Context, customerID int) ([]PackageSubscription, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

func (s *service) GetBalances(ctx context.Context, subscriptionID int) ([]ledger.Entry, error) {
	return s.ledgerRepo.ListBySubscription(ctx, subscriptionID)
}

func (s *service) Cancel(ctx context.Context, customerID, subscriptionID int) error {
	sub, err := s.repo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}

	if sub.CustomerID != customerID {
		return errors.New("unauthorized: can only cancel own subscriptions")
	}

	return s.repo.Cancel(ctx, subscriptionID)
}

// MarkPaid records that an onsite or transfer payment was collected. The
// tenant check keeps one tenant's staff from settling another tenant's
// subscriptions.
func (s *service) MarkPaid(ctx context.Context, tenantID, subscriptionID int) error {
	sub, err := s.repo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.TenantID != tenantID {
		return ErrSubscriptionNotFound
	}

	return s.repo.MarkPaid(ctx, subscriptionID)
}

func (s *service) ListPackages(ctx context.Context, tenantID int) ([]Package, error) {
	return s.repo.ListPackages(ctx, tenantID)
}
