package subscription

import "context"

type Repository interface {
	GetPackageByID(ctx context.Context, id int) (*Package, error)
	ListPackages(ctx context.Context, tenantID int) ([]Package, error)
	GetPackageItems(ctx context.Context, packageID int) ([]PackageItem, error)

	// CreateSubscription inserts the subscription row and one ledger entry
	// per package item in a single transaction.
	CreateSubscription(ctx context.Context, tenantID, customerID int, pkg *Package, items []PackageItem, paymentMethod string, transactionReference *string) (*PackageSubscription, error)

	GetByID(ctx context.Context, id int) (*PackageSubscription, error)
	ListByCustomer(ctx context.Context, customerID int) ([]PackageSubscription, error)

	// OwnerOf resolves the owning customer of an active subscription.
	// Cancelled subscriptions report ErrSubscriptionNotFound.
	OwnerOf(ctx context.Context, subscriptionID int) (int, error)

	// SetInvoiceID links the external invoice once; later calls return the
	// stored id without overwriting it.
	SetInvoiceID(ctx context.Context, subscriptionID int, invoiceID string) (string, error)

	MarkPaid(ctx context.Context, subscriptionID int) error
	Cancel(ctx context.Context, subscriptionID int) error
}
