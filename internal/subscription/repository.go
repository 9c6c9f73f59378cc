package subscription

import (
	"context"
	"database/sql"
	"errors"

	"bookpass/internal/ledger"

	"github.com/jmoiron/sqlx"
)

var (
	ErrPackageNotFound                        = errors.New("package not found")
	ErrSubscriptionNotFound                   = errors.New("subscription not found")
	ErrSubscriptionNotFoundOrAlreadyCancelled = errors.New("subscription not found or already cancelled")
)

type repository struct {
	db     *sqlx.DB
	ledger ledger.Repository
}

func NewRepository(db *sqlx.DB, ledgerRepo ledger.Repository) Repository {
	return &repository{db: db, ledger: ledgerRepo}
}

func (r *repository) GetPackageByID(ctx context.Context, id int) (*Package, error) {
	query := `
		SELECT id, tenant_id, name, price_cents, created_at
		FROM packages
		WHERE id = $1
	`

	var pkg Package
	err := r.db.GetContext(ctx, &pkg, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}

	return &pkg, nil
}

func (r *repository) ListPackages(ctx context.Context, tenantID int) ([]Package, error) {
	query := `
		SELECT id, tenant_id, name, price_cents, created_at
		FROM packages
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	var packages []Package
	err := r.db.SelectContext(ctx, &packages, query, tenantID)
	if err != nil {
		return nil, err
	}

	return packages, nil
}

func (r *repository) GetPackageItems(ctx context.Context, packageID int) ([]PackageItem, error) {
	query := `
		SELECT id, package_id, service_id, quantity
		FROM package_items
		WHERE package_id = $1
		ORDER BY service_id ASC
	`

	var items []PackageItem
	err := r.db.SelectContext(ctx, &items, query, packageID)
	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) CreateSubscription(ctx context.Context, tenantID, customerID int, pkg *Package, items []PackageItem, paymentMethod string, transactionReference *string) (*PackageSubscription, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var sub PackageSubscription
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO package_subscriptions
		 (tenant_id, customer_id, package_id, payment_status, payment_method, transaction_reference, status)
		 VALUES ($1, $2, $3, 'pending', $4, $5, 'active')
		 RETURNING id, tenant_id, customer_id, package_id, payment_status, payment_method,
		           transaction_reference, invoice_id, status, created_at, updated_at`,
		tenantID, customerID, pkg.ID, paymentMethod, transactionReference,
	).StructScan(&sub)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if _, err := r.ledger.CreateEntry(ctx, tx, sub.ID, item.ServiceID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &sub, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*PackageSubscription, error) {
	query := `
		SELECT id, tenant_id, customer_id, package_id, payment_status, payment_method,
		       transaction_reference, invoice_id, status, created_at, updated_at
		FROM package_subscriptions
		WHERE id = $1
	`

	var sub PackageSubscription
	err := r.db.GetContext(ctx, &sub, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	return &sub, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID int) ([]PackageSubscription, error) {
	query := `
		SELECT id, tenant_id, customer_id, package_id, payment_status, payment_method,
		       transaction_reference, invoice_id, status, created_at, updated_at
		FROM package_subscriptions
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	var subs []PackageSubscription
	err := r.db.SelectContext(ctx, &subs, query, customerID)
	if err != nil {
		return nil, err
	}

	return subs, nil
}

func (r *repository) OwnerOf(ctx context.Context, subscriptionID int) (int, error) {
	var customerID int
	err := r.db.GetContext(ctx, &customerID,
		`SELECT customer_id FROM package_subscriptions WHERE id = $1 AND status = 'active'`,
		subscriptionID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrSubscriptionNotFound
		}
		return 0, err
	}

	return customerID, nil
}

func (r *repository) SetInvoiceID(ctx context.Context, subscriptionID int, invoiceID string) (string, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE package_subscriptions
		 SET invoice_id = $2, updated_at = NOW()
		 WHERE id = $1 AND invoice_id IS NULL`,
		subscriptionID, invoiceID,
	)
	if err != nil {
		return "", err
	}

	var stored string
	err = r.db.GetContext(ctx, &stored,
		`SELECT invoice_id FROM package_subscriptions WHERE id = $1`,
		subscriptionID,
	)
	if err != nil {
		return "", err
	}

	return stored, nil
}

func (r *repository) MarkPaid(ctx context.Context, subscriptionID int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE package_subscriptions
		 SET payment_status = 'paid', updated_at = NOW()
		 WHERE id = $1`,
		subscriptionID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

func (r *repository) Cancel(ctx context.Context, subscriptionID int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE package_subscriptions
		 SET status = 'cancelled', updated_at = NOW()
		 WHERE id = $1 AND status = 'active'`,
		subscriptionID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSubscriptionNotFoundOrAlreadyCancelled
	}

	return nil
}
