package tenant

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrTenantNotFound = errors.New("tenant not found")

type Repository interface {
	GetByID(ctx context.Context, id int) (*Tenant, error)
	Currency(ctx context.Context, id int, fallback string) (string, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, id int) (*Tenant, error) {
	query := `
		SELECT id, name, currency,
		       zoho_org_id, zoho_client_id, zoho_client_secret, zoho_refresh_token,
		       whatsapp_phone_id, whatsapp_token,
		       created_at
		FROM tenants
		WHERE id = $1
	`

	var t Tenant
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	return &t, nil
}

// Currency is the single authoritative currency lookup for a tenant.
// The fallback applies only when the tenant row has no currency set.
func (r *repository) Currency(ctx context.Context, id int, fallback string) (string, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if t.Currency == "" {
		return fallback, nil
	}
	return t.Currency, nil
}
