package customer

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrCustomerNotFound = errors.New("customer not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tenantID int, name, email, phone, passwordHash, role string) (*Customer, error) {
	query := `
		INSERT INTO customers (tenant_id, name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, tenant_id, name, email, phone, password_hash, role, created_at
	`

	var c Customer
	err := r.db.GetContext(ctx, &c, query, tenantID, name, email, phone, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Customer, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, password_hash, role, created_at
		FROM customers
		WHERE email = $1
	`

	var c Customer
	err := r.db.GetContext(ctx, &c, query, email)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*Customer, error) {
	query := `
		SELECT id, tenant_id, name, email, phone, password_hash, role, created_at
		FROM customers
		WHERE id = $1
	`

	var c Customer
	err := r.db.GetContext(ctx, &c, query, id)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}
