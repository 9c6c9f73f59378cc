package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrSlotNotFound    = errors.New("slot not found")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateService(ctx context.Context, tenantID int, name string, unitPriceCents int64) (*Service, error) {
	query := `
		INSERT INTO services (tenant_id, name, unit_price_cents)
		VALUES ($1, $2, $3)
		RETURNING id, tenant_id, name, unit_price_cents, created_at
	`

	var svc Service
	err := r.db.GetContext(ctx, &svc, query, tenantID, name, unitPriceCents)
	if err != nil {
		return nil, err
	}

	return &svc, nil
}

func (r *repository) GetServiceByID(ctx context.Context, id int) (*Service, error) {
	query := `
		SELECT id, tenant_id, name, unit_price_cents, created_at
		FROM services
		WHERE id = $1
	`

	var svc Service
	err := r.db.GetContext(ctx, &svc, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &svc, nil
}

func (r *repository) ListServices(ctx context.Context, tenantID int) ([]Service, error) {
	query := `
		SELECT id, tenant_id, name, unit_price_cents, created_at
		FROM services
		WHERE tenant_id = $1
		ORDER BY created_at DESC
	`

	var services []Service
	err := r.db.SelectContext(ctx, &services, query, tenantID)
	if err != nil {
		return nil, err
	}

	return services, nil
}

func (r *repository) CreateSlot(ctx context.Context, serviceID int, startsAt, endsAt time.Time, capacity int) (*Slot, error) {
	query := `
		INSERT INTO slots (service_id, starts_at, ends_at, capacity, available_capacity)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, service_id, starts_at, ends_at, capacity, available_capacity, created_at
	`

	var slot Slot
	err := r.db.GetContext(ctx, &slot, query, serviceID, startsAt, endsAt, capacity)
	if err != nil {
		return nil, err
	}

	return &slot, nil
}

func (r *repository) GetSlotByID(ctx context.Context, id int) (*Slot, error) {
	query := `
		SELECT id, service_id, starts_at, ends_at, capacity, available_capacity, created_at
		FROM slots
		WHERE id = $1
	`

	var slot Slot
	err := r.db.GetContext(ctx, &slot, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	return &slot, nil
}

func (r *repository) ListSlots(ctx context.Context, serviceID int, onlyFuture bool) ([]Slot, error) {
	query := `
		SELECT id, service_id, starts_at, ends_at, capacity, available_capacity, created_at
		FROM slots
		WHERE service_id = $1
	`

	if onlyFuture {
		query += " AND starts_at > NOW()"
	}

	query += " ORDER BY starts_at ASC"

	var slots []Slot
	err := r.db.SelectContext(ctx, &slots, query, serviceID)
	if err != nil {
		return nil, err
	}

	return slots, nil
}
