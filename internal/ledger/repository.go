package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNoEntry             = errors.New("no ledger entry for this subscription and service")
	ErrInsufficientBalance = errors.New("insufficient package balance")
	ErrInvalidAmount       = errors.New("decrement amount must be positive")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBalance(ctx context.Context, subscriptionID, serviceID int) (*Balance, error) {
	query := `
		SELECT remaining_quantity, used_quantity, original_quantity
		FROM package_ledger_entries
		WHERE subscription_id = $1 AND service_id = $2
	`

	var row struct {
		Remaining int `db:"remaining_quantity"`
		Used      int `db:"used_quantity"`
		Original  int `db:"original_quantity"`
	}
	err := r.db.GetContext(ctx, &row, query, subscriptionID, serviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoEntry
		}
		return nil, err
	}

	return &Balance{Remaining: row.Remaining, Used: row.Used, Original: row.Original}, nil
}

func (r *repository) CreateEntry(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID, quantity int) (*Entry, error) {
	query := `
		INSERT INTO package_ledger_entries (subscription_id, service_id, original_quantity, remaining_quantity, used_quantity)
		VALUES ($1, $2, $3, $3, 0)
		RETURNING id, subscription_id, service_id, original_quantity, remaining_quantity, used_quantity, created_at, updated_at
	`

	var entry Entry
	err := tx.QueryRowxContext(ctx, query, subscriptionID, serviceID, quantity).StructScan(&entry)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (r *repository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID int) (*Entry, error) {
	query := `
		SELECT e.id, e.subscription_id, e.service_id, e.original_quantity, e.remaining_quantity, e.used_quantity, e.created_at, e.updated_at
		FROM package_ledger_entries e
		JOIN package_subscriptions s ON s.id = e.subscription_id
		WHERE e.subscription_id = $1 AND e.service_id = $2 AND s.status = 'active'
		FOR UPDATE OF e
	`

	var entry Entry
	err := tx.QueryRowxContext(ctx, query, subscriptionID, serviceID).StructScan(&entry)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoEntry
		}
		return nil, err
	}

	return &entry, nil
}

func (r *repository) Decrement(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	query := `
		UPDATE package_ledger_entries
		SET remaining_quantity = remaining_quantity - $3,
		    used_quantity = used_quantity + $3,
		    updated_at = NOW()
		WHERE subscription_id = $1 AND service_id = $2 AND remaining_quantity >= $3
		RETURNING remaining_quantity
	`

	var newRemaining int
	err := tx.QueryRowxContext(ctx, query, subscriptionID, serviceID, amount).Scan(&newRemaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrInsufficientBalance
		}
		return 0, err
	}

	return newRemaining, nil
}

func (r *repository) ListBySubscription(ctx context.Context, subscriptionID int) ([]Entry, error) {
	query := `
		SELECT id, subscription_id, service_id, original_quantity, remaining_quantity, used_quantity, created_at, updated_at
		FROM package_ledger_entries
		WHERE subscription_id = $1
		ORDER BY service_id ASC
	`

	var entries []Entry
	err := r.db.SelectContext(ctx, &entries, query, subscriptionID)
	if err != nil {
		return nil, err
	}

	return entries, nil
}
