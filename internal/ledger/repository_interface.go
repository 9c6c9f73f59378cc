package ledger

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// GetBalance reads an entry without locking. Returns ErrNoEntry when the
	// service is not part of the subscription's package.
	GetBalance(ctx context.Context, subscriptionID, serviceID int) (*Balance, error)

	// CreateEntry inserts one entry inside the purchase transaction.
	CreateEntry(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID, quantity int) (*Entry, error)

	// GetForUpdate locks the entry row for the duration of tx. The lock also
	// requires the owning subscription to still be active; a cancelled
	// subscription reads as ErrNoEntry.
	GetForUpdate(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID int) (*Entry, error)

	// Decrement spends units under the lock taken by GetForUpdate. It
	// re-validates the balance and fails with ErrInsufficientBalance rather
	// than letting remaining go negative.
	Decrement(ctx context.Context, tx *sqlx.Tx, subscriptionID, serviceID, amount int) (int, error)

	ListBySubscription(ctx context.Context, subscriptionID int) ([]Entry, error)
}
