package ledger

import "time"

// Entry is the prepaid-unit counter for one (subscription, service) pair.
// OriginalQuantity never changes after creation; RemainingQuantity is
// decremented only inside the booking transaction, under a row lock.
// used_quantity = original_quantity - remaining_quantity at all times.
type Entry struct {
	ID                int       `db:"id" json:"id"`
	SubscriptionID    int       `db:"subscription_id" json:"subscription_id"`
	ServiceID         int       `db:"service_id" json:"service_id"`
	OriginalQuantity  int       `db:"original_quantity" json:"original_quantity"`
	RemainingQuantity int       `db:"remaining_quantity" json:"remaining_quantity"`
	UsedQuantity      int       `db:"used_quantity" json:"used_quantity"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Balance is the read-side view of an entry. A missing entry is reported
// as ErrNoEntry, never as a zero Balance: a service outside the package is
// different from an exhausted package.
type Balance struct {
	Remaining int `json:"remaining"`
	Used      int `json:"used"`
	Original  int `json:"original"`
}
