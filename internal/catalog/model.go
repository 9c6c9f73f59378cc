package catalog

import "time"

// Service is a bookable offering with a per-unit price.
type Service struct {
	ID             int       `db:"id" json:"id"`
	TenantID       int       `db:"tenant_id" json:"tenant_id"`
	Name           string    `db:"name" json:"name"`
	UnitPriceCents int64     `db:"unit_price_cents" json:"unit_price_cents"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Slot is one bookable time window of a service. AvailableCapacity is the
// authoritative counter: the booking transaction decrements it under a row
// lock, list views read it without locking and may see it go stale.
type Slot struct {
	ID                int       `db:"id" json:"id"`
	ServiceID         int       `db:"service_id" json:"service_id"`
	StartsAt          time.Time `db:"starts_at" json:"starts_at"`
	EndsAt            time.Time `db:"ends_at" json:"ends_at"`
	Capacity          int       `db:"capacity" json:"capacity"`
	AvailableCapacity int       `db:"available_capacity" json:"available_capacity"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

func (s *Slot) IsFull() bool {
	return s.AvailableCapacity <= 0
}

type CreateServiceRequest struct {
	Name           string `json:"name" binding:"required"`
	UnitPriceCents int64  `json:"unit_price_cents" binding:"required,min=0"`
}

type CreateSlotRequest struct {
	StartsAt string `json:"starts_at" binding:"required"`
	EndsAt   string `json:"ends_at" binding:"required"`
	Capacity int    `json:"capacity" binding:"required,min=1"`
}
