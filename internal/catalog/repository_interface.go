package catalog

import (
	"context"
	"time"
)

type Repository interface {
	CreateService(ctx context.Context, tenantID int, name string, unitPriceCents int64) (*Service, error)
	GetServiceByID(ctx context.Context, id int) (*Service, error)
	ListServices(ctx context.Context, tenantID int) ([]Service, error)
	CreateSlot(ctx context.Context, serviceID int, startsAt, endsAt time.Time, capacity int) (*Slot, error)
	GetSlotByID(ctx context.Context, id int) (*Slot, error)
	ListSlots(ctx context.Context, serviceID int, onlyFuture bool) ([]Slot, error)
}
