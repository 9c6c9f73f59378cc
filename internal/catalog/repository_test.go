package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func newCatalogMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	dbx := sqlx.NewDb(db, "sqlmock")
	return NewRepository(dbx), mock, func() { dbx.Close() }
}

func TestCreateService(t *testing.T) {
	repo, mock, close := newCatalogMock(t)
	defer close()

	mock.ExpectQuery(`INSERT INTO services.*`).
		WithArgs(1, "Deep Clean", int64(20000)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "unit_price_cents", "created_at"}).
			AddRow(2, 1, "Deep Clean", 20000, time.Now()))

	svc, err := repo.CreateService(context.Background(), 1, "Deep Clean", 20000)
	assert.NoError(t, err)
	assert.Equal(t, 2, svc.ID)
	assert.Equal(t, "Deep Clean", svc.Name)
	assert.Equal(t, int64(20000), svc.UnitPriceCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetServiceByID_NotFound(t *testing.T) {
	repo, mock, close := newCatalogMock(t)
	defer close()

	mock.ExpectQuery(`SELECT id, tenant_id, name, unit_price_cents, created_at.*FROM services`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetServiceByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestCreateSlot_AvailableCapacityStartsFull(t *testing.T) {
	repo, mock, close := newCatalogMock(t)
	defer close()

	startsAt := time.Now().Add(24 * time.Hour)
	endsAt := startsAt.Add(time.Hour)

	mock.ExpectQuery(`INSERT INTO slots.*`).
		WithArgs(2, startsAt, endsAt, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_id", "starts_at", "ends_at", "capacity", "available_capacity", "created_at"}).
			AddRow(1, 2, startsAt, endsAt, 10, 10, time.Now()))

	slot, err := repo.CreateSlot(context.Background(), 2, startsAt, endsAt, 10)
	assert.NoError(t, err)
	assert.Equal(t, 10, slot.Capacity)
	assert.Equal(t, 10, slot.AvailableCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSlotByID_NotFound(t *testing.T) {
	repo, mock, close := newCatalogMock(t)
	defer close()

	mock.ExpectQuery(`SELECT id, service_id, starts_at, ends_at, capacity, available_capacity, created_at.*FROM slots`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSlotByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestListSlots_OnlyFuture(t *testing.T) {
	repo, mock, close := newCatalogMock(t)
	defer close()

	future := time.Now().Add(24 * time.Hour)

	mock.ExpectQuery(`FROM slots\s+WHERE service_id = \$1\s+AND starts_at > NOW\(\)`).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "service_id", "starts_at", "ends_at", "capacity", "available_capacity", "created_at"}).
			AddRow(1, 2, future, future.Add(time.Hour), 10, 4, time.Now()))

	slots, err := repo.ListSlots(context.Background(), 2, true)
	assert.NoError(t, err)
	assert.Len(t, slots, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
