package customer

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func customerColumns() []string {
	return []string{"id", "tenant_id", "name", "email", "phone", "password_hash", "role", "created_at"}
}

func TestRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewRepository(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectQuery(`INSERT INTO customers.*`).
		WithArgs(1, "Test User", "test@example.com", "+97450000000", "hashed", "customer").
		WillReturnRows(sqlmock.NewRows(customerColumns()).
			AddRow(1, 1, "Test User", "test@example.com", "+97450000000", "hashed", "customer", time.Now()))

	c, err := repo.Create(context.Background(), 1, "Test User", "test@example.com", "+97450000000", "hashed", "customer")
	assert.NoError(t, err)
	assert.Equal(t, 1, c.ID)
	assert.Equal(t, "customer", c.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewRepository(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectQuery(`FROM customers\s+WHERE email = \$1`).
		WithArgs("test@example.com").
		WillReturnRows(sqlmock.NewRows(customerColumns()).
			AddRow(1, 1, "Test User", "test@example.com", "", "hashed", "customer", time.Now()))

	c, err := repo.FindByEmail(context.Background(), "test@example.com")
	assert.NoError(t, err)
	assert.Equal(t, "Test User", c.Name)
}

func TestRepoEmailExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewRepository(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("taken@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "taken@example.com")
	assert.NoError(t, err)
	assert.True(t, exists)
}
