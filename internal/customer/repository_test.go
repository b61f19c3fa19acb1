package customer

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_GetActive(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`FROM customers\s+WHERE id = \$1 AND is_active = TRUE`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "is_active", "total_orders", "total_spent", "loyalty_points",
		}).AddRow("c1", "dewi@example.com", true, 4, "1250000", int64(125)))

	c, err := repo.GetActive(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, "c1", c.ID)
	assert.Equal(t, 4, c.TotalOrders)
	assert.True(t, c.TotalSpent.Equal(decimal.RequireFromString("1250000")))
	assert.Equal(t, int64(125), c.LoyaltyPoints)
}

func TestRepository_GetActive_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	// An inactive customer falls out of the WHERE clause, so both missing
	// and deactivated customers surface the same way.
	mock.ExpectQuery(`FROM customers\s+WHERE id = \$1 AND is_active = TRUE`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "is_active", "total_orders", "total_spent", "loyalty_points",
		}))

	_, err = repo.GetActive(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestRepository_IncrementStatsTx(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE customers\s+SET total_orders = total_orders \+ \$1`).
		WithArgs(1, decimal.RequireFromString("150000"), int64(15), "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.IncrementStatsTx(context.Background(), tx, "c1", StatsDelta{
		Orders: 1,
		Spent:  decimal.RequireFromString("150000"),
		Points: 15,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_IncrementStatsTx_MissingCustomer(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE customers\s+SET total_orders = total_orders \+ \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.IncrementStatsTx(context.Background(), tx, "ghost", StatsDelta{Orders: 1})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}
