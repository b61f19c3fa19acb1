package inventory

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementType_Delta(t *testing.T) {
	tests := []struct {
		movement MovementType
		quantity int
		want     int
	}{
		{TypePurchase, 5, 5},
		{TypeReturn, 3, 3},
		{TypeSale, 5, -5},
		{TypeDamage, 2, -2},
		{TypeAdjustment, 7, 7},
		{TypeAdjustment, -7, -7},
		// Magnitude inputs keep their conventional sign.
		{TypePurchase, -5, 5},
		{TypeSale, -5, -5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.movement.Delta(tt.quantity),
			"%s delta of %d", tt.movement, tt.quantity)
	}
}

// Stock can never go negative regardless of the operation sequence: every
// step either applies cleanly or is rejected whole.
func TestLedger_StockNeverNegative_RandomSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	types := []MovementType{TypePurchase, TypeSale, TypeReturn, TypeDamage, TypeAdjustment}

	stock := 10
	for i := 0; i < 1000; i++ {
		movement := types[rng.Intn(len(types))]
		quantity := rng.Intn(8) + 1
		if movement == TypeAdjustment && rng.Intn(2) == 0 {
			quantity = -quantity
		}

		delta := movement.Delta(quantity)
		after := stock + delta
		if after < 0 {
			// Rejected: state unchanged, matching Apply's behavior.
			continue
		}

		assert.Equal(t, stock+delta, after)
		stock = after
		require.GreaterOrEqual(t, stock, 0)
	}
}

func expectStockRead(mock sqlmock.Sqlmock, productID string, stock, threshold int) {
	mock.ExpectQuery(`SELECT stock, low_stock_threshold FROM products WHERE id = \$1`).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"stock", "low_stock_threshold"}).
			AddRow(stock, threshold))
}

func TestLedger_Apply_Sale(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	ledger := NewLedger()
	ctx := context.Background()

	mock.ExpectBegin()
	expectStockRead(mock, "p1", 10, 5)
	mock.ExpectExec(`UPDATE products SET stock = \$1`).
		WithArgs(7, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO inventory_movements`).
		WithArgs(sqlmock.AnyArg(), "p1", string(TypeSale), 3, 10, 7, "order ORD1", "order-engine").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	result, err := ledger.Apply(ctx, tx, ApplyParams{
		ProductID: "p1",
		Type:      TypeSale,
		Quantity:  3,
		Note:      "order ORD1",
		Actor:     "order-engine",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 10, result.Before)
	assert.Equal(t, 7, result.After)
	assert.False(t, result.LowStock)
	assert.False(t, result.OutOfStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Apply_InsufficientStock(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	ledger := NewLedger()
	ctx := context.Background()

	mock.ExpectBegin()
	expectStockRead(mock, "p1", 3, 5)
	mock.ExpectRollback()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = ledger.Apply(ctx, tx, ApplyParams{
		ProductID: "p1",
		Type:      TypeSale,
		Quantity:  4,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.NoError(t, tx.Rollback())

	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, "p1", short.ProductID)
	assert.Equal(t, 4, short.Requested)
	assert.Equal(t, 3, short.Available)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedger_Apply_Signals(t *testing.T) {
	tests := []struct {
		name       string
		before     int
		quantity   int
		lowStock   bool
		outOfStock bool
	}{
		{"crosses threshold", 7, 3, true, false},
		{"already below threshold", 4, 1, false, false},
		{"reaches zero", 3, 3, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
			require.NoError(t, err)
			defer db.Close()

			after := tt.before - tt.quantity

			mock.ExpectBegin()
			expectStockRead(mock, "p1", tt.before, 5)
			mock.ExpectExec(`UPDATE products SET stock = \$1`).
				WithArgs(after, "p1").
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`INSERT INTO inventory_movements`).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			ctx := context.Background()
			tx, err := db.BeginTx(ctx, nil)
			require.NoError(t, err)

			result, err := NewLedger().Apply(ctx, tx, ApplyParams{
				ProductID: "p1",
				Type:      TypeSale,
				Quantity:  tt.quantity,
			})
			require.NoError(t, err)
			require.NoError(t, tx.Commit())

			assert.Equal(t, tt.lowStock, result.LowStock)
			assert.Equal(t, tt.outOfStock, result.OutOfStock)
			assert.Equal(t, after, result.After)
		})
	}
}

func TestLedger_Apply_RejectsInvalidMovements(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	ledger := NewLedger()

	_, err = ledger.Apply(ctx, tx, ApplyParams{ProductID: "p1", Type: "TRANSMUTE", Quantity: 1})
	assert.ErrorIs(t, err, ErrInvalidMovement)

	_, err = ledger.Apply(ctx, tx, ApplyParams{ProductID: "p1", Type: TypeSale, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidMovement)

	// Negative magnitudes are only meaningful for adjustments.
	_, err = ledger.Apply(ctx, tx, ApplyParams{ProductID: "p1", Type: TypeSale, Quantity: -2})
	assert.ErrorIs(t, err, ErrInvalidMovement)
}

func TestLedger_Apply_ProductNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT stock, low_stock_threshold FROM products`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "low_stock_threshold"}))

	ctx := context.Background()
	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	_, err = NewLedger().Apply(ctx, tx, ApplyParams{ProductID: "ghost", Type: TypeSale, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
}
