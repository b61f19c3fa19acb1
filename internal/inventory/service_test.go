package inventory

import (
	"context"
	"testing"
	"time"

	"lokapasar-be/internal/cache"
	"lokapasar-be/internal/event"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []event.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, events ...event.Event) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newAdjustService(t *testing.T) (Service, sqlmock.Sqlmock, *recordingPublisher, func()) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)

	pub := &recordingPublisher{}
	svc := NewService(db, NewLedger(), NewRepository(db), pub, cache.NopInvalidator{})

	return svc, mock, pub, func() { db.Close() }
}

func TestService_Adjust_Restock(t *testing.T) {
	svc, mock, pub, cleanup := newAdjustService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))
	mock.ExpectQuery(`SELECT stock, low_stock_threshold\s+FROM products`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "low_stock_threshold"}).AddRow(2, 5))
	mock.ExpectExec(`UPDATE products\s+SET stock = \$1`).
		WithArgs(22, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO inventory_movements`).
		WithArgs(sqlmock.AnyArg(), "p1", string(TypePurchase), 20, 2, 22, "supplier delivery", "warehouse").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Adjust(context.Background(), ApplyParams{
		ProductID: "p1",
		Type:      TypePurchase,
		Quantity:  20,
		Note:      "supplier delivery",
		Actor:     "warehouse",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Before)
	assert.Equal(t, 22, result.After)
	assert.False(t, result.LowStock)
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Adjust_DamagePublishesSignals(t *testing.T) {
	svc, mock, pub, cleanup := newAdjustService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))
	mock.ExpectQuery(`SELECT stock, low_stock_threshold\s+FROM products`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "low_stock_threshold"}).AddRow(4, 5))
	mock.ExpectExec(`UPDATE products\s+SET stock = \$1`).
		WithArgs(0, "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO inventory_movements`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := svc.Adjust(context.Background(), ApplyParams{
		ProductID: "p1",
		Type:      TypeDamage,
		Quantity:  4,
		Actor:     "warehouse",
	})
	require.NoError(t, err)

	assert.True(t, result.OutOfStock)
	// Stock was already at or below the threshold, so only the
	// out-of-stock event fires.
	require.Len(t, pub.events, 1)
	out, ok := pub.events[0].(event.InventoryOutOfStock)
	require.True(t, ok)
	assert.Equal(t, "p1", out.ProductID)
}

func TestService_Adjust_ProductNotFound(t *testing.T) {
	svc, mock, _, cleanup := newAdjustService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.Adjust(context.Background(), ApplyParams{
		ProductID: "ghost",
		Type:      TypePurchase,
		Quantity:  5,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_Adjust_InsufficientRollsBack(t *testing.T) {
	svc, mock, pub, cleanup := newAdjustService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM products WHERE id = \$1 FOR UPDATE`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p1"))
	mock.ExpectQuery(`SELECT stock, low_stock_threshold\s+FROM products`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"stock", "low_stock_threshold"}).AddRow(3, 5))
	mock.ExpectRollback()

	_, err := svc.Adjust(context.Background(), ApplyParams{
		ProductID: "p1",
		Type:      TypeAdjustment,
		Quantity:  -5,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Empty(t, pub.events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListMovements(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`FROM inventory_movements\s+WHERE product_id = \$1\s+ORDER BY created_at DESC\s+LIMIT \$2 OFFSET \$3`).
		WithArgs("p1", int32(50), int32(0)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "product_id", "type", "quantity", "before_stock", "after_stock",
			"note", "actor", "created_at",
		}).
			AddRow("m2", "p1", "SALE", 3, 10, 7, "order ORD202508290001", "order-engine", time.Now()).
			AddRow("m1", "p1", "PURCHASE", 10, 0, 10, "initial stock", "warehouse", time.Now()))

	movements, err := repo.ListMovements(context.Background(), "p1", 0, 0)
	require.NoError(t, err)

	require.Len(t, movements, 2)
	assert.Equal(t, TypeSale, movements[0].Type)
	assert.Equal(t, 7, movements[0].After)
	assert.Equal(t, "order-engine", movements[1].Actor)
}
