package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lokapasar-be/internal/catalog"
	"lokapasar-be/internal/customer"
	"lokapasar-be/internal/discount"
	"lokapasar-be/internal/inventory"
	"lokapasar-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockSignal carries a product's post-transition ledger result so the
// service can emit low/out-of-stock events after commit.
type StockSignal struct {
	ProductID string
	Result    inventory.Result
}

// TransitionResult is what a committed transition leaves behind.
type TransitionResult struct {
	Order        *Order
	From         Status
	To           Status
	StockSignals []StockSignal
	ProductIDs   []string
}

type Repository interface {
	// Create persists the order, its item snapshots, the first status
	// history row and the reserved order number in one transaction, and
	// consumes the discount code (if any) in the same transaction so the
	// usage count only moves when the order durably exists.
	Create(ctx context.Context, o *Order) error

	GetByID(ctx context.Context, id string) (*Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*Order, error)
	List(ctx context.Context, filter ListFilter, limit, offset int32) ([]*Order, error)

	// Transition executes one status change with its bound side effects
	// as a single transaction: order row locked, status compare-and-set,
	// history appended, stock moved through the ledger under product row
	// locks, customer stats updated on delivery. Any failure rolls back
	// all of it.
	Transition(ctx context.Context, orderID string, to Status, note, actor string) (*TransitionResult, error)

	SetTracking(ctx context.Context, orderID, trackingNumber string) error
}

type repository struct {
	db            *sql.DB
	catalogRepo   catalog.Repository
	customerRepo  customer.Repository
	discountRepo  discount.Repository
	ledger        inventory.Ledger
	pointsDivisor int64
	now           func() time.Time
}

func NewRepository(
	db *sql.DB,
	catalogRepo catalog.Repository,
	customerRepo customer.Repository,
	discountRepo discount.Repository,
	ledger inventory.Ledger,
	pointsDivisor int64,
) Repository {
	return &repository{
		db:            db,
		catalogRepo:   catalogRepo,
		customerRepo:  customerRepo,
		discountRepo:  discountRepo,
		ledger:        ledger,
		pointsDivisor: pointsDivisor,
		now:           time.Now,
	}
}

func (r *repository) Create(ctx context.Context, o *Order) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("customer_id", o.CustomerID),
		zap.Int("item_count", len(o.Items)),
	)

	shippingAddr, err := json.Marshal(o.ShippingAddr)
	if err != nil {
		return err
	}
	billingAddr, err := json.Marshal(o.BillingAddr)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback create", zap.Error(rbErr))
			}
		}
	}()

	o.OrderNumber, err = nextOrderNumber(ctx, tx, r.now())
	if err != nil {
		return fmt.Errorf("failed to reserve order number: %w", err)
	}

	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, order_number, customer_id, status, payment_status,
			subtotal, discount, tax, shipping, total,
			discount_code, shipping_address, billing_address
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`,
		o.ID,
		o.OrderNumber,
		o.CustomerID,
		o.Status,
		o.PaymentStatus,
		o.Subtotal,
		o.Discount,
		o.Tax,
		o.Shipping,
		o.Total,
		o.DiscountCode,
		shippingAddr,
		billingAddr,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.ID = uuid.NewString()
		item.OrderID = o.ID

		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, order_id, product_id, variant_id,
				name, sku, price, quantity, total
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.VariantID,
			item.Name,
			item.SKU,
			item.Price,
			item.Quantity,
			item.Total,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := insertHistory(ctx, tx, o.ID, o.Status, "order created", "system"); err != nil {
		return err
	}

	if o.DiscountCode != nil && o.Discount.IsPositive() {
		if err := r.discountRepo.ConsumeTx(ctx, tx, *o.DiscountCode); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true

	log.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
	)

	return nil
}

const orderColumns = `
	id, order_number, customer_id, status, payment_status,
	subtotal, discount, tax, shipping, total,
	discount_code, shipping_address, billing_address,
	tracking_number, completed_at, created_at, updated_at
`

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	return r.getBy(ctx, "id", id)
}

func (r *repository) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	return r.getBy(ctx, "order_number", orderNumber)
}

func (r *repository) getBy(ctx context.Context, column, value string) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+column+` = $1
	`, value)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, limit, offset int32) ([]*Order, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter.CustomerID != nil {
		query += fmt.Sprintf(" AND customer_id = $%d", argIndex)
		args = append(args, *filter.CustomerID)
		argIndex++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (r *repository) Transition(ctx context.Context, orderID string, to Status, note, actor string) (*TransitionResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Transition"),
		zap.String("order_id", orderID),
		zap.String("to", string(to)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback transition", zap.Error(rbErr))
			}
		}
	}()

	// Lock the order row first. Two concurrent transitions serialize
	// here; the loser re-reads the winner's status and fails the table
	// check instead of double-applying side effects.
	row := tx.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	from := o.Status
	if err := ValidateTransition(from, to); err != nil {
		return nil, err
	}

	result := &TransitionResult{Order: o, From: from, To: to}

	for _, effect := range EffectsFor(from, to) {
		switch effect {
		case EffectCommitStock:
			if err := r.moveStock(ctx, tx, o, inventory.TypeSale, result); err != nil {
				return nil, err
			}
		case EffectRestoreStock:
			if err := r.moveStock(ctx, tx, o, inventory.TypeReturn, result); err != nil {
				return nil, err
			}
		case EffectCompleteDelivery:
			if err := r.completeDelivery(ctx, tx, o); err != nil {
				return nil, err
			}
		}
	}

	payment := o.PaymentStatus
	switch to {
	case StatusConfirmed:
		// Confirmation means payment arrived.
		payment = PaymentPaid
	case StatusRefunded:
		payment = PaymentRefunded
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
	`, to, payment, o.ID, from)
	if err != nil {
		return nil, err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Unreachable while the row lock is held; kept as a guard.
		return nil, &InvalidTransitionError{From: from, To: to}
	}

	if err := insertHistory(ctx, tx, o.ID, to, note, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	o.Status = to
	o.PaymentStatus = payment
	log.Info("order transitioned", zap.String("from", string(from)))

	return result, nil
}

// moveStock applies one ledger movement per line item, with every touched
// product row locked up front. Confirm uses SALE (decrement), cancel uses
// RETURN (compensating increment). A single short line fails the whole
// transition.
func (r *repository) moveStock(ctx context.Context, tx *sql.Tx, o *Order, movement inventory.MovementType, result *TransitionResult) error {
	items, err := r.loadItemsTx(ctx, tx, o.ID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return ErrEmptyOrder
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	if _, err := r.catalogRepo.LockForUpdate(ctx, tx, ids); err != nil {
		return err
	}

	note := fmt.Sprintf("order %s", o.OrderNumber)
	for _, item := range items {
		res, err := r.ledger.Apply(ctx, tx, inventory.ApplyParams{
			ProductID: item.ProductID,
			Type:      movement,
			Quantity:  item.Quantity,
			Note:      note,
			Actor:     "order-engine",
		})
		if err != nil {
			return err
		}

		result.StockSignals = append(result.StockSignals, StockSignal{
			ProductID: item.ProductID,
			Result:    *res,
		})
	}

	result.ProductIDs = ids
	return nil
}

// completeDelivery stamps completed_at and feeds the order into the
// customer's lifetime stats. The completed_at IS NULL guard makes the
// contribution idempotent even if the transition table were ever relaxed.
func (r *repository) completeDelivery(ctx context.Context, tx *sql.Tx, o *Order) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET completed_at = NOW()
		WHERE id = $1 AND completed_at IS NULL
	`, o.ID)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return nil
	}

	points := o.Total.IntPart() / r.pointsDivisor
	return r.customerRepo.IncrementStatsTx(ctx, tx, o.CustomerID, customer.StatsDelta{
		Orders: 1,
		Spent:  o.Total,
		Points: points,
	})
}

func (r *repository) SetTracking(ctx context.Context, orderID, trackingNumber string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET tracking_number = $1, updated_at = NOW()
		WHERE id = $2
	`, trackingNumber, orderID)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

const itemColumns = `
	id, order_id, product_id, variant_id,
	name, sku, price, quantity, total
`

func (r *repository) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *repository) loadItemsTx(ctx context.Context, tx *sql.Tx, orderID string) ([]Item, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+itemColumns+`
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.VariantID,
			&item.Name,
			&item.SKU,
			&item.Price,
			&item.Quantity,
			&item.Total,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var discountCode, trackingNumber sql.NullString
	var completedAt sql.NullTime
	var shippingAddr, billingAddr []byte

	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerID,
		&o.Status,
		&o.PaymentStatus,
		&o.Subtotal,
		&o.Discount,
		&o.Tax,
		&o.Shipping,
		&o.Total,
		&discountCode,
		&shippingAddr,
		&billingAddr,
		&trackingNumber,
		&completedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if discountCode.Valid {
		o.DiscountCode = &discountCode.String
	}
	if trackingNumber.Valid {
		o.TrackingNumber = &trackingNumber.String
	}
	if completedAt.Valid {
		o.CompletedAt = &completedAt.Time
	}
	if len(shippingAddr) > 0 {
		if err := json.Unmarshal(shippingAddr, &o.ShippingAddr); err != nil {
			return nil, err
		}
	}
	if len(billingAddr) > 0 {
		if err := json.Unmarshal(billingAddr, &o.BillingAddr); err != nil {
			return nil, err
		}
	}

	return &o, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, orderID string, status Status, note, actor string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_history (id, order_id, status, note, actor)
		VALUES ($1,$2,$3,$4,$5)
	`, uuid.NewString(), orderID, status, note, actor)
	if err != nil {
		return fmt.Errorf("failed to insert status history: %w", err)
	}
	return nil
}
