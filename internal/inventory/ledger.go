package inventory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// ApplyParams describes one stock mutation. Quantity is a magnitude for
// every type except ADJUSTMENT, where it is the signed change itself.
type ApplyParams struct {
	ProductID string
	Type      MovementType
	Quantity  int
	Note      string
	Actor     string
}

// Result reports the stock around a mutation, plus the threshold signals
// the caller should emit after its transaction commits.
type Result struct {
	Before     int
	After      int
	LowStock   bool
	OutOfStock bool
}

// Ledger is the single code path allowed to mutate product stock. Every
// mutation writes the new stock and an append-only movement row in the
// same transaction, so the ledger's after value always equals the
// product's stock at commit time.
type Ledger interface {
	// Apply runs inside the caller's transaction. The caller is
	// responsible for having locked the product row (order transitions
	// lock via catalog.LockForUpdate; standalone adjustments lock here
	// through Service.Adjust).
	Apply(ctx context.Context, tx *sql.Tx, params ApplyParams) (*Result, error)
}

type ledger struct{}

func NewLedger() Ledger {
	return &ledger{}
}

func (l *ledger) Apply(ctx context.Context, tx *sql.Tx, params ApplyParams) (*Result, error) {
	if !params.Type.Valid() {
		return nil, ErrInvalidMovement
	}
	if params.Quantity == 0 {
		return nil, ErrInvalidMovement
	}
	if params.Quantity < 0 && params.Type != TypeAdjustment {
		return nil, ErrInvalidMovement
	}

	var before, threshold int
	err := tx.QueryRowContext(ctx, `
		SELECT stock, low_stock_threshold
		FROM products
		WHERE id = $1
	`, params.ProductID).Scan(&before, &threshold)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	delta := params.Type.Delta(params.Quantity)
	after := before + delta
	if after < 0 {
		return nil, &InsufficientStockError{
			ProductID: params.ProductID,
			Requested: -delta,
			Available: before,
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE products
		SET stock = $1, updated_at = NOW()
		WHERE id = $2
	`, after, params.ProductID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_movements (
			id, product_id, type, quantity, before_stock, after_stock,
			note, actor
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		uuid.NewString(),
		params.ProductID,
		params.Type,
		params.Quantity,
		before,
		after,
		params.Note,
		params.Actor,
	)
	if err != nil {
		return nil, err
	}

	return &Result{
		Before:     before,
		After:      after,
		LowStock:   before > threshold && after <= threshold,
		OutOfStock: before > 0 && after == 0,
	}, nil
}
