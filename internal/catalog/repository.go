package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

type Repository interface {
	GetProductsByIDs(ctx context.Context, ids []string) (map[string]*Product, error)

	// LockForUpdate re-reads the given products inside tx with
	// SELECT ... FOR UPDATE. IDs are locked in ascending order so two
	// concurrent transitions touching the same set of products cannot
	// deadlock on lock order.
	LockForUpdate(ctx context.Context, tx *sql.Tx, ids []string) (map[string]*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const productColumns = `
	id, sku, name, base_price, sale_price,
	stock, low_stock_threshold, is_active, attributes
`

func (r *repository) GetProductsByIDs(ctx context.Context, ids []string) (map[string]*Product, error) {
	if len(ids) == 0 {
		return map[string]*Product{}, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func (r *repository) LockForUpdate(ctx context.Context, tx *sql.Tx, ids []string) (map[string]*Product, error) {
	if len(ids) == 0 {
		return map[string]*Product{}, nil
	}

	ordered := append([]string(nil), ids...)
	sort.Strings(ordered)

	rows, err := tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, pq.Array(ordered))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProducts(rows)
}

func scanProducts(rows *sql.Rows) (map[string]*Product, error) {
	products := make(map[string]*Product)

	for rows.Next() {
		var p Product
		var sale decimal.NullDecimal
		var attrs []byte

		err := rows.Scan(
			&p.ID,
			&p.SKU,
			&p.Name,
			&p.BasePrice,
			&sale,
			&p.Stock,
			&p.LowStockThreshold,
			&p.IsActive,
			&attrs,
		)
		if err != nil {
			return nil, err
		}

		if sale.Valid {
			p.SalePrice = &sale.Decimal
		}

		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
				return nil, err
			}
		}

		products[p.ID] = &p
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}
