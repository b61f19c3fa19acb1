package inventory

import (
	"context"
	"database/sql"
)

type Repository interface {
	ListMovements(ctx context.Context, productID string, limit, offset int32) ([]*Movement, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListMovements(ctx context.Context, productID string, limit, offset int32) ([]*Movement, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, type, quantity, before_stock, after_stock,
			note, actor, created_at
		FROM inventory_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movements []*Movement
	for rows.Next() {
		var m Movement
		err := rows.Scan(
			&m.ID,
			&m.ProductID,
			&m.Type,
			&m.Quantity,
			&m.Before,
			&m.After,
			&m.Note,
			&m.Actor,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		movements = append(movements, &m)
	}

	return movements, rows.Err()
}
