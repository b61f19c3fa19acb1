package customer

import (
	"context"
	"database/sql"
	"errors"
)

var ErrCustomerNotFound = errors.New("customer not found")

type Repository interface {
	// GetActive returns the customer when it exists and is active,
	// ErrCustomerNotFound otherwise.
	GetActive(ctx context.Context, id string) (*Customer, error)

	// IncrementStatsTx applies a stats delta inside the caller's
	// transaction. Increments are additive so no broader lock is needed
	// beyond the transaction itself.
	IncrementStatsTx(ctx context.Context, tx *sql.Tx, id string, delta StatsDelta) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetActive(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, is_active, total_orders, total_spent, loyalty_points
		FROM customers
		WHERE id = $1 AND is_active = TRUE
	`, id).Scan(
		&c.ID,
		&c.Email,
		&c.IsActive,
		&c.TotalOrders,
		&c.TotalSpent,
		&c.LoyaltyPoints,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *repository) IncrementStatsTx(ctx context.Context, tx *sql.Tx, id string, delta StatsDelta) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE customers
		SET total_orders = total_orders + $1,
			total_spent = total_spent + $2,
			loyalty_points = loyalty_points + $3,
			updated_at = NOW()
		WHERE id = $4
	`, delta.Orders, delta.Spent, delta.Points, id)
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrCustomerNotFound
	}

	return nil
}
