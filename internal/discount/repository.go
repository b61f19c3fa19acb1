package discount

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Discount, error)
	Create(ctx context.Context, d *Discount) error
	List(ctx context.Context, limit, offset int32) ([]*Discount, error)

	// ConsumeTx increments usage_count inside the caller's transaction,
	// guarded by the usage limit. Returns ErrDiscountInvalid when the cap
	// was reached between validation and consumption. The count is never
	// decremented, even when the owning order is later cancelled: it
	// records consumption events, not live orders, which keeps a capped
	// code from being drained by cancel-and-reapply loops.
	ConsumeTx(ctx context.Context, tx *sql.Tx, code string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const discountColumns = `
	id, code, type, value, min_order_value, max_discount,
	usage_limit, usage_count, start_date, end_date, is_active,
	created_at, updated_at
`

func (r *repository) GetByCode(ctx context.Context, code string) (*Discount, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+discountColumns+`
		FROM discounts
		WHERE code = $1
	`, NormalizeCode(code))

	d, err := scanDiscount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDiscountNotFound
	}
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (r *repository) Create(ctx context.Context, d *Discount) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.Code = NormalizeCode(d.Code)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO discounts (
			id, code, type, value, min_order_value, max_discount,
			usage_limit, start_date, end_date, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`,
		d.ID,
		d.Code,
		d.Type,
		d.Value,
		decimalPtr(d.MinOrderValue),
		decimalPtr(d.MaxDiscount),
		d.UsageLimit,
		d.StartDate,
		d.EndDate,
		d.IsActive,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return err
	}

	return nil
}

func (r *repository) List(ctx context.Context, limit, offset int32) ([]*Discount, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+discountColumns+`
		FROM discounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discounts []*Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, d)
	}

	return discounts, rows.Err()
}

func (r *repository) ConsumeTx(ctx context.Context, tx *sql.Tx, code string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE discounts
		SET usage_count = usage_count + 1,
			updated_at = NOW()
		WHERE code = $1
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`, NormalizeCode(code))
	if err != nil {
		return err
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return &InvalidError{Code: NormalizeCode(code), Reason: ReasonUsageExceeded}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiscount(row rowScanner) (*Discount, error) {
	var d Discount
	var minOrder, maxDiscount decimal.NullDecimal
	var usageLimit sql.NullInt32

	err := row.Scan(
		&d.ID,
		&d.Code,
		&d.Type,
		&d.Value,
		&minOrder,
		&maxDiscount,
		&usageLimit,
		&d.UsageCount,
		&d.StartDate,
		&d.EndDate,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if minOrder.Valid {
		d.MinOrderValue = &minOrder.Decimal
	}
	if maxDiscount.Valid {
		d.MaxDiscount = &maxDiscount.Decimal
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int32)
		d.UsageLimit = &limit
	}

	return &d, nil
}

func decimalPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}

// pgUniqueViolation is the postgres error code for unique_violation.
const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolation
	}
	return false
}
