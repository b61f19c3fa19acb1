package order

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// FormatOrderNumber renders ORD<yyyymmdd><4-digit sequence>.
func FormatOrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("ORD%s%04d", day.UTC().Format("20060102"), seq)
}

// nextOrderNumber reserves the next date-scoped sequence inside the
// caller's transaction. The per-day counter row is bumped with a single
// atomic upsert, so two concurrent creations can never draw the same
// number; a count-then-insert would race.
func nextOrderNumber(ctx context.Context, tx *sql.Tx, now time.Time) (string, error) {
	day := now.UTC().Truncate(24 * time.Hour)

	var seq int
	err := tx.QueryRowContext(ctx, `
		INSERT INTO order_sequences (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE
		SET seq = order_sequences.seq + 1
		RETURNING seq
	`, day).Scan(&seq)
	if err != nil {
		return "", err
	}

	return FormatOrderNumber(day, seq), nil
}
