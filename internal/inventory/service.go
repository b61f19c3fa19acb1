package inventory

import (
	"context"
	"database/sql"

	"lokapasar-be/internal/cache"
	"lokapasar-be/internal/event"
	"lokapasar-be/internal/logger"

	"go.uber.org/zap"
)

// Service exposes standalone stock mutations (restock, damage write-off,
// manual adjustment) and ledger reads. Order-driven mutations go through
// the Ledger inside the order transaction instead.
type Service interface {
	Adjust(ctx context.Context, params ApplyParams) (*Result, error)
	Movements(ctx context.Context, productID string, limit, offset int32) ([]*Movement, error)
}

type service struct {
	db        *sql.DB
	ledger    Ledger
	repo      Repository
	publisher event.Publisher
	cache     cache.Invalidator
}

func NewService(db *sql.DB, ledger Ledger, repo Repository, publisher event.Publisher, cacheInv cache.Invalidator) Service {
	return &service{
		db:        db,
		ledger:    ledger,
		repo:      repo,
		publisher: publisher,
		cache:     cacheInv,
	}
}

func (s *service) Adjust(ctx context.Context, params ApplyParams) (*Result, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Adjust"),
		zap.String("product_id", params.ProductID),
		zap.String("type", string(params.Type)),
		zap.Int("quantity", params.Quantity),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to rollback adjustment", zap.Error(rbErr))
			}
		}
	}()

	// Lock the product row before reading stock. The ledger itself reads
	// without locking and relies on the caller for serialization.
	var productID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM products WHERE id = $1 FOR UPDATE
	`, params.ProductID).Scan(&productID)
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	result, err := s.ledger.Apply(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	log.Info("stock adjusted",
		zap.Int("before", result.Before),
		zap.Int("after", result.After),
	)

	s.cache.InvalidateProducts(ctx, []string{params.ProductID})
	s.publishSignals(ctx, params.ProductID, result)

	return result, nil
}

func (s *service) Movements(ctx context.Context, productID string, limit, offset int32) ([]*Movement, error) {
	return s.repo.ListMovements(ctx, productID, limit, offset)
}

func (s *service) publishSignals(ctx context.Context, productID string, result *Result) {
	var events []event.Event
	if result.LowStock {
		events = append(events, event.InventoryLowStock{
			ProductID: productID,
			Stock:     result.After,
		})
	}
	if result.OutOfStock {
		events = append(events, event.InventoryOutOfStock{ProductID: productID})
	}
	if len(events) > 0 {
		_ = s.publisher.Publish(ctx, events...)
	}
}
