package main

import (
	"log"
	"net/http"

	"lokapasar-be/internal/cache"
	"lokapasar-be/internal/catalog"
	"lokapasar-be/internal/config"
	"lokapasar-be/internal/customer"
	"lokapasar-be/internal/db"
	"lokapasar-be/internal/discount"
	"lokapasar-be/internal/event"
	"lokapasar-be/internal/inventory"
	"lokapasar-be/internal/logger"
	"lokapasar-be/internal/order"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	var cacheInv cache.Invalidator = cache.NopInvalidator{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cacheInv = cache.NewRedisInvalidator(client)
	}

	var publisher event.Publisher = event.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
		publisher = event.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer publisher.Close()
	}

	catalogRepo := catalog.NewRepository(database)
	customerRepo := customer.NewRepository(database)

	discountRepo := discount.NewRepository(database)
	discountSvc := discount.NewService(discountRepo)

	ledger := inventory.NewLedger()
	inventoryRepo := inventory.NewRepository(database)
	inventorySvc := inventory.NewService(database, ledger, inventoryRepo, publisher, cacheInv)

	orderRepo := order.NewRepository(
		database, catalogRepo, customerRepo, discountRepo, ledger,
		cfg.LoyaltyPointsDivisor,
	)
	orderSvc := order.NewService(
		orderRepo, catalogRepo, customerRepo, discountSvc, cacheInv, publisher,
	)

	h := newHandler(orderSvc, discountSvc, inventorySvc)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{id}", h.getOrder)
		r.Get("/number/{orderNumber}", h.getOrderByNumber)
		r.Post("/{id}/status", h.updateOrderStatus)
		r.Post("/{id}/cancel", h.cancelOrder)
		r.Post("/{id}/tracking", h.setTracking)
	})
	r.Post("/discounts/validate", h.validateDiscount)
	r.Post("/discounts", h.createDiscount)
	r.Get("/discounts", h.listDiscounts)
	r.Post("/inventory/adjust", h.adjustInventory)
	r.Get("/inventory/{productID}/movements", h.listMovements)

	log.Printf("🚀 Order engine listening on :%s", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, r))
}
