package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"julianmorley.ca/con-plar/storefront/internal/router"
	"julianmorley.ca/con-plar/storefront/pkg/cart"
	"julianmorley.ca/con-plar/storefront/pkg/catalog"
	"julianmorley.ca/con-plar/storefront/pkg/checkout"
	"julianmorley.ca/con-plar/storefront/pkg/events"
	"julianmorley.ca/con-plar/storefront/pkg/global"
	"julianmorley.ca/con-plar/storefront/pkg/logger"
	"julianmorley.ca/con-plar/storefront/pkg/models"
	"julianmorley.ca/con-plar/storefront/pkg/mongo"
	"julianmorley.ca/con-plar/storefront/pkg/redis"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := global.LoadConfig()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "storefront",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
	})
	if envErr != nil {
		log.Info("no .env file loaded, using process environment", "error", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg global.Config, log *slog.Logger) error {
	startCtx, cancel := global.GetDefaultTimer()
	defer cancel()

	db, err := mongo.Connect(startCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			log.Warn("mongo disconnect failed", "error", err)
		}
	}()
	log.Info("connected to MongoDB", "database", cfg.MongoDatabase)

	if err := mongo.EnsureCollections(startCtx, db); err != nil {
		return err
	}
	if err := mongo.EnsureIndexes(startCtx, db); err != nil {
		return err
	}

	products := mongo.NewProductStore(db)
	seeded, err := products.SeedIfEmpty(startCtx, models.StarterProducts())
	if err != nil {
		return err
	}
	if seeded {
		log.Info("seeded starter products")
	}

	// Redis is required for the redis cart backend and optional otherwise.
	rdb, err := redis.Connect(startCtx, cfg)
	switch {
	case err == nil:
		defer rdb.Close()
	case cfg.CartBackend == global.CartBackendRedis:
		return err
	default:
		log.Warn("redis unavailable, product cache disabled", "error", err)
		rdb = nil
	}

	var cache catalog.ProductCache
	if rdb != nil {
		cache = redis.NewProductCache(rdb, cfg.ProductCacheTTL)
	}
	catalogs := catalog.NewService(products, cache, log)

	var store cart.Store = cart.NewMemoryStore()
	if cfg.CartBackend == global.CartBackendRedis {
		store = redis.NewCartStore(rdb, cfg.CartTTL)
	}
	carts := cart.NewService(store, catalogs, log)

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.OrdersTopic, cfg.KafkaBrokers...)
		log.Info("publishing order events", "topic", cfg.OrdersTopic, "brokers", cfg.KafkaBrokers)
	}
	defer publisher.Close()

	ledger := mongo.NewOrderLedger(db, cfg.MongoTransactions)
	checkouts := checkout.NewService(catalogs, ledger, carts, publisher, checkout.Options{
		StrictPricing: cfg.StrictPricing,
		Currency:      cfg.Currency.String(),
		Logger:        log,
	})

	h := router.NewHandler(router.Deps{
		Products: catalogs,
		Carts:    carts,
		Checkout: checkouts,
		Orders:   ledger,
		Health:   mongo.NewPinger(db),
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.NewEngine(cfg, h, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server is running", "port", cfg.Port, "cart_backend", cfg.CartBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
