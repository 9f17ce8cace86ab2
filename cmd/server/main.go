package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/restopos/api/internal/cart"
	"github.com/restopos/api/internal/catalog"
	"github.com/restopos/api/internal/config"
	"github.com/restopos/api/internal/kitchen"
	"github.com/restopos/api/internal/orderstore"
	"github.com/restopos/api/internal/router"
	"github.com/restopos/api/internal/store"
	"github.com/restopos/api/internal/vat"
	"github.com/restopos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		var err error
		pool, err = store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer pool.Close()
		log.Println("Connected to database")
	}

	// Menu catalog
	var menu catalog.Provider
	switch {
	case pool != nil:
		menu = catalog.NewPostgresProvider(pool)
	case cfg.CatalogFile != "":
		c, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			log.Fatalf("Failed to load catalog: %v", err)
		}
		menu = catalog.NewMemoryProvider(c)
		log.Printf("Loaded %d items and %d bundles from %s", len(c.Items), len(c.Bundles), cfg.CatalogFile)
	default:
		log.Println("WARN: no DATABASE_URL or CATALOG_FILE, serving an empty catalog")
		menu = catalog.NewMemoryProvider(nil)
	}

	// Cart repository: Redis when reachable, memory otherwise
	var carts cart.Repository = cart.NewMemoryRepository()
	if cfg.RedisURL != "" {
		rdb, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("WARN: redis unavailable, keeping carts in memory: %v", err)
		} else {
			defer rdb.Close()
			carts = store.NewRedisCarts(rdb, store.DefaultCartTTL)
			log.Println("Carts stored in Redis")
		}
	}

	// Order Store and pickup ledger
	var (
		orders orderstore.Store
		local  *orderstore.Postgres
		ledger kitchen.Ledger = kitchen.NewMemoryLedger()
	)
	switch {
	case cfg.OrderStoreURL != "":
		orders = orderstore.NewClient(cfg.OrderStoreURL, cfg.NetTimeout, cfg.Retry).WithToken(cfg.OrderStoreToken)
		log.Printf("Using remote order store at %s", cfg.OrderStoreURL)
	case pool != nil:
		local = orderstore.NewPostgres(pool)
		orders = local
		ledger = local
	default:
		log.Fatal("Either ORDER_STORE_URL or DATABASE_URL is required")
	}

	// VAT
	var rates vat.Provider = vat.Static{Rate: cfg.VATRate}
	if cfg.VATURL != "" {
		rates = vat.NewFallback(vat.NewHTTP(cfg.VATURL, cfg.NetTimeout, cfg.Retry))
	}

	hub := ws.NewHub()
	go hub.Run()

	kitchens := kitchen.NewService(kitchen.NewBoard(), orders, ledger, hub)
	hub.SetSnapshot(func(k string) any {
		views := kitchens.Orders(k)
		if views == nil {
			views = []kitchen.View{}
		}
		return views
	})
	go kitchen.NewPoller(kitchens, cfg.PollInterval).Run(ctx)

	svc := router.Services{
		Catalog:  menu,
		Carts:    cart.NewService(carts, menu, rates, orders),
		Kitchens: kitchens,
		VAT:      rates,
	}
	if local != nil {
		svc.Store = local
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, svc, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: forced shutdown: %v", err)
	}
	log.Println("Server exiting")
}
