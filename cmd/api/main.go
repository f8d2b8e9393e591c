package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"agentshop/internal/checkout"
	"agentshop/internal/config"
	"agentshop/internal/db"
	"agentshop/internal/events"
	"agentshop/internal/httpserver"
	"agentshop/internal/metrics"
	"agentshop/internal/payment"
	orderrepo "agentshop/internal/repository/order"
	sessionrepo "agentshop/internal/repository/session"
	identitysvc "agentshop/internal/service/identity"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("parse config: %v", err)
	}
	taxRate, err := decimal.NewFromString(cfg.Totals.TaxRate)
	if err != nil {
		logger.Fatalf("parse tax rate %q: %v", cfg.Totals.TaxRate, err)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	var orders orderrepo.Repository
	switch cfg.StoreBackend {
	case "pebble":
		pebbleRepo, err := orderrepo.NewPebble(cfg.PebbleDir)
		if err != nil {
			logger.Fatalf("open pebble store: %v", err)
		}
		defer pebbleRepo.Close()
		orders = pebbleRepo
	default:
		orders = orderrepo.NewPostgres(dbpool)
	}

	sessionRepo := sessionrepo.NewPostgres(dbpool)
	identityService := identitysvc.New(sessionRepo)
	gateway := payment.NewClient(cfg.Gateway)
	registry := metrics.NewRegistry()

	totals := checkout.NewTotalsCalculator(cfg.Totals.FlatShippingFeeCents, cfg.Totals.FreeShippingThresholdCents, taxRate)

	var publisher checkout.EventPublisher
	if p := events.NewPublisher(cfg.Kafka.Brokers, cfg.OrderEventsTopic); p != nil {
		defer p.Close()
		publisher = p
		logger.Printf("order events enabled on topic %s", cfg.OrderEventsTopic)
	}

	checkoutService := checkout.New(gateway, orders, totals, logger, registry, publisher)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		CheckoutSvc: checkoutService,
		IdentitySvc: identityService,
		Orders:      orders,
		Metrics:     registry,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
