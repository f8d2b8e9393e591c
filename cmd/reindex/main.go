package main

import (
	"context"
	"log"
	"os"

	"agentshop/internal/config"
	"agentshop/internal/db"
	orderrepo "agentshop/internal/repository/order"
)

// reindex re-derives every order index entry from the stored orders. Safe to
// run at any time; the index merge is keyed by order ID.
func main() {
	logger := log.New(os.Stdout, "[reindex] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatalf("parse config: %v", err)
	}

	ctx := context.Background()

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
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect db: %v", err)
		}
		defer pool.Close()
		orders = orderrepo.NewPostgres(pool)
	}

	count, err := orders.RebuildIndex(ctx)
	if err != nil {
		logger.Fatalf("rebuild index: %v", err)
	}
	logger.Printf("rebuilt %d index entries", count)
}
