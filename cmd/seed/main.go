// Package main applies the database schema and seeds a demo enterprise.
package main

import (
	"context"
	"fmt"
	"os"

	"ayanna/internal/config"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/stock"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/internal/infrastructure/storage/postgres/accounting_repo"
	"ayanna/internal/infrastructure/storage/postgres/catalog_repo"
	"ayanna/internal/infrastructure/storage/postgres/register_repo"
	"ayanna/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "false" {
		log.Info("demo data skipped")
		return
	}

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM core_enterprises WHERE name = $1)`, demoEnterpriseName).Scan(&exists); err != nil {
		log.Fatalw("failed to check existing data", "error", err)
	}
	if exists {
		log.Infow("demo enterprise already present, skipping", "name", demoEnterpriseName)
		return
	}

	txm := postgres.NewTxManager(pool)
	accountingRepo := accounting_repo.NewAccountingRepo(txm)
	s := &seeder{
		catalog:    catalog_repo.NewCatalogRepo(txm),
		warehouses: register_repo.NewStockRepo(txm),
		accounting: accounting.NewService(accountingRepo, txm),
	}
	s.stock = stock.NewService(s.warehouses, txm)

	if err := txm.RunInTransaction(ctx, s.seed); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Infow("seeding completed successfully", "enterprise_id", s.enterpriseID)
}
