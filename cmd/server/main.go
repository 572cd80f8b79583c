// Package main is the entry point for the Ayanna API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ayanna/internal/config"
	"ayanna/internal/domain/accounting"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/domain/journal"
	"ayanna/internal/domain/purchase"
	"ayanna/internal/domain/reports"
	"ayanna/internal/domain/sales"
	"ayanna/internal/domain/stock"
	v1 "ayanna/internal/infrastructure/http/v1"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/internal/infrastructure/storage/postgres/accounting_repo"
	"ayanna/internal/infrastructure/storage/postgres/catalog_repo"
	"ayanna/internal/infrastructure/storage/postgres/document_repo"
	"ayanna/internal/infrastructure/storage/postgres/register_repo"
	"ayanna/internal/infrastructure/storage/postgres/report_repo"
	"ayanna/pkg/logger"
	"ayanna/pkg/numerator"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting ayanna server", "env", cfg.Env, "version", version)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = min(poolCfg.MinConns, cfg.DBMaxConns)
	poolCfg.StatementTimeout = cfg.DBStatementTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Infow("database connection established", "max_conns", poolCfg.MaxConns)

	txm := postgres.NewTxManager(pool)

	// --- Repositories ---
	catalogRepo := catalog_repo.NewCatalogRepo(txm)
	accountingRepo := accounting_repo.NewAccountingRepo(txm)
	journalRepo := accounting_repo.NewJournalRepo(txm)
	stockRepo := register_repo.NewStockRepo(txm)
	cartRepo := document_repo.NewCartRepo(txm)
	reportRepo := report_repo.NewReportRepo(txm)

	// --- Infrastructure services ---
	outbox := postgres.NewOutboxPublisher(txm)
	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}
	// Sequence numbers are taken inside the caller's session so they roll back with it.
	sequencer := numerator.NewWithQuerier(func(ctx context.Context) numerator.Querier {
		return txm.GetQuerier(ctx)
	}, nil)

	// --- Domain services ---
	catalogService := catalog.NewService(catalogRepo, txm)
	accountingService := accounting.NewService(accountingRepo, txm)
	journalEngine := journal.NewEngine(journalRepo, accountingRepo, txm,
		journal.WithStrictInvariants(cfg.Development()))
	stockService := stock.NewService(stockRepo, txm)

	salesService := sales.NewService(sales.Deps{
		Repo:      cartRepo,
		Catalog:   catalogService,
		Accounts:  accountingService,
		Journals:  journalEngine,
		Stock:     stockService,
		TxManager: txm,
		Sequencer: sequencer,
		Events:    outbox,
		Audit:     auditService,
	})
	purchaseService := purchase.NewService(catalogService, accountingService, stockService,
		journalEngine, txm, outbox, auditService)
	reportService := reports.NewService(reportRepo, stockService, catalogService)

	// --- Router ---
	router, err := v1.NewRouter(v1.RouterConfig{
		Pool:   pool,
		Logger: log,
		Services: v1.Services{
			Sales:      salesService,
			Accounting: accountingService,
			Journals:   journalEngine,
			Stock:      stockService,
			Purchase:   purchaseService,
			Catalog:    catalogService,
			Reports:    reportService,
		},
		Idempotency: postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
		CORSOrigins: cfg.CORSOrigins,
		Mode:        cfg.GinMode,
		Version:     version,
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
