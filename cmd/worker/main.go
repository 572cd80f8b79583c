// Package main is the entry point for the Ayanna background worker: it relays
// outbox events and enforces retention on the outbox, audit and idempotency tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ayanna/internal/config"
	"ayanna/internal/infrastructure/storage/postgres"
	"ayanna/pkg/logger"
)

// publishedRetention is how long delivered outbox rows are kept.
const publishedRetention = 7 * 24 * time.Hour

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

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting ayanna worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.MaxConns = 4
	poolCfg.MinConns = 1
	poolCfg.StatementTimeout = cfg.DBStatementTimeout

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	worker, err := NewWorker(pool, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize worker", "error", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker processes background jobs.
type Worker struct {
	relay       *postgres.OutboxRelay
	audit       *postgres.AuditService
	idempotency *postgres.IdempotencyStore
	cfg         *config.Config
	log         *logger.Logger
}

// NewWorker wires the relay and the retention jobs on pool.
func NewWorker(pool *postgres.Pool, cfg *config.Config, log *logger.Logger) (*Worker, error) {
	txm := postgres.NewTxManager(pool)
	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		return nil, err
	}
	log = log.WithComponent("worker")
	return &Worker{
		relay:       postgres.NewOutboxRelay(pool.Unwrap(), 100, NewDispatcher(log)),
		audit:       auditService,
		idempotency: postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL),
		cfg:         cfg,
		log:         log,
	}, nil
}

// Run polls the outbox until ctx is cancelled and runs the cleanup jobs hourly.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.OutboxPollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	w.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanup(ctx)
		}
	}
}

// drainOutbox processes full batches back to back until the outbox is empty.
func (w *Worker) drainOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n == 0 {
			return
		}
		w.log.Debugw("processed outbox batch", "count", n)
	}
}

func (w *Worker) cleanup(ctx context.Context) {
	now := time.Now().UTC()
	jobs := []struct {
		name string
		run  func(context.Context) (int64, error)
	}{
		{"outbox dlq", w.relay.MoveToDLQ},
		{"outbox published", func(ctx context.Context) (int64, error) {
			return w.relay.PurgePublished(ctx, now.Add(-publishedRetention))
		}},
		{"audit", func(ctx context.Context) (int64, error) {
			return w.audit.Purge(ctx, now.Add(-w.cfg.AuditRetention))
		}},
		{"idempotency", w.idempotency.CleanupExpired},
	}
	for _, job := range jobs {
		n, err := job.run(ctx)
		if err != nil {
			w.log.Errorw("cleanup failed", "job", job.name, "error", err)
			continue
		}
		if n > 0 {
			w.log.Infow("cleaned up rows", "job", job.name, "count", n)
		}
	}
}
