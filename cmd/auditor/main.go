package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"po-manager/config"
	"po-manager/internal/broker"
	"po-manager/internal/store"
	"po-manager/internal/util"
	"po-manager/internal/worker"

	"go.uber.org/zap"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once deferred cleanup has happened
func run() int {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, "auditor"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting audit consumer")

	tp, err := util.InitTracer("po-manager-auditor", cfg.Observ.JaegerEndpoint)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPOEvents, cfg.Kafka.AuditGroup)
	auditWorker := worker.NewAuditWorker(consumer, db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := false
	if err := auditWorker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Audit worker error", zap.Error(err))
		failed = true
	}

	if err := auditWorker.Stop(); err != nil {
		logger.Error("Error closing consumer", zap.Error(err))
	}
	logger.Info("Audit consumer exited")

	// restarting redelivers the uncommitted message
	if failed {
		return 1
	}
	return 0
}
