package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"call-relay/internal/config"
	"call-relay/internal/history"
	"call-relay/internal/provider"
	"call-relay/internal/tenant"
	"call-relay/pkg/logger"
	"call-relay/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// callsync backfills the durable call archive from the provider REST API.
// Run it from cron or by hand; one pass per invocation.
func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	syncer := history.NewSyncer(
		tenant.NewPostgresRepo(db),
		history.NewPostgresRepo(db),
		provider.NewClient(cfg.Provider.BaseURL),
		log,
	)

	stats, err := syncer.SyncAll(rootCtx)
	if err != nil {
		log.Error("sync failed", "err", err)
		os.Exit(1)
	}

	log.Info("sync complete", "synced", stats.Synced, "skipped", stats.Skipped, "failed", stats.Failed)
}
