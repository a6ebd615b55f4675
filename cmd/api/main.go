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

	"call-relay/internal/activecall"
	"call-relay/internal/auth"
	"call-relay/internal/config"
	"call-relay/internal/contact"
	"call-relay/internal/extract"
	"call-relay/internal/fanout"
	"call-relay/internal/httpapi"
	"call-relay/internal/provider"
	"call-relay/internal/relay"
	"call-relay/internal/tenant"
	"call-relay/internal/usage"
	"call-relay/pkg/logger"
	"call-relay/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Service graph. Repos own persistence, services own behavior, handlers
	// stay thin.
	tenants := tenant.NewResolver(tenant.NewPostgresRepo(db))
	tracker := activecall.NewTracker(
		activecall.NewPostgresRepo(db),
		activecall.NewRedisNotifier(rdb, log),
		log,
	)

	var extractor contact.Extractor
	if cfg.Extractor.APIKey != "" {
		extractor = extract.NewOpenAIExtractor(cfg.Extractor.APIKey, cfg.Extractor.Model)
	} else {
		log.Warn("no extractor API key configured, AI identity extraction disabled")
	}
	contacts := contact.NewService(contact.NewPostgresRepo(db), extractor, log)

	recorder := usage.NewRecorder(usage.NewPostgresRepo(db))
	subscribers := fanout.NewPostgresSubscriberRepo(db)
	engine := fanout.NewEngine(subscribers, fanout.NewPostgresDeliveryLogRepo(db), log)

	dispatcher := relay.NewDispatcher(tenants, tracker, contacts, recorder, engine, log)
	webhook := relay.NewHandler(dispatcher)

	providerClient := provider.NewClient(cfg.Provider.BaseURL)
	handlers := httpapi.NewHandlers(authManager, tenants, tracker, subscribers, recorder, providerClient, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, db, webhook, handlers, auth.RequireAccessToken(authManager))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
