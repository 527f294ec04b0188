package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/adityarahmanda/trashpoint-backend/api/routes"
	"github.com/adityarahmanda/trashpoint-backend/internal/classify"
	"github.com/adityarahmanda/trashpoint-backend/internal/deposits"
	"github.com/adityarahmanda/trashpoint-backend/internal/ledger"
	"github.com/adityarahmanda/trashpoint-backend/internal/machines"
	"github.com/adityarahmanda/trashpoint-backend/internal/rewards"
	"github.com/adityarahmanda/trashpoint-backend/internal/sessions"
	"github.com/adityarahmanda/trashpoint-backend/internal/vouchers"
	"github.com/adityarahmanda/trashpoint-backend/pkg/config"
	"github.com/adityarahmanda/trashpoint-backend/pkg/db"
	"github.com/adityarahmanda/trashpoint-backend/pkg/logger"
	"github.com/adityarahmanda/trashpoint-backend/pkg/metrics"
	"github.com/adityarahmanda/trashpoint-backend/pkg/migrate"
	"github.com/adityarahmanda/trashpoint-backend/pkg/outbox"
	"github.com/adityarahmanda/trashpoint-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	machineService, err := machines.NewService(machines.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create machine service", err)
		os.Exit(1)
	}

	sessionService, err := sessions.NewService(
		dbClient,
		sessions.NewRepository(dbClient.DB()),
		machines.NewRepository(dbClient.DB()),
		outboxService,
		redisClient,
		logg,
		cfg.Session,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	classifier, err := classify.NewClient(cfg.Classifier, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create classifier client", err)
		os.Exit(1)
	}

	depositService, err := deposits.NewService(
		dbClient,
		deposits.NewRepository(dbClient.DB()),
		machines.NewRepository(dbClient.DB()),
		sessions.NewRepository(dbClient.DB()),
		classifier,
		ledgerService,
		outboxService,
		rewards.DefaultTable(),
		settlementMetrics,
		logg,
		cfg.Rewards,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create deposit service", err)
		os.Exit(1)
	}

	voucherService, err := vouchers.NewService(
		dbClient,
		vouchers.NewRepository(dbClient.DB()),
		ledgerService,
		outboxService,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create voucher service", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:           cfg,
			Logger:           logg,
			DBPinger:         dbClient,
			RedisPinger:      redisClient,
			IdempotencyStore: redisClient,
			Gatherer:         registry,
			Machines:         machineService,
			Sessions:         sessionService,
			Deposits:         depositService,
			Ledger:           ledgerService,
			Vouchers:         voucherService,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
