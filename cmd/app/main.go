// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-payments/internal/config"
	"course-payments/internal/infra/adapters/notify"
	"course-payments/internal/infra/adapters/provider"
	pg "course-payments/internal/infra/db/postgres"
	httpapi "course-payments/internal/infra/http"
	"course-payments/internal/infra/logging"
	"course-payments/internal/infra/metrics"
	red "course-payments/internal/infra/redis"
	"course-payments/internal/infra/sched"
	"course-payments/internal/infra/worker"
	"course-payments/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (relaxed validation, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("dev mode enabled")
	}
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Repositories ----
	enrollmentRepo := pg.NewEnrollmentRepo(pool)
	ledgerRepo := pg.NewLedgerRepo(pool)
	processedRepo := pg.NewProcessedEventRepoCacheDecorator(
		pg.NewProcessedEventRepo(pool), redisClient, cfg.Redis.TTL)
	txManager := pg.NewTxManager(pool)

	// ---- Provider adapters ----
	cardAdapter, err := provider.NewCardGatewayAdapter(cfg.Providers.Card.WebhookSecret, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("card gateway adapter")
	}
	regionalAdapter, err := provider.NewRegionalGatewayAdapter(cfg.Providers.Regional.WebhookSecret, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("regional gateway adapter")
	}

	// ---- Side-effect adapters ----
	emailSender, err := notify.NewSMTPEmailSender(cfg.Email, pg.NewUserEmailLookup(pool), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("email sender")
	}
	referralClient, err := notify.NewReferralClient(cfg.Referral, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("referral client")
	}

	// ---- Use cases ----
	resolverUC := usecase.NewResolverUseCase(logger)
	reconcileUC := usecase.NewReconcileUseCase(enrollmentRepo, ledgerRepo, processedRepo, txManager, logger)
	dispatchUC := usecase.NewDispatchUseCase(emailSender, referralClient, logger)
	auditUC := usecase.NewAuditUseCase(enrollmentRepo, ledgerRepo, logger)

	// ---- Side-effect worker pool ----
	pool2 := worker.NewPool(cfg.Dispatch.Workers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	// ---- Ledger auditor ----
	auditor := sched.NewLedgerAuditor(auditUC, locker, cfg.Audit.Interval, cfg.Audit.BatchSize, logger)
	go auditor.Start(ctx)

	// ---- HTTP server ----
	srv := httpapi.NewServer(cfg, cardAdapter, regionalAdapter, resolverUC, reconcileUC, dispatchUC, pool2, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
