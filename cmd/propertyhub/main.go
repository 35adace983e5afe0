package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/salamjillani/mauritius-property-hub/internal/adapter/cloudinary"
	phhttp "github.com/salamjillani/mauritius-property-hub/internal/adapter/http"
	phnats "github.com/salamjillani/mauritius-property-hub/internal/adapter/nats"
	phOtel "github.com/salamjillani/mauritius-property-hub/internal/adapter/otel"
	"github.com/salamjillani/mauritius-property-hub/internal/adapter/postgres"
	"github.com/salamjillani/mauritius-property-hub/internal/adapter/ristretto"
	_ "github.com/salamjillani/mauritius-property-hub/internal/adapter/slack" // register slack notifier
	"github.com/salamjillani/mauritius-property-hub/internal/config"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/authz"
	"github.com/salamjillani/mauritius-property-hub/internal/logger"
	"github.com/salamjillani/mauritius-property-hub/internal/port/media"
	"github.com/salamjillani/mauritius-property-hub/internal/port/notifier"
	"github.com/salamjillani/mauritius-property-hub/internal/resilience"
	"github.com/salamjillani/mauritius-property-hub/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	queue, err := phnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()
	log.Info("nats connected", "url", cfg.NATS.URL)

	listingCache, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer listingCache.Close()

	shutdownOtel, err := phOtel.Setup(ctx, cfg.Otel, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			log.Error("otel shutdown", "error", err)
		}
	}()

	metrics, err := phOtel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	var notifiers []notifier.Notifier
	if cfg.Notifier.Provider != "" {
		n, err := notifier.New(cfg.Notifier.Provider, map[string]string{
			"webhook_url": cfg.Notifier.WebhookURL,
		})
		if err != nil {
			return fmt.Errorf("notifier: %w", err)
		}
		notifiers = append(notifiers, n)
		log.Info("notifier configured", "provider", n.Name())
	}

	var mediaStore media.Store
	if cfg.Media.APIKey != "" {
		breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
		mediaStore = cloudinary.New(cfg.Media, breaker)
		log.Info("media store configured", "cloud", cfg.Media.CloudName)
	}

	// --- Services ---

	store := postgres.NewStore(pool)
	resolver := authz.NewResolver(store)

	authSvc := service.NewAuthService(store, &cfg.Auth)
	if err := authSvc.SeedDefaultAdmin(ctx, log); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	notificationSvc := service.NewNotificationService(store, notifiers, log)
	ledgerSvc := service.NewLedgerService(store, queue, listingCache, log)
	listingSvc := service.NewListingService(
		store, resolver, notificationSvc, queue, listingCache, mediaStore,
		metrics, cfg.Cache.ListingTTL, log,
	)
	registrationSvc := service.NewRegistrationService(store, notificationSvc, log)
	reconcileSvc := service.NewReconcileService(store, notificationSvc, metrics, cfg.Ledger.ReservationTTL, log)

	// Periodic reconciliation of leaked slot reservations.
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Ledger.ReconcileSchedule, func() {
		runCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := reconcileSvc.Run(runCtx); err != nil {
			log.Error("reservation reconcile", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("reconcile schedule: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// --- HTTP ---

	handler := phhttp.NewHandler(authSvc, listingSvc, ledgerSvc, registrationSvc, notificationSvc, log)
	router := phhttp.NewRouter(handler, authSvc, *cfg)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
		}
	}()

	<-done
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
