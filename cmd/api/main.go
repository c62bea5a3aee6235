package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinic_crm_backend/internal/allocation"
	allochandler "clinic_crm_backend/internal/allocation/handler"
	"clinic_crm_backend/internal/automation"
	"clinic_crm_backend/internal/events"
	"clinic_crm_backend/internal/gamification"
	apphttp "clinic_crm_backend/internal/http"
	"clinic_crm_backend/internal/http/router"
	"clinic_crm_backend/internal/notification"
	"clinic_crm_backend/internal/rfv"
	rfvhandler "clinic_crm_backend/internal/rfv/handler"
	"clinic_crm_backend/internal/scheduler"
	"clinic_crm_backend/platform/config"
	"clinic_crm_backend/platform/db"
	"clinic_crm_backend/platform/logger"
	"clinic_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Scheduler client lets the POST handlers hand batch runs to the
	// background worker; without Redis the handlers run inline.
	var (
		rfvEnqueuer   rfvhandler.Enqueuer
		allocEnqueuer allochandler.Enqueuer
	)
	if cfg.GetRedisURL() != "" {
		client, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer func() { _ = client.Close() }()
		rfvEnqueuer = client
		allocEnqueuer = client
		log.Info("scheduler client initialized", "queue", cfg.GetAsynqQueueName())
	} else {
		log.Warn("REDIS_URL not configured; async job enqueueing disabled")
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.NewModule(pool, cfg, log, staticRecipient(cfg.EmailNotifyAddress))
	gamificationModule := gamification.NewModule(pool, log)
	rfvModule := rfv.NewModule(pool, eventBus, cfg, log, rfvEnqueuer)
	allocationModule := allocation.NewModule(pool, eventBus, val, log, allocEnqueuer)

	automationModule, err := automation.NewModule(pool, eventBus, cfg, log, gamificationModule.Service(), notificationModule.Service())
	if err != nil {
		log.Error("failed to initialize automation module", "error", err)
		panic("failed to initialize automation module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			rfvModule,
			allocationModule,
			automationModule,
			gamificationModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// staticRecipient mirrors every notification to one mailbox. Per-user
// addresses live in the identity system, which is outside this service.
func staticRecipient(address string) func(userID string) (string, bool) {
	if address == "" {
		return nil
	}
	return func(string) (string, bool) {
		return address, true
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
