package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"callcampaign_backend/internal/calls"
	"callcampaign_backend/internal/calls/provider"
	"callcampaign_backend/internal/campaigns"
	"callcampaign_backend/internal/contacts"
	apphttp "callcampaign_backend/internal/http"
	"callcampaign_backend/internal/http/router"
	"callcampaign_backend/internal/scheduler"
	"callcampaign_backend/internal/stats"
	"callcampaign_backend/migrations"
	"callcampaign_backend/platform/ai"
	"callcampaign_backend/platform/config"
	"callcampaign_backend/platform/db"
	"callcampaign_backend/platform/idempotency"
	"callcampaign_backend/platform/logger"
	"callcampaign_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
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

	loc, err := time.LoadLocation(cfg.CampaignTimezone)
	if err != nil {
		log.Error("invalid campaign timezone", "timezone", cfg.CampaignTimezone, "error", err)
		panic("invalid campaign timezone: " + err.Error())
	}

	redisClient, err := idempotency.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer redisClient.Close()
	guard := idempotency.NewRedisGuard(redisClient)

	dispatchClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize dispatch scheduler", "error", err)
		panic("failed to initialize dispatch scheduler: " + err.Error())
	}
	defer dispatchClient.Close()

	dialer := provider.NewClient(provider.Config{
		BaseURL: cfg.ProviderBaseURL,
		APIKey:  cfg.ProviderAPIKey,
	})

	var classifier ai.Classifier = ai.NoopClassifier{}
	if cfg.IsClassifierEnabled() {
		gemini, err := ai.NewGeminiClassifier(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Error("failed to initialize transcript classifier", "error", err)
			panic("failed to initialize transcript classifier: " + err.Error())
		}
		classifier = gemini
		log.Info("transcript classifier enabled", "model", cfg.GeminiModel)
	}

	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	contactsModule := contacts.NewModule(pool, val, log)
	campaignsModule := campaigns.NewModule(pool, contactsModule.Repository(), dispatchClient, dialer, cfg.DialsPerSecond, loc, val, log)
	statsModule := stats.NewModule(pool, contactsModule.Repository(), contactsModule.Service(), campaignsModule.Repository(), loc, val, log)
	callsModule := calls.NewModule(pool, guard, cfg.WebhookLockTTL, contactsModule.Repository(), statsModule.Service(), classifier, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			contactsModule,
			campaignsModule,
			callsModule,
			statsModule,
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
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			log.Warn(name+" failed", "attempt", attempt, "error", err)
			if attempt == attempts {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(baseDelay * time.Duration(attempt)):
			}
			continue
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
