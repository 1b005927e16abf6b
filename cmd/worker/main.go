package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"callcampaign_backend/internal/calls/provider"
	campaignrepo "callcampaign_backend/internal/campaigns/repository"
	campaignsvc "callcampaign_backend/internal/campaigns/service"
	contactsrepo "callcampaign_backend/internal/contacts/repository"
	"callcampaign_backend/internal/scheduler"
	"callcampaign_backend/platform/config"
	"callcampaign_backend/platform/db"
	"callcampaign_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting dispatch worker", "env", cfg.Env, "queue", cfg.AsynqQueueName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	loc, err := time.LoadLocation(cfg.CampaignTimezone)
	if err != nil {
		log.Error("invalid campaign timezone", "timezone", cfg.CampaignTimezone, "error", err)
		panic("invalid campaign timezone: " + err.Error())
	}

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

	runner := campaignsvc.New(
		campaignrepo.New(pool),
		contactsrepo.New(pool),
		dispatchClient,
		dialer,
		cfg.DialsPerSecond,
		loc,
		log,
	)

	worker, err := scheduler.NewWorker(cfg, runner, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	log.Info("dispatch worker running")
	worker.Run(ctx)
	log.Info("dispatch worker stopped")
}
