package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobgraph/backend/internal/ingest"
	"jobgraph/backend/pkg/config"
	"jobgraph/backend/pkg/logger"
)

func main() {
	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting job ingestion...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dedupe ingest.Dedupe
	if cfg.RedisURL != "" {
		rd, err := ingest.DialRedisDedupe(ctx, cfg.RedisURL, cfg.DedupeTTL)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rd.Close()
		dedupe = rd
		log.Info("Dedupe enabled", zap.Duration("ttl", cfg.DedupeTTL))
	}

	client := ingest.NewClient(ingest.ClientConfig{
		JobsURL:    cfg.JobsAPIURL,
		CompanyURL: cfg.CompanyAPIURL,
		RatePerMin: cfg.IngestRatePerMin,
		FailRatio:  cfg.BreakerFailRatio,
	})
	poster := ingest.NewPoster(nil, cfg.BackendURL, cfg.APIKey)
	ingester := ingest.NewIngester(client, poster, dedupe, cfg.IngestPages)

	if cfg.IngestSchedule == "" {
		if _, err := ingester.Run(ctx); err != nil {
			log.Fatal("Ingest run failed", zap.Error(err))
		}
		return
	}

	// six fields, seconds first
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err = c.AddFunc(cfg.IngestSchedule, func() {
		start := time.Now()
		if _, err := ingester.Run(ctx); err != nil {
			log.Error("Ingest run failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		}
	})
	if err != nil {
		log.Fatal("Invalid ingest schedule", zap.String("schedule", cfg.IngestSchedule), zap.Error(err))
	}

	c.Start()
	log.Info("Ingest scheduler started", zap.String("schedule", cfg.IngestSchedule))

	<-ctx.Done()
	log.Info("Stopping ingest scheduler...")
	<-c.Stop().Done()
	log.Info("Ingest scheduler stopped")
}
