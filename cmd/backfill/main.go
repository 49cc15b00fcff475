package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/config"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/logging"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/meterapi"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/repository"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/service"
)

func main() {
	fromFlag := flag.String("from", "", "oldest date to backfill (YYYY-MM-DD), overrides backfill.from")
	toFlag := flag.String("to", "", "newest date to backfill (YYYY-MM-DD), defaults to yesterday")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)
	defer logger.Sync()

	from, err := civil.ParseDate(firstNonEmpty(*fromFlag, cfg.Backfill.From))
	if err != nil {
		logger.Fatal("Invalid backfill start date", zap.Error(err))
	}

	to := civil.DateOf(time.Now().In(cfg.Health.Location)).AddDays(-1)
	if *toFlag != "" {
		if to, err = civil.ParseDate(*toFlag); err != nil {
			logger.Fatal("Invalid backfill end date", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := repository.Open(ctx, cfg.Storage, cfg.Sensors, logger)
	if err != nil {
		logger.Fatal("Failed to open reading store", zap.Error(err))
	}
	defer closeStore()

	client := meterapi.NewClient(cfg.MeterAPI.BaseURL, cfg.MeterAPI.Timeout, cfg.MeterAPI.Attempts, logger)
	job := service.NewBackfillService(client, store, cfg.Sensors, cfg.Backfill.EmptyDaysToStop, logger)

	stats, err := job.Run(ctx, from, to)
	if err != nil {
		logger.Error("Backfill aborted", zap.Error(err), zap.Stringer("stats", stats))
		closeStore()
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("Backfill complete", zap.Stringer("stats", stats))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
