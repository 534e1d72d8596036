package main

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/segyhp/claimant-engine/internal/app"
	"github.com/segyhp/claimant-engine/internal/config"
	"github.com/segyhp/claimant-engine/internal/logger"
	"github.com/segyhp/claimant-engine/internal/scheduler"
	"github.com/segyhp/claimant-engine/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("failed to load configuration", zap.Error(err))
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if cfg.UsesMemoryStore() {
		log.Warn("scheduler started with the in-memory store, it only sees messages it creates itself")
	}

	application, err := app.New(cfg, utils.SystemClock, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	c := scheduler.New(cfg.GetSchedulerLocation(), log)
	if err := application.Schedule(c); err != nil {
		log.Fatal("failed to schedule jobs", zap.Error(err))
	}

	c.Start()
	log.Info("scheduler started",
		zap.String("message_processor_cron", cfg.Scheduler.MessageProcessorCron),
		zap.String("payment_cycle_cron", cfg.Scheduler.PaymentCycleCron),
		zap.String("timezone", cfg.Scheduler.Timezone),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down scheduler")
	<-c.Stop().Done()
	log.Info("scheduler stopped")
}
