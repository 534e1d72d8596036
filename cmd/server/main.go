package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	application, err := app.New(cfg, utils.SystemClock, log)
	if err != nil {
		log.Fatal("failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	// The in-memory store is private to this process, so the server runs the jobs itself.
	if cfg.UsesMemoryStore() {
		c := scheduler.New(cfg.GetSchedulerLocation(), log)
		if err := application.Schedule(c); err != nil {
			log.Fatal("failed to schedule jobs", zap.Error(err))
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      application.Router(),
		ReadTimeout:  cfg.GetReadTimeout(),
		WriteTimeout: cfg.GetWriteTimeout(),
	}

	go func() {
		log.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("server exited")
}
