package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ArowuTest/lottery-ticketing-backend/api/routes"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/app"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/config"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/logger"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/worker"
)

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is not configured")
	}
	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		os.Exit(1)
	}

	var wg sync.WaitGroup
	if cfg.Reaper.Enabled {
		worker.StartReaper(ctx, &wg, a.Services.Expiry, cfg.Reaper.Interval)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: routes.SetupRouter(cfg, a.Services),
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	wg.Wait()
	if err := a.Close(shutdownCtx); err != nil {
		logger.Warn("close resources", zap.Error(err))
	}
	logger.Info("server exiting")
}
