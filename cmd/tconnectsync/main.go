package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/config"
	"github.com/jwoglom/tconnectsync-sub000/internal/logger"
	"github.com/jwoglom/tconnectsync-sub000/internal/poller"
	"github.com/jwoglom/tconnectsync-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, "tconnectsync")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting tconnectsync",
		zap.String("tconnect_base_url", cfg.TConnect.BaseURL),
		zap.String("nightscout_url", cfg.Nightscout.URL),
		zap.Bool("pretend", cfg.Pretend),
	)

	syncService, err := service.NewSyncService(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create sync service", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- syncService.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigChan:
		zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		// fatal poll conditions exit non-zero so a process supervisor
		// restarts the service
		if errors.Is(err, poller.ErrDeviceSilent) || errors.Is(err, poller.ErrPipelineSilent) {
			zapLogger.Error("Poll driver stopped", zap.Error(err))
			exitCode = 1
		} else if err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("Sync service stopped unexpectedly", zap.Error(err))
			exitCode = 1
		}
	}

	cancel()
	if err := syncService.Stop(context.Background()); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
	os.Exit(exitCode)
}
