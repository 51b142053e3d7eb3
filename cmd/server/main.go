// Server runs the cookie session HTTP API, plus the gRPC health endpoint when GRPC_ADDR is set.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"session-auth/backend/internal/config"
	"session-auth/backend/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := telemetry.NewLogger(telemetry.LogConfig{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: cfg.OTelServiceName,
		Env:     cfg.Env,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := build(rootCtx, cfg, logger)
	if err != nil {
		logger.Fatal("startup", zap.Error(err))
	}

	errCh := make(chan error, 2)
	go func() { errCh <- serveHTTP(app.http, cfg, logger) }()
	if app.grpc != nil {
		go func() { errCh <- serveGRPC(app, cfg, logger) }()
	}
	go app.health.Watch(rootCtx, 10*time.Second)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	}

	app.health.Shutdown()
	shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.http.Shutdown(shCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if app.grpc != nil {
		app.grpc.GracefulStop()
	}

	// Let in-flight async session events finish before closing their sinks.
	time.Sleep(telemetry.ShutdownDrainDuration)
	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	app.close(closeCtx)
	logger.Info("server stopped")
}
