// seed inserts the development user (test@example.com / Test@1234!) for local testing.
// Idempotent: skips the insert if the user already exists.
package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"session-auth/backend/internal/config"
	"session-auth/backend/internal/db"
	"session-auth/backend/internal/security"
	"session-auth/backend/internal/telemetry"
	"session-auth/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	logger, err := telemetry.NewLogger(telemetry.LogConfig{Level: cfg.LogLevel, Pretty: true, Service: "seed", Env: cfg.Env})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{})
	if err != nil {
		logger.Fatal("db", zap.Error(err))
	}
	defer conn.Close()

	users := repository.NewPostgresRepository(conn, cfg.DBQueryTimeout)
	created, err := seed(ctx, users, security.NewHasher(cfg.BcryptCost))
	if err != nil {
		logger.Fatal("seed", zap.Error(err))
	}
	if !created {
		logger.Info("seed already applied, skipping", zap.String("email", devEmail))
		return
	}
	logger.Info("seed applied", zap.String("email", devEmail))
}
