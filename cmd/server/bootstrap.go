package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"session-auth/backend/internal/config"
	"session-auth/backend/internal/db"
	healthhandler "session-auth/backend/internal/health/handler"
	"session-auth/backend/internal/security"
	"session-auth/backend/internal/server"
	"session-auth/backend/internal/session/handler"
	"session-auth/backend/internal/session/service"
	"session-auth/backend/internal/telemetry"
	otelsetup "session-auth/backend/internal/telemetry/otel"
	"session-auth/backend/internal/telemetry/producer"
	"session-auth/backend/internal/user/repository"
)

type app struct {
	http   *http.Server
	grpc   *grpc.Server
	health *healthhandler.Server
	closer []func(context.Context) error
	log    *zap.Logger
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closer) - 1; i >= 0; i-- {
		if err := a.closer[i](ctx); err != nil {
			a.log.Warn("shutdown", zap.Error(err))
		}
	}
}

func build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{log: logger}
	fail := func(err error) (*app, error) {
		a.close(ctx)
		return nil, err
	}

	providers, err := otelsetup.NewProviders(ctx, otelsetup.Config{
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTelInsecure,
	})
	if err != nil {
		return fail(fmt.Errorf("otel: %w", err))
	}
	providers.SetGlobal()
	a.closer = append(a.closer, providers.Shutdown)

	kafka := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.SessionEventsTopic)
	if kafka != nil {
		logger.Info("session events to kafka", zap.String("topic", kafka.Topic()))
		a.closer = append(a.closer, func(context.Context) error { return kafka.Close() })
	}
	emitters := telemetry.MultiEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	if kafka != nil {
		emitters = append(emitters, kafka)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reporter, err := telemetry.NewReporter(logger, emitters, reg)
	if err != nil {
		return fail(err)
	}

	users, conn, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	if conn != nil {
		a.closer = append(a.closer, func(context.Context) error { return conn.Close() })
		a.health = healthhandler.NewServer(conn, logger)
	} else {
		a.health = healthhandler.NewServer(nil, logger)
	}

	codecCfg, err := cfg.TokenCodecConfig()
	if err != nil {
		return fail(err)
	}
	tokens, err := security.NewTokenCodec(codecCfg)
	if err != nil {
		return fail(err)
	}
	svc, err := service.NewSessionService(users, tokens, security.NewHasher(cfg.BcryptCost), reporter, logger)
	if err != nil {
		return fail(err)
	}

	sessions := handler.NewHandler(svc, handler.CookieConfig{
		AccessName:  cfg.AccessCookieName,
		RefreshName: cfg.RefreshCookieName,
		RefreshPath: cfg.RefreshCookiePath,
		Domain:      cfg.CookieDomain,
		Secure:      cfg.CookieSecure,
		AccessTTL:   tokens.AccessTTL(),
		RefreshTTL:  tokens.RefreshTTL(),
	}, logger)
	if !cfg.CookieSecure {
		logger.Warn("COOKIE_SECURE=false: cookies will be sent over plain HTTP")
	}

	router, err := server.NewRouter(server.Config{
		Sessions:           sessions,
		Auth:               svc,
		Health:             a.health,
		Registry:           reg,
		Log:                logger,
		CORSOrigin:         cfg.CORSOrigin,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustProxy:         cfg.TrustProxy,
		RequestTimeout:     cfg.RequestTimeout,
	})
	if err != nil {
		return fail(err)
	}
	a.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.GRPCAddr != "" {
		a.grpc = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		healthpb.RegisterHealthServer(a.grpc, a.health.GRPC())
	}
	return a, nil
}

// openUserStore connects to Postgres, or returns the in-memory store when DATABASE_URL is empty.
// config.Load already refuses an empty DATABASE_URL in production.
func openUserStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Repository, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is empty: using the in-memory user store; data is lost on restart")
		return repository.NewMemoryRepository(), nil, nil
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("db: %w", err)
	}
	return repository.NewPostgresRepository(conn, cfg.DBQueryTimeout), conn, nil
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	if cfg.TLSEnabled() {
		logger.Info("https listening", zap.String("addr", cfg.HTTPAddr))
		return srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	}
	logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
	return srv.ListenAndServe()
}

func serveGRPC(a *app, cfg *config.Config, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	logger.Info("grpc health listening", zap.String("addr", cfg.GRPCAddr))
	return a.grpc.Serve(lis)
}
