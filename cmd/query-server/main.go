package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"srql-engine/internal/api"
	"srql-engine/internal/auth"
	"srql-engine/internal/config"
	"srql-engine/internal/edge"
	"srql-engine/internal/logger"
	"srql-engine/internal/metrics"
	"srql-engine/internal/srql/catalog"
	"srql-engine/internal/srql/engine"
	"srql-engine/internal/srql/translate"
	"srql-engine/internal/storage/artifact"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		Service: "query-server",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database pool")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("database is not reachable yet, continuing startup")
	}

	artifacts, err := artifact.New(ctx, cfg.Artifacts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize artifact storage")
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	eng := engine.New(
		catalog.Default(),
		engine.NewPoolExecutor(pool),
		translate.Options{
			DefaultLimit: int64(cfg.Query.DefaultLimit),
			MaxLimit:     int64(cfg.Query.MaxLimit),
			GraphName:    cfg.Query.GraphName,
		},
		logger.WithComponent(log, "engine"),
	)

	edgeService := edge.NewService(
		edge.NewPGStore(pool),
		artifacts,
		cfg.Onboarding,
		logger.WithComponent(log, "edge"),
	)

	queryHandler := api.NewQueryHandler(eng, m, logger.WithComponent(log, "query-api"), cfg.QueryTimeoutDuration())
	edgeHandler := api.NewEdgeHandler(edgeService, m, logger.WithComponent(log, "edge-api"))

	router := api.NewRouter(queryHandler, edgeHandler, m, logger.WithComponent(log, "http"), api.RouterOptions{
		CORSOrigin:        cfg.Server.CORSOrigin,
		AuthEnabled:       cfg.Auth.Enabled,
		Authenticator:     auth.NewJWTAuthenticator([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer),
		OnboardingEnabled: cfg.Onboarding.Enabled,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 2)

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			errCh <- fmt.Errorf("grpc listen: %w", err)
			return
		}
		log.Info().Int("port", cfg.Server.GRPCPort).Msg("grpc server listening")
		if err := grpcServer.Serve(listener); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
	}

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown did not complete cleanly")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("query server stopped")
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime); err == nil && lifetime > 0 {
		poolCfg.MaxConnLifetime = lifetime
	}
	return pgxpool.NewWithConfig(ctx, poolCfg)
}
