package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maeum-toegeun/backend/internal/jobs"
	"maeum-toegeun/backend/pkg/config"
	"maeum-toegeun/backend/pkg/di"
	"maeum-toegeun/backend/pkg/logger"
	"maeum-toegeun/backend/pkg/router"
	"maeum-toegeun/backend/shared/observability"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	// Loads .env before reading the environment
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application", "version", os.Getenv("APP_VERSION"), "env", cfg.Server.Env, "store", cfg.Store.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.TracingEnabled {
		shutdown, err := observability.SetupTracing(cfg.Metrics.ServiceName)
		if err != nil {
			log.LogError(err, "Failed to set up tracing")
		} else {
			defer shutdown(context.Background())
		}
	}
	if cfg.Metrics.Enabled {
		if mp, err := observability.SetupMeterProvider(); err != nil {
			log.LogError(err, "Failed to set up meter provider")
		} else {
			defer mp.Shutdown(context.Background())
		}
	}

	container, err := di.New(ctx, cfg, log, di.Options{Registerer: prometheus.DefaultRegisterer})
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	defer container.Close()

	r := router.New(container)
	// Validation middleware must be installed before the routes it guards
	if cfg.Metrics.OpenAPISchemaPath != "" {
		r.AddOpenAPIValidation(cfg.Metrics.OpenAPISchemaPath)
	}
	r.SetupRoutes()
	defer r.Stop()
	go r.Hub.Run(ctx)

	// gRPC health service mirrors the HTTP checker for orchestrators
	grpcServer := grpc.NewServer()
	grpcHealth := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, grpcHealth)
	r.Health.OnChange(func(healthy bool) {
		status := healthpb.HealthCheckResponse_SERVING
		if !healthy {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		grpcHealth.SetServingStatus("", status)
		log.Warn("System health changed", "healthy", healthy)
	})
	go func() {
		lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
		if err != nil {
			log.LogError(err, "gRPC health listener failed", "port", cfg.Server.GRPCPort)
			return
		}
		log.Info("gRPC health server starting", "port", cfg.Server.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.LogError(err, "gRPC health server stopped")
		}
	}()

	if cfg.Jobs.Enabled {
		scheduler := jobs.NewScheduler(jobs.Specs{
			BadgeSweep:  cfg.Jobs.BadgeSweepSpec,
			HealthCheck: cfg.Jobs.HealthCheckSpec,
		}, container.Users, container.AchievementService, r.Health, log)
		if err := scheduler.Start(); err != nil {
			log.LogError(err, "Failed to start scheduler")
		} else {
			defer scheduler.Stop()
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	grpcServer.GracefulStop()

	log.Info("Server exited gracefully")
}
