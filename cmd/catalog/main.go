package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fincatalog/catalog/internal/config"
	dbRedis "github.com/fincatalog/catalog/internal/db/redis"
	"github.com/fincatalog/catalog/internal/db/sqldb"
	logpkg "github.com/fincatalog/catalog/internal/logger"
	"github.com/fincatalog/catalog/internal/metrics"
	"github.com/fincatalog/catalog/internal/repository/pagecache"
	paperrepo "github.com/fincatalog/catalog/internal/repository/paper"
	chiTransport "github.com/fincatalog/catalog/internal/transport/chi"
	cataloguc "github.com/fincatalog/catalog/internal/usecase/catalog"
	healthuc "github.com/fincatalog/catalog/internal/usecase/health"
	"github.com/fincatalog/catalog/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting catalog API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	store, err := sqldb.Open(sqldb.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	})
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Record store not ready", zap.Error(err))
	}

	repo := paperrepo.New(store)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to bootstrap schema", zap.Error(err))
	}
	logger.Info("Connected to record store")

	metrics.RegisterCatalogMetrics()

	catalogOpts := []cataloguc.Option{cataloguc.WithLogger(logger)}
	// Pass nil interface (not typed nil pointer!) when the cache is disabled.
	var cachePinger healthuc.Pinger
	if cfg.Cache.Enabled {
		kv, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache client", zap.Error(err))
		}
		defer kv.Close()

		if err := kv.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Warn("Page cache not ready, continuing without warm connection", zap.Error(err))
		}
		cache := pagecache.New(kv, cfg.Cache.KeyPrefix, time.Duration(cfg.Cache.TTLSec)*time.Second)
		catalogOpts = append(catalogOpts, cataloguc.WithCache(cache))
		cachePinger = kv
	}

	catalogSvc := cataloguc.New(repo, catalogOpts...)
	healthSvc := healthuc.New(store, cachePinger)

	server := chiTransport.NewServer(catalogSvc, healthSvc, logger,
		chiTransport.WithLimits(cfg.Query.DefaultLimit, cfg.Query.MaxLimit))

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	r.Use(metrics.Middleware())
	r.Handle("/metrics", promhttp.Handler())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
