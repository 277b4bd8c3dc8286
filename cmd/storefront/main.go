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

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/levelup/storefront/internal/backend"
	"github.com/levelup/storefront/internal/checkout"
	"github.com/levelup/storefront/internal/events"
	h "github.com/levelup/storefront/internal/http"
	"github.com/levelup/storefront/internal/receipts"
	"github.com/levelup/storefront/internal/session"
	"github.com/levelup/storefront/internal/storefront"
)

func main() {
	cfg := loadConfig()

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendURL,
		Timeout: cfg.RequestTimeout,
		Logger:  logger,
	})

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer rdb.Close()
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	pingCancel()

	var (
		observers []checkout.OrderObserver
		lister    h.ReceiptLister
	)
	if cfg.Receipts.Driver != "" {
		repo, err := receipts.NewRepository(cfg.Receipts)
		if err != nil {
			logger.Fatal("failed to open receipts database", zap.Error(err))
		}
		defer repo.Close()
		if err := repo.RunMigrations(); err != nil {
			logger.Fatal("failed to run receipts migrations", zap.Error(err))
		}
		observers = append(observers, receipts.NewRecorder(repo, logger))
		lister = repo
	}

	var publisher *events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewPublisher(logger, cfg.KafkaBrokers...)
		defer publisher.Close()
		observers = append(observers, publisher)
	}

	registry := storefront.NewRegistry(storefront.Options{
		Backend: func(tokens backend.TokenSource) storefront.Backend {
			return client.WithTokenSource(tokens)
		},
		Sessions:  session.NewRedisStore(rdb, cfg.SessionTTL),
		Observers: observers,
		Logger:    logger,
		IdleTTL:   cfg.SessionIdleTTL,
	})
	defer registry.Close()

	if len(cfg.KafkaBrokers) > 0 {
		poller := events.NewPoller(registry, logger, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(ctx)
	}

	router := h.NewRouter(h.RouterConfig{
		Workspaces:     registry,
		Catalog:        client,
		Receipts:       lister,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront-gateway"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront gateway starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("backend", cfg.BackendURL),
			zap.String("receipts", cfg.Receipts.Driver),
			zap.Strings("kafka", cfg.KafkaBrokers))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
