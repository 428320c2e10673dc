package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hanko-field/storefront/internal/di"
	"github.com/hanko-field/storefront/internal/handlers"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/config"
	"github.com/hanko-field/storefront/internal/platform/observability"
)

const (
	serviceName      = "storefront"
	shutdownTimeout  = 10 * time.Second
	cleanupRunBudget = time.Minute
	cleanupBatchSize = 500
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	envValues, err := config.EnvironmentValues()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read environment values: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named(serviceName)
	ctx = observability.WithLogger(ctx, logger)

	container, err := di.NewContainer(ctx, cfg, di.Dependencies{Logger: logger})
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	// The catalogue is loaded once at startup; clients refresh it through POST /products/refresh.
	go func() {
		warmCtx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout*2)
		defer cancel()
		products := container.Services.Products.Fetch(warmCtx)
		logger.Info("catalogue warmed",
			zap.String("status", string(products.Status)),
			zap.Int("products", len(products.Products)),
			zap.String("error", products.Error),
		)
	}()

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	var cleanupWG sync.WaitGroup
	var cleanupTicker *time.Ticker
	if sweeper, ok := container.Sweeper(); ok && cfg.Persistence.CleanupInterval > 0 {
		cleanupTicker = time.NewTicker(cfg.Persistence.CleanupInterval)
		cleanupWG.Add(1)
		go func() {
			defer cleanupWG.Done()
			cleanupLogger := logger.Named("persistence")
			for {
				select {
				case <-cleanupTicker.C:
					runCtx, cancel := context.WithTimeout(cleanupCtx, cleanupRunBudget)
					removed, err := sweeper.CleanupExpired(runCtx, time.Now().UTC(), cleanupBatchSize)
					cancel()
					if err != nil {
						cleanupLogger.Error("expired state cleanup error", zap.Error(err))
						continue
					}
					if removed > 0 {
						cleanupLogger.Info("expired state cleanup removed records", zap.Int("count", removed))
					}
				case <-cleanupCtx.Done():
					return
				}
			}
		}()
	}

	svc := container.Services
	authenticator := auth.NewAuthenticator(svc.Auth)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(serviceName),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfoFromEnv(envValues, cfg, startedAt)),
		handlers.WithHealthCheck("persistence", container.Ping),
	)

	var opts []handlers.Option
	opts = append(opts, handlers.WithMiddlewares(middlewares...))
	opts = append(opts, handlers.WithHealthHandlers(healthHandlers))
	opts = append(opts, handlers.WithAuthRoutes(handlers.NewAuthHandlers(authenticator, svc.Auth).Routes))
	opts = append(opts, handlers.WithProductRoutes(handlers.NewProductHandlers(authenticator, svc.Products, svc.Reviews).Routes))
	opts = append(opts, handlers.WithReviewRoutes(handlers.NewReviewHandlers(authenticator, svc.Reviews).Routes))
	opts = append(opts, handlers.WithCartRoutes(handlers.NewCartHandlers(authenticator, svc.Cart).Routes))
	opts = append(opts, handlers.WithWishlistRoutes(handlers.NewWishlistHandlers(authenticator, svc.Wishlist).Routes))
	opts = append(opts, handlers.WithOrderRoutes(handlers.NewOrderHandlers(authenticator, svc.Orders).Routes))
	opts = append(opts, handlers.WithSearchRoutes(handlers.NewSearchHandlers(authenticator, svc.Search).Routes))

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr), zap.String("backend", cfg.Persistence.Backend))
	go func() {
		serverLogger.Info("storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	if cleanupTicker != nil {
		cleanupTicker.Stop()
	}
	cleanupCancel()
	cleanupWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(env["STOREFRONT_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	return handlers.BuildInfo{
		Version:     version,
		Environment: cfg.Environment,
		StartedAt:   started,
	}
}
