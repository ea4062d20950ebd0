package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-api/internal/cache"
	"catalog-api/internal/config"
	"catalog-api/internal/database"
	"catalog-api/internal/handler"
	"catalog-api/internal/repository"
	"catalog-api/internal/router"
	"catalog-api/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg, logger)
	},
}

func run(parent context.Context, cfg *config.Config, logger zerolog.Logger) error {
	logger.Info().Str("driver", cfg.Database.Driver).Msg("starting catalog API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	store, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	if cfg.Database.Seed {
		if _, err := store.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	productCache, closeCache := newProductCache(ctx, cfg.Cache, logger)
	defer closeCache()

	// Initialize repositories
	productRepo := repository.NewProductRepository(store.DB, logger)
	categoryRepo := repository.NewCategoryRepository(store.DB, logger)

	// Initialize services
	productService := service.NewProductService(productRepo, categoryRepo, productCache, logger)
	categoryService := service.NewCategoryService(categoryRepo, logger)

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, logger)
	healthHandler := handler.NewHealthHandler(store, logger)

	if cfg.Auth.APIKey == "" {
		logger.Warn().Msg("API_KEY not set, authentication disabled")
	}

	mux := router.New(productHandler, categoryHandler, healthHandler, cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newProductCache connects to Redis when caching is enabled. An unreachable
// Redis downgrades to the no-op cache instead of failing startup.
func newProductCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (cache.ProductCache, func()) {
	if !cfg.Enabled {
		logger.Info().Msg("product cache disabled")
		return cache.NewNopCache(), func() {}
	}

	client := cache.NewRedisClient(cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().
			Err(err).
			Str("addr", cfg.Addr).
			Msg("failed to reach redis, running without product cache")
		_ = client.Close()
		return cache.NewNopCache(), func() {}
	}

	logger.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTLDuration()).Msg("product cache enabled")
	return cache.NewRedisCache(client, cfg.TTLDuration(), logger), func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
