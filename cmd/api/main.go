package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-service/internal/config"
	"product-service/internal/handler"
	"product-service/internal/middleware"
	"product-service/internal/repository"
	"product-service/internal/router"
	"product-service/internal/seed"
	"product-service/internal/service"
	"product-service/internal/validation"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Str("version", config.Version).Msg("starting product service")

	// Resolve the one store this process will use
	desc, err := config.ResolveDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to resolve database: %w", err)
	}

	logger.Info().
		Str("environment", string(desc.Environment)).
		Str("engine", string(desc.Kind)).
		Str("driver", string(desc.Driver)).
		Str("dsn", desc.Redacted()).
		Msg("database resolved")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize repository
	productRepo, err := repository.Open(ctx, desc, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer productRepo.Close()

	// Initialize validation and services
	validator, err := validation.New(cfg.Validation)
	if err != nil {
		return fmt.Errorf("failed to initialize validator: %w", err)
	}
	productService := service.NewProductService(productRepo, validator, logger)

	if cfg.Seed.Source != "" {
		seedStore(ctx, cfg.Seed, productService, logger)
	}

	// Initialize HTTP handlers
	productHandler := handler.NewProductHandler(productService, logger)
	healthHandler := handler.NewHealthHandler(productRepo, desc.Environment, logger)

	// Initialize router
	mux := router.New(productHandler, healthHandler, middleware.NewMetrics(), logger)

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

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// seedStore loads the configured seed source into an empty store. Failures
// are logged; the server starts either way.
func seedStore(ctx context.Context, cfg config.SeedConfig, products service.ProductService, logger zerolog.Logger) {
	var s3Loader seed.Loader
	if seed.IsS3Source(cfg.Source) {
		l, err := seed.NewS3Loader(ctx, cfg.Region, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 loader, skipping seed")
			return
		}
		s3Loader = l
	}

	loader := seed.NewSourceLoader(s3Loader, seed.NewFileLoader(logger), logger)
	if _, err := seed.NewSeeder(loader, products, logger).Run(ctx, cfg.Source); err != nil {
		logger.Warn().Err(err).Str("source", cfg.Source).Msg("seeding failed")
	}
}
