package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mini-shop/internal/cart"
	"mini-shop/internal/config"
	"mini-shop/internal/coupon"
	"mini-shop/internal/database"
	"mini-shop/internal/events"
	"mini-shop/internal/handler"
	"mini-shop/internal/repository"
	"mini-shop/internal/router"
	"mini-shop/internal/scheduler"
	"mini-shop/internal/service"

	"github.com/redis/go-redis/v9"
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
	logger.Info().Msg("starting mini-shop order API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	// Initialize Redis client for the cart and the cancellation queue
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(pool, logger)
	stockRepo := repository.NewStockRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)

	// Bulk-load coupon definitions at startup when configured
	if cfg.CouponImport.Enabled {
		if err := importCoupons(ctx, cfg.CouponImport, couponRepo, logger); err != nil {
			return fmt.Errorf("failed to import coupons: %w", err)
		}
	}

	// Initialize best-effort collaborators
	cartService := cart.NewRedisCart(rdb, logger)
	cancelScheduler := scheduler.NewRedisScheduler(rdb, logger)

	var publisher service.EventPublisher
	var kafkaPublisher *events.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka event publishing enabled")
	} else {
		logger.Info().Msg("kafka event publishing disabled")
	}

	// Initialize services
	orderService := service.NewOrderService(
		orderRepo, stockRepo, couponRepo, addressRepo,
		cartService, cancelScheduler, publisher,
		cfg.Order, logger,
	)

	// Start the deferred cancellation worker
	worker := scheduler.NewWorker(cancelScheduler, orderService, cfg.Order.CancelPollInterval, logger)
	go worker.Run(ctx)

	// Initialize HTTP handlers
	orderHandler := handler.NewOrderHandler(orderService, logger)

	// Initialize router
	mux := router.New(orderHandler, cfg.Auth.APIKey, logger)

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

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Stop the cancellation worker before closing its dependencies
		cancel()

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

// importCoupons bulk-loads coupon definitions from a local file or S3,
// falling back to the local file system when S3 is unavailable.
func importCoupons(ctx context.Context, cfg config.CouponImportConfig, repo repository.CouponRepository, logger zerolog.Logger) error {
	fileLoader := coupon.NewFileLoader(logger)
	loader := fileLoader

	if cfg.S3Enabled {
		s3Loader, err := coupon.NewS3Loader(ctx, cfg.Bucket, cfg.Region, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 loader, falling back to local file system")
		} else {
			loader = coupon.NewFallbackLoader(s3Loader, fileLoader, cfg.Prefix, true, logger)
		}
	}

	importer := coupon.NewImporter(loader, repo, logger)
	_, err := importer.Import(ctx, cfg.File)
	return err
}
