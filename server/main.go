package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/flag-avatar/internal/config"
	"github.com/phambaophuc/flag-avatar/internal/http/handlers"
	"github.com/phambaophuc/flag-avatar/internal/http/routes"
	"github.com/phambaophuc/flag-avatar/internal/services/events"
	"github.com/phambaophuc/flag-avatar/internal/services/flow"
	"github.com/phambaophuc/flag-avatar/internal/services/processor"
	"github.com/phambaophuc/flag-avatar/internal/services/session"
	"github.com/phambaophuc/flag-avatar/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize services
	imageProcessor, err := processor.NewFromConfig(cfg.Avatar)
	if err != nil {
		logger.Fatal("Failed to initialize image processor", zap.Error(err))
	}

	store, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}

	sessions := newSessionStore(cfg, logger)

	var publisher events.Publisher = events.Noop{}
	checkers := []handlers.HealthChecker{store, sessions}
	amqpPublisher, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
	if err != nil {
		logger.Warn("Failed to initialize event publisher", zap.Error(err))
		// Continue without events for basic functionality
	} else {
		defer amqpPublisher.Close()
		publisher = amqpPublisher
		checkers = append(checkers, amqpPublisher)
	}

	controller := flow.NewController(store, sessions, imageProcessor, publisher, logger, flow.Options{
		MaxFileSize:     cfg.Storage.MaxFileSize,
		DefaultCropSize: cfg.Avatar.DefaultCropSize,
	})

	// Initialize handlers
	avatarHandler := handlers.NewAvatarHandler(controller, checkers, logger, cfg)

	router, err := routes.NewRouter(avatarHandler, logger).SetupRoutes()
	if err != nil {
		logger.Fatal("Failed to set up routes", zap.Error(err))
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router,
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// newSessionStore prefers Redis and falls back to process memory when Redis
// does not answer.
func newSessionStore(cfg *config.Config, logger *zap.Logger) session.Store {
	opts := session.DefaultRedisOptions
	client := session.NewRedisClient(cfg.Redis, opts)
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unavailable, keeping sessions in memory", zap.Error(err))
		client.Close()
		return session.NewMemoryStore(cfg.Session.TTL)
	}

	return session.NewRedisStore(client, cfg.Session.TTL)
}
