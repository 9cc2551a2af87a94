package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/guestbook-api/internal/api"
	"github.com/guestbook-api/internal/config"
	"github.com/guestbook-api/internal/repository"
	"github.com/guestbook-api/internal/service"
	"github.com/guestbook-api/internal/storage"
	"github.com/guestbook-api/pkg/logger"
)

func main() {
	// Bootstrap logger until the configured level is known
	log := logger.New("info", os.Getenv("LOG_FORMAT"))
	log.Info().Msg("Starting Guestbook API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.New(cfg.Log.Level, cfg.Log.Format)

	if os.Getenv("ENV") != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize record store backend (runs migrations for postgres)
	backend, err := repository.OpenBackend(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("Failed to open record store")
	}
	defer backend.Close()

	// Initialize repositories
	repos := repository.New(backend, log)

	// Initialize snapshot storage
	blobs, err := storage.New(context.Background(), &cfg.Snapshot, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Snapshot.Driver).Msg("Failed to initialize snapshot storage")
	}
	defer blobs.Close()

	// Initialize services
	notifier := service.NewNotifier(cfg.Notify, log)
	services := service.NewServices(repos, blobs, notifier, cfg, log)

	// Start snapshot scheduler
	go services.Snapshot.StartScheduler(context.Background())

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("store", backend.Name()).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop snapshot scheduler
	services.Snapshot.StopScheduler()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Let pending owner notifications finish
	services.Guestbook.Close()

	log.Info().Msg("Server exited gracefully")
}
