package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blog-api/internal/api"
	"github.com/blog-api/internal/auth"
	"github.com/blog-api/internal/cache"
	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/database"
	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/service"
	"github.com/blog-api/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	rollback := flag.Bool("rollback", false, "roll back the most recent migration and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting blog API server...")

	if cfg.Log.Format != "pretty" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *rollback {
		if err := db.MigrateDown(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migration")
		}
		log.Info().Msg("Rolled back one migration")
		return
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Response cache, a no-op when REDIS_ADDR is unset
	startCtx, startCancel := context.WithTimeout(context.Background(), 5*time.Second)
	responseCache, err := cache.New(startCtx, cfg.Cache, log)
	startCancel()
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Cache.Addr).Msg("Failed to connect to redis")
	}
	if rc, ok := responseCache.(*cache.RedisCache); ok {
		defer rc.Close()
	}

	// Initialize services
	services := service.NewServices(service.Deps{
		Repos:  repos,
		Cache:  responseCache,
		Hasher: auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		Tokens: auth.NewTokenManager(cfg.Auth.SigningKeys(), cfg.Auth.TokenExpiry),
	}, cfg, log)

	// The system account is also created on first anonymous post
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if user, err := services.User.EnsureSystemUser(ctx); err != nil {
		log.Warn().Err(err).Msg("Could not provision system account, will retry on demand")
	} else {
		log.Info().Str("username", user.Username).Msg("System account ready")
	}
	cancel()

	// Initialize router
	router := api.NewRouter(services, cfg, db, log)

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
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited gracefully")
}
