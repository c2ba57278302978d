// File: app/app.go
package app

import (
	"context"
	"go-recruit-auth/config"
	"go-recruit-auth/db"
	"go-recruit-auth/handler"
	"go-recruit-auth/logger"
	"go-recruit-auth/repository"
	"go-recruit-auth/router"
	"go-recruit-auth/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// sweepInterval paces the background eviction of replay signatures, rate
// counters and expired single-use tokens. Missing a tick only delays memory
// reclamation; it never affects correctness.
const sweepInterval = time.Minute

// tokenRetention is how long expired single-use token rows are kept around
// before the sweep deletes them (useful for support lookups).
const tokenRetention = 7 * 24 * time.Hour

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Log.Fatalf("Error applying migrations: %v", err)
	}

	// Ephemeral state (replay signatures, rate counters) prefers redis so
	// all replicas share one view; if redis is unreachable we degrade to
	// in-process stores rather than refusing to start.
	var replayStore service.ReplayStore
	var counterStore service.RateCounterStore
	if redisClient, err := db.ConnectRedis(); err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, using in-process replay and rate-counter stores")
		replayStore = service.NewMemoryReplayStore(nil)
		counterStore = service.NewMemoryRateCounterStore()
	} else {
		defer redisClient.Close()
		replayStore = service.NewRedisReplayStore(redisClient)
		counterStore = service.NewRedisRateCounterStore(redisClient)
	}

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	singleUseRepo := repository.NewSingleUseTokenRepository(database)

	authService := service.NewAuthService(userRepo, tokenRepo)
	tokenService := service.NewSingleUseTokenService(singleUseRepo)
	rateLimiter := service.NewRateLimiter(counterStore)

	webhookService, err := service.NewWebhookService(replayStore)
	if err != nil {
		logger.Log.Fatalf("Invalid webhook configuration: %v", err)
	}

	authHandler := handler.NewAuthHandler(authService)
	tokenHandler := handler.NewTokenHandler(tokenService, authService, userRepo)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	r := router.NewRouter(authHandler, tokenHandler, webhookHandler, authService, rateLimiter)

	sweepCtx, stopSweeps := context.WithCancel(context.Background())
	defer stopSweeps()
	go runMaintenanceLoop(sweepCtx, replayStore, counterStore, tokenService)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}

// runMaintenanceLoop periodically evicts expired ephemeral entries. It runs
// detached from request handling and tolerates being cancelled mid-cycle.
func runMaintenanceLoop(ctx context.Context, replay service.ReplayStore, counters service.RateCounterStore, tokens *service.SingleUseTokenService) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			replay.Sweep(now)
			counters.Sweep(now)
			tokens.SweepExpired(ctx, tokenRetention)
		}
	}
}
