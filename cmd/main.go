package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ipede/metals-portfolio-service/internal/infrastructure/config"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/database"
	"github.com/ipede/metals-portfolio-service/internal/infrastructure/keys"
	httprouter "github.com/ipede/metals-portfolio-service/internal/interfaces/http"
	"go.uber.org/zap"
)

// @title Metals Portfolio Service API
// @version 1.0
// @description Precious metals and numismatic coin collection tracker with
// @description an OAuth2/OIDC authorization server and an FDX read surface
// @host localhost:8080
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Fails in production when no signing key is configured
	keyProvider, err := keys.NewProvider(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize signing keys", zap.Error(err))
	}

	router := httprouter.NewRouter(db, keyProvider, cfg, logger)

	bgCtx, stopBackground := context.WithCancel(ctx)

	// Periodic cleanup of expired authorization codes and refresh tokens
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-bgCtx.Done():
				return
			case <-ticker.C:
				if err := router.OAuth2Repository().DeleteExpired(bgCtx); err != nil {
					logger.Warn("Expired token cleanup failed", zap.Error(err))
				}
			}
		}
	}()

	// Background spot price sampler
	go func() {
		ticker := time.NewTicker(cfg.PriceFeedInterval)
		defer ticker.Stop()

		if err := router.PriceService().RecordSpot(bgCtx); err != nil {
			logger.Warn("Initial spot price fetch failed", zap.Error(err))
		}
		for {
			select {
			case <-bgCtx.Done():
				return
			case <-ticker.C:
				if err := router.PriceService().RecordSpot(bgCtx); err != nil {
					logger.Warn("Spot price fetch failed", zap.Error(err))
				}
			}
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}
