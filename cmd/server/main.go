package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/medcheck/api/internal/api"
	"github.com/medcheck/api/internal/config"
	"github.com/medcheck/api/internal/database"
	"github.com/medcheck/api/internal/llm"
	"github.com/medcheck/api/internal/logger"
	"github.com/medcheck/api/internal/services"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	// Initialize logger
	zapLogger, err := logger.NewLogger()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize database with automigrations enabled
	db, err := database.NewConnection(cfg.Database, true, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize services
	userService := services.NewUserService(db, zapLogger)
	authService := services.NewAuthService(cfg.JWT.Secret, cfg.Security.BCryptCost, zapLogger)
	emailService := services.NewEmailService(cfg.Email, zapLogger)
	inferenceClient := llm.NewOllamaClient(cfg.Inference.URL, cfg.Inference.Model, cfg.Inference.Timeout, zapLogger)
	analysisService := services.NewAnalysisService(inferenceClient, userService, zapLogger)

	// Initialize API server
	server := api.NewServer(cfg, zapLogger, userService, authService, analysisService, emailService)

	// Start server in goroutine
	go func() {
		zapLogger.Info("Starting medication analysis API server", zap.String("address", cfg.Server.Address))

		if err := server.Start(); err != nil {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}
