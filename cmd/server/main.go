package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/todo-backend/internal/api"
	"github.com/todo-backend/internal/config"
	"github.com/todo-backend/internal/middleware"
	"github.com/todo-backend/internal/scheduler"
	"github.com/todo-backend/internal/storage"

	_ "github.com/todo-backend/docs" // swagger docs
)

// @title Todo API
// @version 1.0
// @description Task management backend with JWT authentication and strict per-user task isolation.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter your JWT token with the `Bearer ` prefix, e.g. "Bearer eyJhbGci..."

func main() {
	// Load configuration
	cfg := config.Load()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// Connect to database
	log.Info("connecting to database", "host", cfg.Database.Host, "db", cfg.Database.Database)
	db, err := storage.NewDatabase(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := storage.NewUserRepository(db, cfg.Auth.BcryptCost)
	taskRepo := storage.NewTaskRepository(db)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT)

	// Initialize API handlers
	handler := api.NewHandler(userRepo, taskRepo, authMiddleware, db)

	// Setup router
	router := api.NewRouter(handler, authMiddleware, log)

	// Start retention sweeper if configured
	ctx := context.Background()
	sweeper := scheduler.NewRetentionSweeper(cfg.Retention, taskRepo, log)
	if sweeper.Enabled() {
		if err := sweeper.Start(ctx); err != nil {
			log.Error("failed to start retention sweeper", "error", err)
			os.Exit(1)
		}
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	sweeper.Stop()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", "error", err)
	}

	log.Info("server stopped")
}
