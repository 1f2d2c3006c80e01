package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/flowfi/flowai/internal/api"
	"github.com/flowfi/flowai/internal/database"
	"github.com/flowfi/flowai/internal/logger"
	"github.com/flowfi/flowai/internal/repository"
	"github.com/flowfi/flowai/internal/services"
	"github.com/flowfi/flowai/pkg/config"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.New()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if envErr != nil {
		log.Debug("No .env file found")
	}

	deps := api.Dependencies{Config: cfg, Logger: log}

	// History is persisted to Postgres when configured, otherwise kept in memory
	var repo repository.AssessmentRepository
	if cfg.HasDatabase() {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database", err)
		}
		defer db.Close()

		if err := db.RunMigrations(); err != nil {
			log.Fatal("Failed to run migrations", err)
		}

		repo = repository.NewPostgresRepository(db.DB)
		deps.DB = db
		log.Info("Assessment history stored in Postgres")
	} else {
		log.Warn("DATABASE_URL not set; assessment history is kept in memory")
	}

	svcs, err := services.NewServices(cfg, repo, log)
	if err != nil {
		log.Fatal("Failed to create services", err)
	}
	deps.Services = svcs

	router, err := api.NewRouter(deps)
	if err != nil {
		log.Fatal("Failed to setup API routes", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment, "mode", cfg.AnalysisMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", err)
	}
}
