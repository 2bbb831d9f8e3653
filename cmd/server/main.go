package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"data-preparation/internal/config"
	"data-preparation/internal/dataset"
	"data-preparation/internal/export"
	"data-preparation/internal/handler"
	"data-preparation/internal/repository"
	"data-preparation/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config")
	flag.Parse()

	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting data preparation service...")

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	manager, err := dataset.NewManagerFromConfig(cfg.Datasets, logger)
	if err != nil {
		logger.Fatal("Failed to configure dataset readers", zap.Error(err))
	}

	// Initialize repository
	if cfg.Database.Type == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}
	repo, err := repository.NewRunRepository(cfg.Database.Type, cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exporter, err := export.FromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize exporter", zap.Error(err))
	}

	// Initialize service
	var processor *service.Processor
	if exporter != nil {
		processor = service.NewProcessor(manager, repo, exporter, cfg.Pool, logger)
	} else {
		processor = service.NewProcessor(manager, repo, nil, cfg.Pool, logger)
	}

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(processor, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()
	apiHandler.RegisterRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Data preparation service is running",
		zap.String("address", serverAddr),
		zap.Strings("datasets", manager.Names()))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// let a background run record its outcome before the database closes
	runCtx, cancelRun := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelRun()
	if err := processor.Shutdown(runCtx); err != nil {
		logger.Warn("Background run cancelled at shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
