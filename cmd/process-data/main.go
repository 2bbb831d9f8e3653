package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"data-preparation/internal/config"
	"data-preparation/internal/dataset"
	"data-preparation/internal/export"
	"data-preparation/internal/repository"
	"data-preparation/internal/service"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(*configPath, logger); err != nil {
		logger.Error("Processing failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(configPath string, logger *zap.Logger) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	manager, err := dataset.NewManagerFromConfig(cfg.Datasets, logger)
	if err != nil {
		return fmt.Errorf("failed to configure dataset readers: %w", err)
	}

	if cfg.Database.Type == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	repo, err := repository.NewRunRepository(cfg.Database.Type, cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize repository: %w", err)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter, err := export.FromConfig(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize exporter: %w", err)
	}

	var processor *service.Processor
	if exporter != nil {
		processor = service.NewProcessor(manager, repo, exporter, cfg.Pool, logger)
	} else {
		processor = service.NewProcessor(manager, repo, nil, cfg.Pool, logger)
	}

	result, summary, err := processor.Process(ctx)
	if err != nil {
		return err
	}

	for _, g := range summary.Groups {
		logger.Info("Split",
			zap.String("dataset", g.DatasetName),
			zap.String("split", g.Split),
			zap.Int64("label", g.Label),
			zap.Int("rows", g.Rows))
	}
	logger.Info("Processing finished",
		zap.String("run_id", result.ID),
		zap.Int("rows", result.TotalRows),
		zap.String("export", result.ExportURI))
	return nil
}
