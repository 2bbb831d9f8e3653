package dataset

import (
	"fmt"

	"data-preparation/internal/config"

	"go.uber.org/zap"
)

// SourceType identifies a concrete dataset source.
type SourceType string

const (
	SourceGHC     SourceType = "ghc"
	SourceJigsaw  SourceType = "jigsaw"
	SourceTwitter SourceType = "twitter"
)

// NewReaderFromConfig builds the reader configured by cfg.
func NewReaderFromConfig(cfg config.DatasetConfig, logger *zap.Logger) (*Reader, error) {
	if err := ValidateRatio("val_split_ratio", cfg.ValSplitRatio); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", cfg.DatasetName, err)
	}

	var source Source
	switch SourceType(cfg.Type) {
	case SourceGHC:
		source = &GHCSource{DatasetDir: cfg.DatasetDir, ValSplitRatio: cfg.ValSplitRatio}
	case SourceJigsaw:
		source = &JigsawSource{DatasetDir: cfg.DatasetDir, ValSplitRatio: cfg.ValSplitRatio}
	case SourceTwitter:
		if err := ValidateRatio("test_split_ratio", cfg.TestSplitRatio); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", cfg.DatasetName, err)
		}
		source = &TwitterSource{
			DatasetDir:     cfg.DatasetDir,
			ValSplitRatio:  cfg.ValSplitRatio,
			TestSplitRatio: cfg.TestSplitRatio,
		}
	default:
		return nil, fmt.Errorf("dataset %q: unknown source type %q", cfg.DatasetName, cfg.Type)
	}

	return NewReader(cfg.Type, cfg.DatasetDir, cfg.DatasetName, source, logger), nil
}

// NewManagerFromConfig builds a manager over every configured dataset, in order.
func NewManagerFromConfig(datasets []config.DatasetConfig, logger *zap.Logger) (*Manager, error) {
	readers := make([]NamedReader, 0, len(datasets))
	for _, d := range datasets {
		r, err := NewReaderFromConfig(d, logger)
		if err != nil {
			return nil, err
		}
		readers = append(readers, NamedReader{Name: d.DatasetName, Reader: r})
	}
	return NewManager(readers, logger), nil
}
