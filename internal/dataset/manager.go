package dataset

import (
	"context"

	"data-preparation/internal/frame"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DatasetReader produces a canonical frame. *Reader implements it.
type DatasetReader interface {
	ReadData(ctx context.Context, exec frame.Executor) (frame.Frame, error)
}

// NamedReader pairs a reader with the name it is configured under.
type NamedReader struct {
	Name   string
	Reader DatasetReader
}

// Manager unions the canonical output of several readers into one corpus.
type Manager struct {
	readers []NamedReader
	logger  *zap.Logger
}

// NewManager creates a manager over readers.
func NewManager(readers []NamedReader, logger *zap.Logger) *Manager {
	return &Manager{readers: readers, logger: logger}
}

// Names returns the configured reader names.
func (m *Manager) Names() []string {
	names := make([]string, len(m.readers))
	for i, r := range m.readers {
		names[i] = r.Name
	}
	return names
}

// ReadData runs every reader and concatenates their frames. The readers run
// concurrently; the first failure cancels the others and is returned, and no partial
// corpus is produced. Rows are not deduplicated across readers.
func (m *Manager) ReadData(ctx context.Context, exec frame.Executor) (frame.Frame, error) {
	frames := make([]frame.Frame, len(m.readers))

	g, ctx := errgroup.WithContext(ctx)
	for i, r := range m.readers {
		g.Go(func() error {
			df, err := r.Reader.ReadData(ctx, exec)
			if err != nil {
				m.logger.Error("Failed to read dataset", zap.String("dataset", r.Name), zap.Error(err))
				return err
			}
			frames[i] = df
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return frame.Frame{}, err
	}

	m.logger.Info("Datasets merged", zap.Strings("datasets", m.Names()))
	return frame.Concat(frames...), nil
}
