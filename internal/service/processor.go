package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"data-preparation/internal/dataset"
	"data-preparation/internal/frame"
	"data-preparation/internal/models"
	"data-preparation/internal/workerpool"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRunInProgress is returned by StartRun while another run is processing.
var ErrRunInProgress = errors.New("a run is already in progress")

// RunStore persists runs.
type RunStore interface {
	CreateRun(ctx context.Context, run *models.Run) error
	UpdateRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*models.Run, error)
	SaveSplitCounts(ctx context.Context, counts []models.SplitCount) error
	GetSplitCounts(ctx context.Context, runID string) ([]models.SplitCount, error)
}

// CorpusExporter persists a materialized corpus and returns where it went.
type CorpusExporter interface {
	Export(ctx context.Context, runID string, t *frame.Table) (string, error)
}

// CorpusReader produces the unioned canonical corpus. *dataset.Manager implements it.
type CorpusReader interface {
	ReadData(ctx context.Context, exec frame.Executor) (frame.Frame, error)
	Names() []string
}

// Processor runs the read, merge and summarize pipeline and records each run.
type Processor struct {
	corpus   CorpusReader
	store    RunStore
	exporter CorpusExporter
	pool     workerpool.Config
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup

	// cancels background runs on Shutdown
	runsCtx    context.Context
	cancelRuns context.CancelFunc
}

// NewProcessor creates a processor. exporter may be nil.
func NewProcessor(
	corpus CorpusReader,
	store RunStore,
	exporter CorpusExporter,
	pool workerpool.Config,
	logger *zap.Logger,
) *Processor {
	runsCtx, cancelRuns := context.WithCancel(context.Background())
	return &Processor{
		corpus:     corpus,
		store:      store,
		exporter:   exporter,
		pool:       pool,
		logger:     logger,
		runsCtx:    runsCtx,
		cancelRuns: cancelRuns,
	}
}

// Process runs the pipeline synchronously. The returned run is also persisted; on
// failure it is marked failed and the pipeline error is returned.
func (p *Processor) Process(ctx context.Context) (*models.Run, *dataset.Summary, error) {
	run, err := p.newRun(ctx)
	if err != nil {
		return nil, nil, err
	}
	summary, err := p.execute(ctx, run)
	return run, summary, err
}

// StartRun starts the pipeline in the background and returns the run ID.
func (p *Processor) StartRun(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return "", ErrRunInProgress
	}
	p.running = true
	p.mu.Unlock()

	run, err := p.newRun(ctx)
	if err != nil {
		p.release()
		return "", err
	}

	// the run outlives the request that started it but not the processor
	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(p.runsCtx, cancel)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release()
		defer stop()
		defer cancel()
		_, _ = p.execute(bg, run)
	}()

	return run.ID, nil
}

// Wait blocks until background runs finish.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Shutdown waits for background runs to finish. When ctx expires first, the runs are
// cancelled, recorded as failed, and ctx's error is returned.
func (p *Processor) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.logger.Warn("Cancelling background run")
		p.cancelRuns()
		<-done
		return ctx.Err()
	}
}

// GetRun returns a run by ID.
func (p *Processor) GetRun(ctx context.Context, id string) (*models.Run, error) {
	return p.store.GetRun(ctx, id)
}

// ListRuns returns the most recent runs.
func (p *Processor) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	return p.store.ListRuns(ctx, limit)
}

// GetSplitCounts returns the per-group row counts recorded for a run.
func (p *Processor) GetSplitCounts(ctx context.Context, id string) ([]models.SplitCount, error) {
	if _, err := p.store.GetRun(ctx, id); err != nil {
		return nil, err
	}
	return p.store.GetSplitCounts(ctx, id)
}

func (p *Processor) release() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

func (p *Processor) newRun(ctx context.Context) (*models.Run, error) {
	run := &models.Run{
		ID:        uuid.New().String(),
		Status:    models.RunPending,
		Datasets:  strings.Join(p.corpus.Names(), ","),
		CreatedAt: time.Now().UTC(),
	}
	if err := p.store.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

func (p *Processor) execute(ctx context.Context, run *models.Run) (*dataset.Summary, error) {
	logger := p.logger.With(zap.String("run_id", run.ID))
	// bookkeeping must land even when the pipeline is cancelled
	storeCtx := context.WithoutCancel(ctx)

	run.Status = models.RunProcessing
	if err := p.store.UpdateRun(storeCtx, run); err != nil {
		logger.Error("Failed to update run", zap.Error(err))
	}

	var summary *dataset.Summary
	err := workerpool.Run(ctx, p.pool, logger, func(ctx context.Context, pool *workerpool.Pool) error {
		corpus, err := p.corpus.ReadData(ctx, pool)
		if err != nil {
			return err
		}
		table, err := corpus.Compute(ctx, pool)
		if err != nil {
			return fmt.Errorf("failed to compute corpus: %w", err)
		}
		summary, err = dataset.Summarize(table)
		if err != nil {
			return err
		}
		if p.exporter != nil {
			uri, err := p.exporter.Export(ctx, run.ID, table)
			if err != nil {
				return fmt.Errorf("failed to export corpus: %w", err)
			}
			run.ExportURI = uri
		}
		return nil
	})

	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt
	if err != nil {
		run.Status = models.RunFailed
		run.ErrorMessage = err.Error()
		if uerr := p.store.UpdateRun(storeCtx, run); uerr != nil {
			logger.Error("Failed to update run", zap.Error(uerr))
		}
		logger.Error("Run failed", zap.Error(err))
		return nil, err
	}

	run.Status = models.RunCompleted
	run.TotalRows = summary.TotalRows
	run.ShortRows = summary.ShortTextRows
	if err := p.store.SaveSplitCounts(storeCtx, splitCounts(run.ID, summary)); err != nil {
		logger.Error("Failed to save split counts", zap.Error(err))
	}
	if err := p.store.UpdateRun(storeCtx, run); err != nil {
		logger.Error("Failed to update run", zap.Error(err))
	}

	logger.Info("Run completed",
		zap.Int("rows", summary.TotalRows),
		zap.Int("short_text_rows", summary.ShortTextRows),
		zap.Any("rows_by_dataset", summary.RowsByDataset()))

	return summary, nil
}

func splitCounts(runID string, s *dataset.Summary) []models.SplitCount {
	out := make([]models.SplitCount, len(s.Groups))
	for i, g := range s.Groups {
		out[i] = models.SplitCount{
			RunID:       runID,
			DatasetName: g.DatasetName,
			Split:       g.Split,
			Label:       g.Label,
			Rows:        g.Rows,
		}
	}
	return out
}
