package workerpool

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned by Map after the pool has been closed.
var ErrClosed = errors.New("worker pool is closed")

// Config holds pool sizing.
type Config struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

type task struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done func(error)
}

// Pool runs tasks on a fixed set of worker goroutines.
type Pool struct {
	tasks   chan task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	workers int
	logger  *zap.Logger
}

// New starts a pool.
func New(cfg Config, logger *zap.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 2
	}

	p := &Pool{
		tasks:   make(chan task, cfg.QueueSize),
		workers: cfg.Workers,
		logger:  logger,
	}
	p.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go p.worker()
	}

	logger.Info("Worker pool started", zap.Int("workers", cfg.Workers))
	return p
}

// Run acquires a pool, runs fn with it and tears the pool down on every exit path,
// including a panic in fn, before returning fn's error.
func Run(ctx context.Context, cfg Config, logger *zap.Logger, fn func(ctx context.Context, p *Pool) error) error {
	p := New(cfg, logger)
	defer p.Close()
	return fn(ctx, p)
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// Map runs fn for i in [0, n) on the pool and waits for all of them. The first error
// cancels the context passed to the remaining tasks and is returned.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n == 0 {
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	done := func(err error) {
		if err != nil {
			once.Do(func() {
				firstErr = err
				cancel()
			})
		}
		wg.Done()
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrClosed
	}
	for i := range n {
		wg.Add(1)
		t := task{
			ctx:  ctx,
			fn:   func(ctx context.Context) error { return fn(ctx, i) },
			done: done,
		}
		select {
		case p.tasks <- t:
		case <-ctx.Done():
			wg.Done()
		}
	}
	p.mu.RUnlock()

	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// Close stops accepting work and waits for the workers to exit. It is safe to call
// more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		t.done(p.execute(t))
	}
}

func (p *Pool) execute(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	if err := t.ctx.Err(); err != nil {
		return err
	}
	return t.fn(t.ctx)
}
