package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"data-preparation/internal/workerpool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPool_Map(t *testing.T) {
	p := workerpool.New(workerpool.Config{Workers: 3, QueueSize: 1}, zap.NewNop())
	defer p.Close()

	out := make([]int, 100)
	err := p.Map(context.Background(), len(out), func(_ context.Context, i int) error {
		out[i] = i * i
		return nil
	})
	require.NoError(t, err)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
	assert.Equal(t, 3, p.Workers())
}

func TestPool_MapZeroTasks(t *testing.T) {
	p := workerpool.New(workerpool.Config{Workers: 1}, zap.NewNop())
	defer p.Close()

	assert.NoError(t, p.Map(context.Background(), 0, func(context.Context, int) error {
		t.Fatal("should not be called")
		return nil
	}))
}

func TestPool_MapReturnsFirstError(t *testing.T) {
	p := workerpool.New(workerpool.Config{Workers: 2}, zap.NewNop())
	defer p.Close()

	boom := errors.New("boom")
	var ran atomic.Int64
	err := p.Map(context.Background(), 1000, func(ctx context.Context, i int) error {
		ran.Add(1)
		if i == 0 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.LessOrEqual(t, ran.Load(), int64(1000))
}

func TestPool_RecoversPanics(t *testing.T) {
	p := workerpool.New(workerpool.Config{Workers: 2}, zap.NewNop())
	defer p.Close()

	err := p.Map(context.Background(), 4, func(_ context.Context, i int) error {
		if i == 2 {
			panic("bad partition")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad partition")

	// the pool survives a panicking task
	assert.NoError(t, p.Map(context.Background(), 4, func(context.Context, int) error { return nil }))
}

func TestPool_CanceledContext(t *testing.T) {
	p := workerpool.New(workerpool.Config{Workers: 2}, zap.NewNop())
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Map(ctx, 10, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_CloseIsIdempotent(t *testing.T) {
	p := workerpool.New(workerpool.Config{Workers: 2}, zap.NewNop())
	p.Close()
	p.Close()

	err := p.Map(context.Background(), 1, func(context.Context, int) error { return nil })
	assert.ErrorIs(t, err, workerpool.ErrClosed)
}

func TestRun_ReleasesPoolOnEveryExit(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(ctx context.Context, p *workerpool.Pool) error
		wantErr bool
		panics  bool
	}{
		{
			name: "success",
			fn: func(ctx context.Context, p *workerpool.Pool) error {
				return p.Map(ctx, 5, func(context.Context, int) error { return nil })
			},
		},
		{
			name: "error",
			fn: func(context.Context, *workerpool.Pool) error {
				return errors.New("failed")
			},
			wantErr: true,
		},
		{
			name: "panic",
			fn: func(context.Context, *workerpool.Pool) error {
				panic("unexpected")
			},
			panics: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var acquired *workerpool.Pool
			call := func() error {
				return workerpool.Run(context.Background(), workerpool.Config{Workers: 2}, zap.NewNop(),
					func(ctx context.Context, p *workerpool.Pool) error {
						acquired = p
						return tt.fn(ctx, p)
					})
			}

			if tt.panics {
				assert.Panics(t, func() { _ = call() })
			} else if err := call(); tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			require.NotNil(t, acquired)
			err := acquired.Map(context.Background(), 1, func(context.Context, int) error { return nil })
			assert.ErrorIs(t, err, workerpool.ErrClosed)
		})
	}
}
