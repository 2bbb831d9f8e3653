package frame_test

import (
	"context"
	"testing"

	"data-preparation/internal/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainTestSplit_DisjointAndExhaustive(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)

	tests := []struct {
		name       string
		rows       int
		testSize   float64
		wantSecond int
	}{
		{name: "even", rows: 100, testSize: 0.2, wantSecond: 20},
		{name: "rounds half up", rows: 5, testSize: 0.3, wantSecond: 2},
		{name: "rounds down", rows: 7, testSize: 0.2, wantSecond: 1},
		{name: "single row rounds to zero", rows: 1, testSize: 0.2, wantSecond: 0},
		{name: "empty", rows: 0, testSize: 0.5, wantSecond: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := frame.FromRows([]string{"id"}, numbered(tt.rows), 3)
			first, second, err := frame.TrainTestSplit(src, tt.testSize, 1234)
			require.NoError(t, err)

			a, err := first.Compute(ctx, pool)
			require.NoError(t, err)
			b, err := second.Compute(ctx, pool)
			require.NoError(t, err)

			assert.Equal(t, tt.wantSecond, b.Len())
			assert.Equal(t, tt.rows-tt.wantSecond, a.Len())

			seen := map[int64]bool{}
			for _, id := range append(ids(t, a), ids(t, b)...) {
				assert.False(t, seen[id], "row %d in both outputs", id)
				seen[id] = true
			}
			assert.Len(t, seen, tt.rows)
		})
	}
}

func TestTrainTestSplit_Reproducible(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	src := frame.FromRows([]string{"id"}, numbered(200), 16)

	run := func(seed int64) []int64 {
		_, second, err := frame.TrainTestSplit(src, 0.25, seed)
		require.NoError(t, err)
		tbl, err := second.Compute(ctx, pool)
		require.NoError(t, err)
		return ids(t, tbl)
	}

	assert.Equal(t, run(1234), run(1234))
	assert.NotEqual(t, run(1234), run(99))
}

func TestTrainTestSplit_InvalidSize(t *testing.T) {
	src := frame.FromRows([]string{"id"}, numbered(3), 0)
	for _, size := range []float64{0, 1, -0.1, 1.5} {
		_, _, err := frame.TrainTestSplit(src, size, 1)
		assert.Error(t, err, "size %v", size)
	}
}
