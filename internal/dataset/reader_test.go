package dataset_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"data-preparation/internal/dataset"
	"data-preparation/internal/frame"
	"data-preparation/internal/workerpool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPool(t *testing.T) *workerpool.Pool {
	t.Helper()
	p := workerpool.New(workerpool.Config{Workers: 4}, zap.NewNop())
	t.Cleanup(p.Close)
	return p
}

// labeled returns n rows with text "<prefix> <i>" where every k-th row has label 1.
func labeled(prefix string, n, k int) []frame.Row {
	rows := make([]frame.Row, n)
	for i := range rows {
		label := int64(0)
		if k > 0 && i%k == 0 {
			label = 1
		}
		rows[i] = frame.Row{dataset.ColumnText: fmt.Sprintf("%s %d", prefix, i), dataset.ColumnLabel: label}
	}
	return rows
}

type staticSource struct {
	train, val, test frame.Frame
	err              error
}

func (s *staticSource) ReadSplits(context.Context, frame.Executor) (frame.Frame, frame.Frame, frame.Frame, error) {
	return s.train, s.val, s.test, s.err
}

func textLabel(rows []frame.Row) frame.Frame {
	return frame.FromRows([]string{dataset.ColumnText, dataset.ColumnLabel}, rows, 4)
}

func TestReader_ReadData(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	src := &staticSource{
		train: textLabel(labeled("train", 8, 2)).WithConstant("extra", "dropped"),
		val:   textLabel(labeled("val", 2, 2)),
		test:  textLabel(labeled("test", 3, 2)),
	}

	r := dataset.NewReader("static", "/data/static", "toy", src, zap.NewNop())
	assert.Equal(t, "toy", r.DatasetName())
	assert.Equal(t, "/data/static", r.DatasetDir())

	df, err := r.ReadData(ctx, pool)
	require.NoError(t, err)
	assert.Equal(t, dataset.RequiredColumns, df.Columns())

	tbl, err := df.Compute(ctx, pool)
	require.NoError(t, err)
	require.Equal(t, 13, tbl.Len())

	perSplit := map[string]int{}
	for _, row := range tbl.Rows {
		assert.Len(t, row, 4)
		assert.Equal(t, "toy", row[dataset.ColumnDatasetName])
		perSplit[frame.String(row[dataset.ColumnSplit])]++
	}
	assert.Equal(t, map[string]int{"train": 8, "val": 2, "test": 3}, perSplit)
}

func TestReader_ReadData_Errors(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t)
	boom := errors.New("disk on fire")

	tests := []struct {
		name    string
		src     *staticSource
		wantIs  error
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "source failure is propagated",
			src:    &staticSource{err: boom},
			wantIs: boom,
		},
		{
			name: "missing text column",
			src: &staticSource{
				train: frame.FromRows([]string{dataset.ColumnLabel}, []frame.Row{{dataset.ColumnLabel: int64(1)}}, 0),
				val:   frame.FromRows([]string{dataset.ColumnLabel}, []frame.Row{{dataset.ColumnLabel: int64(0)}}, 0),
				test:  frame.FromRows([]string{dataset.ColumnLabel}, []frame.Row{{dataset.ColumnLabel: int64(0)}}, 0),
			},
			wantIs: dataset.ErrSchema,
			checkFn: func(t *testing.T, err error) {
				var schemaErr *dataset.SchemaError
				require.ErrorAs(t, err, &schemaErr)
				assert.Equal(t, "toy", schemaErr.Dataset)
				assert.Equal(t, []string{dataset.ColumnText}, schemaErr.Missing)
			},
		},
		{
			name: "empty validation split",
			src: &staticSource{
				train: textLabel(labeled("train", 4, 2)),
				val:   textLabel(nil),
				test:  textLabel(labeled("test", 2, 2)),
			},
			wantIs: dataset.ErrSplitIncomplete,
			checkFn: func(t *testing.T, err error) {
				var splitErr *dataset.SplitError
				require.ErrorAs(t, err, &splitErr)
				assert.Equal(t, []string{"test", "train"}, splitErr.Got)
				assert.Equal(t, dataset.SplitNames, splitErr.Expected)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := dataset.NewReader("static", "/data/static", "toy", tt.src, zap.NewNop())
			_, err := r.ReadData(ctx, pool)
			require.ErrorIs(t, err, tt.wantIs)
			if tt.checkFn != nil {
				tt.checkFn(t, err)
			}
		})
	}
}

func TestValidateRatio(t *testing.T) {
	for _, ok := range []float64{0.01, 0.5, 0.99} {
		assert.NoError(t, dataset.ValidateRatio("r", ok))
	}
	for _, bad := range []float64{0, 1, -1, 2} {
		assert.Error(t, dataset.ValidateRatio("r", bad))
	}
}
