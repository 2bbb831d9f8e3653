package dataset

import (
	"context"
	"fmt"
	"path/filepath"

	"data-preparation/internal/frame"
)

// ghcLabelColumns are the Gab Hate Corpus indicators: human degradation, call for
// violence, vulgarity.
var ghcLabelColumns = []string{"hd", "cv", "vo"}

// GHCSource reads the Gab Hate Corpus. It ships train and test files; validation is
// carved from train.
type GHCSource struct {
	DatasetDir    string
	ValSplitRatio float64
}

func (s *GHCSource) ReadSplits(ctx context.Context, exec frame.Executor) (frame.Frame, frame.Frame, frame.Frame, error) {
	train, err := frame.ReadCSV(filepath.Join(s.DatasetDir, "ghc_train.tsv"), frame.WithSeparator('\t'))
	if err != nil {
		return fail(err)
	}
	test, err := frame.ReadCSV(filepath.Join(s.DatasetDir, "ghc_test.tsv"), frame.WithSeparator('\t'))
	if err != nil {
		return fail(err)
	}

	// combining multiple labels into a single binary label
	train = train.WithColumn(ColumnLabel, anyPositive(ghcLabelColumns))
	test = test.WithColumn(ColumnLabel, anyPositive(ghcLabelColumns))

	train, val, err := SplitDataset(ctx, exec, train, s.ValSplitRatio, ColumnLabel)
	if err != nil {
		return fail(err)
	}
	return train, val, test, nil
}

// anyPositive derives label = 1 when the sum of the indicator columns is positive.
// Indicators may be fractional annotator agreements.
func anyPositive(columns []string) func(frame.Row) (any, error) {
	return func(row frame.Row) (any, error) {
		var sum float64
		for _, c := range columns {
			v, err := frame.Float(row[c])
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", c, err)
			}
			sum += v
		}
		if sum > 0 {
			return int64(1), nil
		}
		return int64(0), nil
	}
}

func fail(err error) (frame.Frame, frame.Frame, frame.Frame, error) {
	return frame.Frame{}, frame.Frame{}, frame.Frame{}, err
}
