// Package dataset turns raw labeled-text datasets into the canonical
// {text, label, split, dataset_name} schema and unions them into one corpus.
package dataset

import (
	"context"
	"fmt"
	"math"

	"data-preparation/internal/frame"

	"go.uber.org/zap"
)

// Canonical column names.
const (
	ColumnText        = "text"
	ColumnLabel       = "label"
	ColumnSplit       = "split"
	ColumnDatasetName = "dataset_name"
)

// Split names.
const (
	SplitTrain = "train"
	SplitVal   = "val"
	SplitTest  = "test"
)

// SplitSeed is the fixed seed every split uses, so runs are reproducible.
const SplitSeed int64 = 1234

// RequiredColumns is the canonical schema.
var RequiredColumns = []string{ColumnText, ColumnLabel, ColumnSplit, ColumnDatasetName}

// SplitNames is the exact set of split values a canonical dataset carries.
var SplitNames = []string{SplitTrain, SplitVal, SplitTest}

// Source parses one raw dataset into train, validation and test frames. Each frame
// must carry at least text and label, with label encoded as 0 or 1.
type Source interface {
	ReadSplits(ctx context.Context, exec frame.Executor) (train, val, test frame.Frame, err error)
}

// Reader applies the canonical pipeline to a Source: stamp split names, merge, stamp
// the dataset name, validate, and project to the required columns.
type Reader struct {
	source      Source
	kind        string
	datasetDir  string
	datasetName string
	logger      *zap.Logger
}

// NewReader wraps source. kind names the source type in logs.
func NewReader(kind, datasetDir, datasetName string, source Source, logger *zap.Logger) *Reader {
	return &Reader{
		source:      source,
		kind:        kind,
		datasetDir:  datasetDir,
		datasetName: datasetName,
		logger:      logger.With(zap.String("dataset", datasetName)),
	}
}

// DatasetName returns the name stamped on every row.
func (r *Reader) DatasetName() string {
	return r.datasetName
}

// DatasetDir returns the directory the source reads from.
func (r *Reader) DatasetDir() string {
	return r.datasetDir
}

// ReadData returns the canonical frame. It fails with a *SchemaError when a required
// column is missing and with a *SplitError when the split values are not exactly
// train, val and test.
func (r *Reader) ReadData(ctx context.Context, exec frame.Executor) (frame.Frame, error) {
	r.logger.Info("Reading dataset", zap.String("source", r.kind), zap.String("dir", r.datasetDir))

	train, val, test, err := r.source.ReadSplits(ctx, exec)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("%s: failed to read splits: %w", r.datasetName, err)
	}

	df := assignSplitNamesAndMerge(train, val, test)
	df = df.WithConstant(ColumnDatasetName, r.datasetName)

	var missing []string
	for _, c := range RequiredColumns {
		if !df.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return frame.Frame{}, &SchemaError{Dataset: r.datasetName, Missing: missing}
	}

	values, err := df.Unique(ctx, exec, ColumnSplit)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("%s: failed to collect split names: %w", r.datasetName, err)
	}
	if err := checkSplitNames(r.datasetName, values); err != nil {
		return frame.Frame{}, err
	}

	return df.Select(RequiredColumns...)
}

func assignSplitNamesAndMerge(train, val, test frame.Frame) frame.Frame {
	return frame.Concat(
		train.WithConstant(ColumnSplit, SplitTrain),
		val.WithConstant(ColumnSplit, SplitVal),
		test.WithConstant(ColumnSplit, SplitTest),
	)
}

func checkSplitNames(dataset string, values []any) error {
	got := make(map[string]struct{}, len(values))
	for _, v := range values {
		got[frame.String(v)] = struct{}{}
	}
	ok := len(got) == len(SplitNames)
	for _, name := range SplitNames {
		if _, present := got[name]; !present {
			ok = false
		}
	}
	if !ok {
		return &SplitError{Dataset: dataset, Expected: SplitNames, Got: sortedKeys(got)}
	}
	return nil
}

// SplitDataset partitions df into two disjoint frames sized (1-testSize) and testSize.
// With an empty stratifyColumn the rows are split uniformly at random. Otherwise the
// rows are grouped by the column's value, each group is split on its own and the
// per-group halves are concatenated, which keeps every value's share roughly equal in
// both outputs. A group too small for its share to round to one row stays entirely in
// the first output.
func SplitDataset(ctx context.Context, exec frame.Executor, df frame.Frame, testSize float64, stratifyColumn string) (frame.Frame, frame.Frame, error) {
	if err := ValidateRatio("test_size", testSize); err != nil {
		return frame.Frame{}, frame.Frame{}, err
	}
	if stratifyColumn == "" {
		return frame.TrainTestSplit(df, testSize, SplitSeed)
	}

	values, err := df.Unique(ctx, exec, stratifyColumn)
	if err != nil {
		return frame.Frame{}, frame.Frame{}, fmt.Errorf("failed to collect values of %s: %w", stratifyColumn, err)
	}

	if len(values) == 0 {
		// nothing to group: keep the schema and return two empty frames
		empty := df.Filter(func(frame.Row) (bool, error) { return false, nil })
		return empty, empty, nil
	}

	firsts := make([]frame.Frame, 0, len(values))
	seconds := make([]frame.Frame, 0, len(values))
	for _, value := range values {
		group := df.Filter(func(row frame.Row) (bool, error) {
			return row[stratifyColumn] == value, nil
		})
		first, second, err := frame.TrainTestSplit(group, testSize, SplitSeed)
		if err != nil {
			return frame.Frame{}, frame.Frame{}, err
		}
		firsts = append(firsts, first)
		seconds = append(seconds, second)
	}
	return frame.Concat(firsts...), frame.Concat(seconds...), nil
}

// ValidateRatio checks that a split fraction lies strictly between 0 and 1.
func ValidateRatio(name string, ratio float64) error {
	if math.IsNaN(ratio) || ratio <= 0 || ratio >= 1 {
		return fmt.Errorf("%s must be in (0, 1), got %v", name, ratio)
	}
	return nil
}
