package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"data-preparation/internal/config"
	"data-preparation/internal/dataset"
	"data-preparation/internal/frame"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"go.uber.org/zap"
)

func readParquet(t *testing.T, path string) []Record {
	t.Helper()
	fr, err := local.NewLocalFileReader(path)
	require.NoError(t, err)
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(Record), 2)
	require.NoError(t, err)
	defer pr.ReadStop()

	records := make([]Record, pr.GetNumRows())
	require.NoError(t, pr.Read(&records))
	return records
}

type recordingUploader struct {
	keys []string
	err  error
}

func (u *recordingUploader) Upload(_ context.Context, localPath, key string) (string, error) {
	if u.err != nil {
		return "", u.err
	}
	if _, err := os.Stat(localPath); err != nil {
		return "", err
	}
	u.keys = append(u.keys, key)
	return "s3://corpus/processed/" + key, nil
}

func corpusTable() *frame.Table {
	row := func(text string, label int64, split string) frame.Row {
		return frame.Row{
			dataset.ColumnText:        text,
			dataset.ColumnLabel:       label,
			dataset.ColumnSplit:       split,
			dataset.ColumnDatasetName: "ghc",
		}
	}
	return &frame.Table{
		Columns: dataset.RequiredColumns,
		Rows: []frame.Row{
			row("first train row", 0, dataset.SplitTrain),
			row("second train row", 1, dataset.SplitTrain),
			row("a test row", 1, dataset.SplitTest),
		},
	}
}

func TestExporter_Export(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(dir, nil, zap.NewNop())

	location, err := e.Export(context.Background(), "run-1", corpusTable())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1"), location)

	train := readParquet(t, filepath.Join(location, "train.parquet"))
	require.Len(t, train, 2)
	assert.Equal(t, Record{Text: "first train row", Label: 0, Split: "train", DatasetName: "ghc"}, train[0])
	assert.Equal(t, int32(1), train[1].Label)

	test := readParquet(t, filepath.Join(location, "test.parquet"))
	require.Len(t, test, 1)
	assert.Equal(t, "a test row", test[0].Text)

	// splits without rows are not written
	assert.NoFileExists(t, filepath.Join(location, "val.parquet"))
}

func TestExporter_Upload(t *testing.T) {
	uploader := &recordingUploader{}
	e := NewExporter(t.TempDir(), uploader, zap.NewNop())

	location, err := e.Export(context.Background(), "run-2", corpusTable())
	require.NoError(t, err)
	assert.Equal(t, "s3://corpus/processed/run-2", location)
	assert.Equal(t, []string{"run-2/train.parquet", "run-2/test.parquet"}, uploader.keys)

	failing := NewExporter(t.TempDir(), &recordingUploader{err: errors.New("denied")}, zap.NewNop())
	_, err = failing.Export(context.Background(), "run-3", corpusTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestExporter_BadLabel(t *testing.T) {
	tbl := corpusTable()
	tbl.Rows[1][dataset.ColumnLabel] = "toxic"

	_, err := NewExporter(t.TempDir(), nil, zap.NewNop()).Export(context.Background(), "run-4", tbl)
	assert.Error(t, err)
}

func TestFromConfig_Disabled(t *testing.T) {
	e, err := FromConfig(context.Background(), &config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, e)
}
