// Package export persists a materialized corpus. Readers and the manager never write
// files; the processor hands the computed table to an Exporter when one is configured.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"data-preparation/internal/dataset"
	"data-preparation/internal/frame"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
	"go.uber.org/zap"
)

// Record is the parquet layout of one canonical row.
type Record struct {
	Text        string `parquet:"name=text, type=BYTE_ARRAY, convertedtype=UTF8"`
	Label       int32  `parquet:"name=label, type=INT32"`
	Split       string `parquet:"name=split, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	DatasetName string `parquet:"name=dataset_name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// Uploader copies an exported file somewhere else.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// Exporter writes one parquet file per split into a directory run by run.
type Exporter struct {
	dir      string
	uploader Uploader
	logger   *zap.Logger
}

// NewExporter creates an exporter rooted at dir. uploader may be nil.
func NewExporter(dir string, uploader Uploader, logger *zap.Logger) *Exporter {
	return &Exporter{dir: dir, uploader: uploader, logger: logger}
}

// Export writes <dir>/<runID>/<split>.parquet for every split present in t and
// returns the location of the run directory (or its uploaded prefix).
func (e *Exporter) Export(ctx context.Context, runID string, t *frame.Table) (string, error) {
	runDir := filepath.Join(e.dir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	bySplit := make(map[string][]Record, len(dataset.SplitNames))
	for i, row := range t.Rows {
		label, err := frame.Int(row[dataset.ColumnLabel])
		if err != nil {
			return "", fmt.Errorf("row %d: label: %w", i, err)
		}
		split := frame.String(row[dataset.ColumnSplit])
		bySplit[split] = append(bySplit[split], Record{
			Text:        frame.String(row[dataset.ColumnText]),
			Label:       int32(label),
			Split:       split,
			DatasetName: frame.String(row[dataset.ColumnDatasetName]),
		})
	}

	location := runDir
	for _, split := range dataset.SplitNames {
		records, ok := bySplit[split]
		if !ok {
			continue
		}
		path := filepath.Join(runDir, split+".parquet")
		if err := WriteParquet(path, records); err != nil {
			return "", err
		}
		e.logger.Info("Split exported", zap.String("split", split), zap.Int("rows", len(records)), zap.String("path", path))

		if e.uploader != nil {
			uri, err := e.uploader.Upload(ctx, path, runID+"/"+split+".parquet")
			if err != nil {
				return "", fmt.Errorf("failed to upload %s: %w", split, err)
			}
			location = strings.TrimSuffix(uri, "/"+split+".parquet")
		}
	}
	return location, nil
}

// WriteParquet writes records to path with snappy compression.
func WriteParquet(path string, records []Record) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, new(Record), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range records {
		if err := pw.Write(records[i]); err != nil {
			_ = pw.WriteStop()
			fw.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	return fw.Close()
}
