package frame

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultBlockRows is the number of rows per partition for file sources.
const DefaultBlockRows = 10000

type csvOptions struct {
	sep       rune
	blockRows int
}

// CSVOption configures ReadCSV.
type CSVOption func(*csvOptions)

// WithSeparator sets the field delimiter, e.g. '\t' for TSV files.
func WithSeparator(sep rune) CSVOption {
	return func(o *csvOptions) { o.sep = sep }
}

// WithBlockRows sets how many rows go into each partition.
func WithBlockRows(n int) CSVOption {
	return func(o *csvOptions) { o.blockRows = n }
}

// ReadCSV returns a frame over a delimited file with a header row. The header is read
// immediately so a missing or unreadable file fails here; the body is read when the
// frame is computed. All values are strings.
func ReadCSV(path string, opts ...CSVOption) (Frame, error) {
	o := csvOptions{sep: ',', blockRows: DefaultBlockRows}
	for _, opt := range opts {
		opt(&o)
	}

	file, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	header, err := newCSVReader(file, o.sep).Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, fmt.Errorf("failed to read header of %s: empty file", path)
		}
		return Frame{}, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	return Frame{
		node:    &csvNode{path: path, opts: o},
		columns: header,
	}, nil
}

type csvNode struct {
	path string
	opts csvOptions
}

func (n *csvNode) eval(ctx context.Context, _ *evaluator) ([]Partition, error) {
	file, err := os.Open(n.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", n.path, err)
	}
	defer file.Close()

	reader := newCSVReader(bufio.NewReader(file), n.opts.sep)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", n.path, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	var (
		parts   []Partition
		current = make(Partition, 0, n.opts.blockRows)
		line    = 1
	)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read %s line %d: %w", n.path, line, err)
		}
		row := make(Row, len(header))
		for i, name := range header {
			row[name] = rec[i]
		}
		current = append(current, row)
		if len(current) == n.opts.blockRows {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			parts = append(parts, current)
			current = make(Partition, 0, n.opts.blockRows)
		}
	}
	if len(current) > 0 {
		parts = append(parts, current)
	}
	return parts, nil
}

func newCSVReader(r io.Reader, sep rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.LazyQuotes = true
	return reader
}
