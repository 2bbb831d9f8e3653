// Package frame implements a small lazy, partitioned dataframe.
//
// A Frame is a node in a graph of transformations. Building a Frame never touches
// row data; rows are produced only when a terminal operation (Compute, Unique,
// Count) walks the graph. Every transformation returns a new Frame, so frames can be
// shared freely between branches of a plan.
package frame

import (
	"context"
	"fmt"
	"slices"
)

// Row is a single record keyed by column name.
type Row map[string]any

// Partition is a horizontal shard of a frame, processed independently.
type Partition []Row

// Executor runs n independent tasks, typically on a worker pool.
type Executor interface {
	Map(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Frame is an immutable lazy dataframe.
type Frame struct {
	node    node
	columns []string
}

// Columns returns the column names in order.
func (f Frame) Columns() []string {
	return slices.Clone(f.columns)
}

// HasColumn reports whether the frame carries the named column.
func (f Frame) HasColumn(name string) bool {
	return slices.Contains(f.columns, name)
}

// Valid reports whether the frame was built by this package.
func (f Frame) Valid() bool {
	return f.node != nil
}

// Filter keeps the rows for which pred returns true.
func (f Frame) Filter(pred func(Row) (bool, error)) Frame {
	return Frame{
		node: &mapNode{src: f.node, fn: func(p Partition) (Partition, error) {
			out := make(Partition, 0, len(p))
			for _, r := range p {
				keep, err := pred(r)
				if err != nil {
					return nil, err
				}
				if keep {
					out = append(out, r)
				}
			}
			return out, nil
		}},
		columns: f.columns,
	}
}

// WithColumn adds (or replaces) a column computed from each row.
func (f Frame) WithColumn(name string, fn func(Row) (any, error)) Frame {
	return Frame{
		node: &mapNode{src: f.node, fn: func(p Partition) (Partition, error) {
			out := make(Partition, len(p))
			for i, r := range p {
				v, err := fn(r)
				if err != nil {
					return nil, err
				}
				nr := r.clone(len(r) + 1)
				nr[name] = v
				out[i] = nr
			}
			return out, nil
		}},
		columns: appendColumn(f.columns, name),
	}
}

// WithConstant adds (or replaces) a column holding the same value on every row.
func (f Frame) WithConstant(name string, value any) Frame {
	return f.WithColumn(name, func(Row) (any, error) { return value, nil })
}

// Rename renames columns according to mapping. Unknown source names are ignored.
func (f Frame) Rename(mapping map[string]string) Frame {
	columns := make([]string, 0, len(f.columns))
	for _, c := range f.columns {
		if to, ok := mapping[c]; ok {
			c = to
		}
		if !slices.Contains(columns, c) {
			columns = append(columns, c)
		}
	}
	return Frame{
		node: &mapNode{src: f.node, fn: func(p Partition) (Partition, error) {
			out := make(Partition, len(p))
			for i, r := range p {
				nr := make(Row, len(r))
				for k, v := range r {
					if to, ok := mapping[k]; ok {
						k = to
					}
					nr[k] = v
				}
				out[i] = nr
			}
			return out, nil
		}},
		columns: columns,
	}
}

// Select projects the frame onto the given columns.
func (f Frame) Select(columns ...string) (Frame, error) {
	var missing []string
	for _, c := range columns {
		if !f.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return Frame{}, fmt.Errorf("select: unknown columns %v", missing)
	}
	cols := slices.Clone(columns)
	return Frame{
		node: &mapNode{src: f.node, fn: func(p Partition) (Partition, error) {
			out := make(Partition, len(p))
			for i, r := range p {
				nr := make(Row, len(cols))
				for _, c := range cols {
					nr[c] = r[c]
				}
				out[i] = nr
			}
			return out, nil
		}},
		columns: cols,
	}, nil
}

// Concat stacks frames vertically. The result carries the union of all columns;
// rows missing a column hold nil for it. Row order across inputs is not preserved.
func Concat(frames ...Frame) Frame {
	var columns []string
	srcs := make([]node, 0, len(frames))
	for _, f := range frames {
		for _, c := range f.columns {
			columns = appendColumn(columns, c)
		}
		srcs = append(srcs, f.node)
	}
	return Frame{node: &concatNode{srcs: srcs}, columns: columns}
}

// Merge inner-joins f with other on the key column. Non-key columns present on both
// sides get the suffixes _x (left) and _y (right).
func (f Frame) Merge(other Frame, on string) (Frame, error) {
	if !f.HasColumn(on) || !other.HasColumn(on) {
		return Frame{}, fmt.Errorf("merge: key column %q missing on one side", on)
	}
	left := make(map[string]string, len(f.columns))
	right := make(map[string]string, len(other.columns))
	var columns []string
	for _, c := range f.columns {
		name := c
		if c != on && other.HasColumn(c) {
			name = c + "_x"
		}
		left[c] = name
		columns = append(columns, name)
	}
	for _, c := range other.columns {
		if c == on {
			continue
		}
		name := c
		if f.HasColumn(c) {
			name = c + "_y"
		}
		right[c] = name
		columns = append(columns, name)
	}
	return Frame{
		node:    &mergeNode{left: f.node, right: other.node, on: on, leftNames: left, rightNames: right},
		columns: columns,
	}, nil
}

// Compute materializes the frame.
func (f Frame) Compute(ctx context.Context, exec Executor) (*Table, error) {
	parts, err := newEvaluator(exec).eval(ctx, f.node)
	if err != nil {
		return nil, err
	}
	var n int
	for _, p := range parts {
		n += len(p)
	}
	rows := make([]Row, 0, n)
	for _, p := range parts {
		rows = append(rows, p...)
	}
	return &Table{Columns: f.Columns(), Rows: rows}, nil
}

// Unique returns the distinct values of a column in first-appearance order.
func (f Frame) Unique(ctx context.Context, exec Executor, column string) ([]any, error) {
	if !f.HasColumn(column) {
		return nil, fmt.Errorf("unique: unknown column %q", column)
	}
	parts, err := newEvaluator(exec).eval(ctx, f.node)
	if err != nil {
		return nil, err
	}
	seen := make(map[any]struct{})
	var values []any
	for _, p := range parts {
		for _, r := range p {
			v := r[column]
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	return values, nil
}

// Count returns the number of rows.
func (f Frame) Count(ctx context.Context, exec Executor) (int, error) {
	parts, err := newEvaluator(exec).eval(ctx, f.node)
	if err != nil {
		return 0, err
	}
	var n int
	for _, p := range parts {
		n += len(p)
	}
	return n, nil
}

func (r Row) clone(capacity int) Row {
	out := make(Row, capacity)
	for k, v := range r {
		out[k] = v
	}
	return out
}

func appendColumn(columns []string, name string) []string {
	if slices.Contains(columns, name) {
		return columns
	}
	out := make([]string, len(columns), len(columns)+1)
	copy(out, columns)
	return append(out, name)
}
