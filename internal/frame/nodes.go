package frame

import (
	"context"
	"fmt"
)

// node is a vertex of the transformation graph.
type node interface {
	eval(ctx context.Context, ev *evaluator) ([]Partition, error)
}

// evaluator walks the graph for a single terminal operation. Nodes shared between
// branches are evaluated once per walk.
type evaluator struct {
	exec Executor
	memo map[node][]Partition
}

func newEvaluator(exec Executor) *evaluator {
	return &evaluator{exec: exec, memo: make(map[node][]Partition)}
}

func (ev *evaluator) eval(ctx context.Context, n node) ([]Partition, error) {
	if n == nil {
		return nil, fmt.Errorf("frame: uninitialized frame")
	}
	if parts, ok := ev.memo[n]; ok {
		return parts, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parts, err := n.eval(ctx, ev)
	if err != nil {
		return nil, err
	}
	ev.memo[n] = parts
	return parts, nil
}

// mapNode applies fn to every partition of src independently.
type mapNode struct {
	src node
	fn  func(Partition) (Partition, error)
}

func (n *mapNode) eval(ctx context.Context, ev *evaluator) ([]Partition, error) {
	in, err := ev.eval(ctx, n.src)
	if err != nil {
		return nil, err
	}
	out := make([]Partition, len(in))
	err = ev.exec.Map(ctx, len(in), func(_ context.Context, i int) error {
		p, err := n.fn(in[i])
		if err != nil {
			return err
		}
		out[i] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type concatNode struct {
	srcs []node
}

func (n *concatNode) eval(ctx context.Context, ev *evaluator) ([]Partition, error) {
	var out []Partition
	for _, src := range n.srcs {
		parts, err := ev.eval(ctx, src)
		if err != nil {
			return nil, err
		}
		out = append(out, parts...)
	}
	return out, nil
}

// mergeNode is an inner hash join: the right side is fully gathered into an index,
// the left side is probed partition by partition.
type mergeNode struct {
	left, right node
	on          string
	leftNames   map[string]string
	rightNames  map[string]string
}

func (n *mergeNode) eval(ctx context.Context, ev *evaluator) ([]Partition, error) {
	rightParts, err := ev.eval(ctx, n.right)
	if err != nil {
		return nil, err
	}
	index := make(map[any][]Row)
	for _, p := range rightParts {
		for _, r := range p {
			index[r[n.on]] = append(index[r[n.on]], r)
		}
	}
	leftParts, err := ev.eval(ctx, n.left)
	if err != nil {
		return nil, err
	}
	out := make([]Partition, len(leftParts))
	err = ev.exec.Map(ctx, len(leftParts), func(_ context.Context, i int) error {
		var joined Partition
		for _, l := range leftParts[i] {
			for _, r := range index[l[n.on]] {
				row := make(Row, len(l)+len(r))
				for k, v := range l {
					row[n.leftNames[k]] = v
				}
				for k, v := range r {
					if k == n.on {
						continue
					}
					row[n.rightNames[k]] = v
				}
				joined = append(joined, row)
			}
		}
		out[i] = joined
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// rowsNode is an in-memory source.
type rowsNode struct {
	parts []Partition
}

func (n *rowsNode) eval(context.Context, *evaluator) ([]Partition, error) {
	return n.parts, nil
}

// FromRows builds a frame over in-memory rows, chunked into partitions of blockRows.
func FromRows(columns []string, rows []Row, blockRows int) Frame {
	return Frame{node: &rowsNode{parts: chunk(rows, blockRows)}, columns: append([]string(nil), columns...)}
}

func chunk(rows []Row, size int) []Partition {
	if size <= 0 {
		size = DefaultBlockRows
	}
	var parts []Partition
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		parts = append(parts, Partition(rows[start:end]))
	}
	return parts
}
