package frame

import (
	"context"
	"fmt"
	"math"
	"math/rand"
)

// TrainTestSplit partitions the rows of f uniformly at random into two disjoint frames
// holding round((1-testSize)*n) and round(testSize*n) rows. The permutation depends only
// on the input rows and seed, so repeated computations produce the same partitions.
//
// Both outputs read the same shuffle node: computing them together (for example through
// Concat) shuffles once.
func TrainTestSplit(f Frame, testSize float64, seed int64) (Frame, Frame, error) {
	if testSize <= 0 || testSize >= 1 {
		return Frame{}, Frame{}, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}
	s := &shuffleNode{src: f.node, testSize: testSize, seed: seed}
	first := Frame{node: &pickNode{src: s, index: 0}, columns: f.columns}
	second := Frame{node: &pickNode{src: s, index: 1}, columns: f.columns}
	return first, second, nil
}

// shuffleNode gathers every partition of src and emits exactly two partitions:
// the first and second halves of a seeded permutation.
type shuffleNode struct {
	src      node
	testSize float64
	seed     int64
}

func (n *shuffleNode) eval(ctx context.Context, ev *evaluator) ([]Partition, error) {
	parts, err := ev.eval(ctx, n.src)
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, p := range parts {
		rows = append(rows, p...)
	}

	rng := rand.New(rand.NewSource(n.seed))
	perm := rng.Perm(len(rows))
	nSecond := int(math.Round(n.testSize * float64(len(rows))))

	second := make(Partition, 0, nSecond)
	first := make(Partition, 0, len(rows)-nSecond)
	for i, idx := range perm {
		if i < nSecond {
			second = append(second, rows[idx])
		} else {
			first = append(first, rows[idx])
		}
	}
	return []Partition{first, second}, nil
}

type pickNode struct {
	src   node
	index int
}

func (n *pickNode) eval(ctx context.Context, ev *evaluator) ([]Partition, error) {
	parts, err := ev.eval(ctx, n.src)
	if err != nil {
		return nil, err
	}
	return []Partition{parts[n.index]}, nil
}
