package dataset

import (
	"context"
	"path/filepath"

	"data-preparation/internal/frame"
)

var jigsawLabelColumns = []string{"toxic", "severe_toxic", "obscene", "threat", "insult", "identity_hate"}

// jigsawUnlabeled marks test rows that were never scored.
const jigsawUnlabeled int64 = -1

// JigsawSource reads the Jigsaw toxic comment classification dataset. Test comments and
// their labels live in separate files joined by id; validation is carved from train.
type JigsawSource struct {
	DatasetDir    string
	ValSplitRatio float64
}

func (s *JigsawSource) ReadSplits(ctx context.Context, exec frame.Executor) (frame.Frame, frame.Frame, frame.Frame, error) {
	test, err := frame.ReadCSV(filepath.Join(s.DatasetDir, "test.csv"))
	if err != nil {
		return fail(err)
	}
	testLabels, err := frame.ReadCSV(filepath.Join(s.DatasetDir, "test_labels.csv"))
	if err != nil {
		return fail(err)
	}

	// merging and removing data points with -1 in the labels
	test, err = test.Merge(testLabels, "id")
	if err != nil {
		return fail(err)
	}
	test = test.Filter(func(row frame.Row) (bool, error) {
		v, err := frame.Int(row["toxic"])
		if err != nil {
			return false, err
		}
		return v != jigsawUnlabeled, nil
	})
	test = s.textAndLabel(test)

	train, err := frame.ReadCSV(filepath.Join(s.DatasetDir, "train.csv"))
	if err != nil {
		return fail(err)
	}
	train = s.textAndLabel(train)

	train, val, err := SplitDataset(ctx, exec, train, s.ValSplitRatio, ColumnLabel)
	if err != nil {
		return fail(err)
	}
	return train, val, test, nil
}

func (s *JigsawSource) textAndLabel(df frame.Frame) frame.Frame {
	return df.
		WithColumn(ColumnLabel, anyPositive(jigsawLabelColumns)).
		Rename(map[string]string{"comment_text": ColumnText})
}
