package dataset

import (
	"context"
	"path/filepath"

	"data-preparation/internal/frame"
)

const twitterNonOffending = "not_cyberbullying"

// TwitterSource reads the cyberbullying tweets dataset: a single file whose category
// column becomes a binary label. Test and validation are carved by two successive
// stratified splits.
type TwitterSource struct {
	DatasetDir     string
	ValSplitRatio  float64
	TestSplitRatio float64
}

func (s *TwitterSource) ReadSplits(ctx context.Context, exec frame.Executor) (frame.Frame, frame.Frame, frame.Frame, error) {
	df, err := frame.ReadCSV(filepath.Join(s.DatasetDir, "cyberbullying_tweets.csv"))
	if err != nil {
		return fail(err)
	}

	df = df.Rename(map[string]string{"tweet_text": ColumnText, "cyberbullying_type": ColumnLabel})
	df = df.WithColumn(ColumnLabel, func(row frame.Row) (any, error) {
		if frame.String(row[ColumnLabel]) != twitterNonOffending {
			return int64(1), nil
		}
		return int64(0), nil
	})

	train, test, err := SplitDataset(ctx, exec, df, s.TestSplitRatio, ColumnLabel)
	if err != nil {
		return fail(err)
	}
	train, val, err := SplitDataset(ctx, exec, train, s.ValSplitRatio, ColumnLabel)
	if err != nil {
		return fail(err)
	}
	return train, val, test, nil
}
