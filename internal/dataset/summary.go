package dataset

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"data-preparation/internal/frame"
)

// minWords is the shortest text, in words, a downstream model is trained on.
const minWords = 2

// GroupCount is the number of rows sharing a dataset, split and label.
type GroupCount struct {
	DatasetName string `json:"dataset_name"`
	Split       string `json:"split"`
	Label       int64  `json:"label"`
	Rows        int    `json:"rows"`
}

// Summary describes a materialized corpus.
type Summary struct {
	TotalRows     int          `json:"total_rows"`
	ShortTextRows int          `json:"short_text_rows"`
	Groups        []GroupCount `json:"groups"`
}

// Summarize counts rows per (dataset_name, split, label) and the rows whose text has
// fewer than two words. Groups are sorted by dataset, split and label.
func Summarize(t *frame.Table) (*Summary, error) {
	type key struct {
		dataset, split string
		label          int64
	}
	counts := make(map[key]int)
	s := &Summary{TotalRows: t.Len()}

	for i, row := range t.Rows {
		label, err := frame.Int(row[ColumnLabel])
		if err != nil {
			return nil, fmt.Errorf("row %d: label: %w", i, err)
		}
		k := key{
			dataset: frame.String(row[ColumnDatasetName]),
			split:   frame.String(row[ColumnSplit]),
			label:   label,
		}
		counts[k]++
		if len(strings.Fields(frame.String(row[ColumnText]))) < minWords {
			s.ShortTextRows++
		}
	}

	s.Groups = make([]GroupCount, 0, len(counts))
	for k, n := range counts {
		s.Groups = append(s.Groups, GroupCount{DatasetName: k.dataset, Split: k.split, Label: k.label, Rows: n})
	}
	slices.SortFunc(s.Groups, func(a, b GroupCount) int {
		return cmp.Or(
			cmp.Compare(a.DatasetName, b.DatasetName),
			cmp.Compare(a.Split, b.Split),
			cmp.Compare(a.Label, b.Label),
		)
	})
	return s, nil
}

// RowsByDataset totals the groups per dataset name.
func (s *Summary) RowsByDataset() map[string]int {
	out := make(map[string]int)
	for _, g := range s.Groups {
		out[g.DatasetName] += g.Rows
	}
	return out
}
