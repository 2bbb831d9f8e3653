package dataset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrSchema is wrapped by every SchemaError.
	ErrSchema = errors.New("dataset is missing required columns")
	// ErrSplitIncomplete is wrapped by every SplitError.
	ErrSplitIncomplete = errors.New("dataset does not contain exactly the required splits")
)

// SchemaError reports the required columns a merged dataset lacks.
type SchemaError struct {
	Dataset string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %v: %s", e.Dataset, ErrSchema, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// SplitError reports a dataset whose distinct split values differ from the expected set.
type SplitError struct {
	Dataset  string
	Expected []string
	Got      []string
}

func (e *SplitError) Error() string {
	return fmt.Sprintf("%s: %v: expected {%s}, got {%s}",
		e.Dataset, ErrSplitIncomplete, strings.Join(e.Expected, ", "), strings.Join(e.Got, ", "))
}

func (e *SplitError) Unwrap() error { return ErrSplitIncomplete }

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
