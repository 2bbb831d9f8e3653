package models

import "time"

// RunStatus is the lifecycle state of a processing run.
type RunStatus string

const (
	RunPending    RunStatus = "pending"
	RunProcessing RunStatus = "processing"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Run represents one read of every configured dataset into a corpus
type Run struct {
	ID           string     `json:"id" db:"id"`
	Status       RunStatus  `json:"status" db:"status"`
	Datasets     string     `json:"datasets" db:"datasets"` // comma-separated dataset names
	TotalRows    int        `json:"total_rows" db:"total_rows"`
	ShortRows    int        `json:"short_text_rows" db:"short_text_rows"`
	ExportURI    string     `json:"export_uri,omitempty" db:"export_uri"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	ErrorMessage string     `json:"error_message,omitempty" db:"error_message"`
}

// SplitCount is the persisted row count of one (dataset, split, label) group of a run
type SplitCount struct {
	RunID       string `json:"-" db:"run_id"`
	DatasetName string `json:"dataset_name" db:"dataset_name"`
	Split       string `json:"split" db:"split"`
	Label       int64  `json:"label" db:"label"`
	Rows        int    `json:"rows" db:"row_count"`
}
