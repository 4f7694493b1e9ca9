package models

import (
	"time"
)

// ExportRow is one flattened record in an export: a column-name -> cell map.
// The first three columns are always id, title, team; the rest follow the
// first-seen order of field names across the exported set. Rows are built
// per request and discarded after serialization.
type ExportRow map[string]string

// Pagination describes one page of an export result.
type Pagination struct {
	Paged    int `json:"paged"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	MaxPages int `json:"max_pages"`
}

// ExportResult is the outcome of one export or preview request. Columns is
// the computed header; every row has a value (possibly empty) for each
// column.
type ExportResult struct {
	Columns    []string    `json:"columns"`
	Rows       []ExportRow `json:"rows"`
	Pagination Pagination  `json:"pagination"`
}

// Export job statuses, reused from the background processor's lifecycle.
type ExportJobStatus string

const (
	ExportJobPending    ExportJobStatus = "pending"
	ExportJobProcessing ExportJobStatus = "processing"
	ExportJobCompleted  ExportJobStatus = "completed"
	ExportJobFailed     ExportJobStatus = "failed"
)

// ExportJob is an asynchronous full-CSV export request. The processor walks
// every page of the filtered record set and writes a BOM-prefixed CSV file
// under the export directory.
type ExportJob struct {
	ID           string          `json:"job_id" db:"id"`
	RecordType   RecordType      `json:"record_type" db:"record_type"`
	Team         string          `json:"team,omitempty" db:"team"`
	StatusFilter string          `json:"status_filter" db:"status_filter"`
	Status       ExportJobStatus `json:"status" db:"status"`
	RowCount     int             `json:"row_count" db:"row_count"`
	FilePath     string          `json:"-" db:"file_path"`
	Error        string          `json:"error,omitempty" db:"error"`
	RequestedBy  string          `json:"requested_by" db:"requested_by"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}
