package models

import "time"

// ExportKind enumerates the report types that can be generated in the
// background.
type ExportKind string

const (
	ExportKindRanking ExportKind = "ranking"
	ExportKindSession ExportKind = "session"
)

// ExportStatus captures background job lifecycle states.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob tracks one background report generation request.
type ExportJob struct {
	ID           string       `json:"id"`
	Kind         ExportKind   `json:"kind"`
	SessionID    int          `json:"session_id,omitempty"`
	Format       string       `json:"format"`
	Status       ExportStatus `json:"status"`
	CreatedBy    string       `json:"created_by,omitempty"`
	ResultURL    *string      `json:"result_url,omitempty"`
	ErrorMessage *string      `json:"error,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}
