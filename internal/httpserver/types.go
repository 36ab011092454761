package httpserver

import (
	"licznik/internal/analysis"
	"licznik/internal/report"
)

// FileUploadRecord is the per-file outcome of one upload batch.
type FileUploadRecord struct {
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	Accepted bool   `json:"accepted"`
	Records  int    `json:"records,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadResponse describes one completed upload batch. Draft is present when
// at least one file parsed; DraftError explains a failed merge.
type UploadResponse struct {
	Uploaded   bool               `json:"uploaded"`
	BatchID    string             `json:"batchId,omitempty"`
	FilesCount int                `json:"filesCount"`
	Files      []FileUploadRecord `json:"perFileUploadRecord"`
	Draft      *analysis.Draft    `json:"analysisDraft,omitempty"`
	DraftError string             `json:"analysisDraftError,omitempty"`
}

// SummaryRequest selects rows from one session.
type SummaryRequest struct {
	SessionID string `json:"sessionId"`
	report.Request
}

// PivotRequest selects rows and shapes the spreadsheet export.
type PivotRequest struct {
	SessionID     string   `json:"sessionId"`
	Columns       []string `json:"exportColumns,omitempty"`
	IncludeAnnual bool     `json:"includeYearlySummary,omitempty"`
	report.Request
}

// YoYRequest selects rows for the year-over-year comparison export.
type YoYRequest struct {
	SessionID       string `json:"sessionId"`
	ComparisonMonth int    `json:"comparisonMonth,omitempty"`
	report.Request
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Sessions int    `json:"sessions"`
}
