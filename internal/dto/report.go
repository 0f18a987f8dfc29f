package dto

import "time"

// CreateReportRequest asks for a badge count report in the given format.
type CreateReportRequest struct {
	Format string `json:"format" validate:"required,oneof=CSV PDF"`
}

// ReportResponse describes a report job; DownloadURL is only set once the
// job has completed.
type ReportResponse struct {
	ID          string     `json:"id"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	DownloadURL string     `json:"download_url,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
