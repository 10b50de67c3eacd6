package analysis

import "time"

// GeneratedReport records the rendered artifact of a completed run.
// One-to-one with the run's rendered output; (loan_id, file_name) is unique.
type GeneratedReport struct {
	ID          int64     `json:"id"`
	LoanID      string    `json:"loan_id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	URL         string    `json:"url,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ReportArtifact is what the renderer hands back.
type ReportArtifact struct {
	FileName string
	FileSize int64
	URL      string
}
