package analysis

import (
	"context"
	"time"
)

// Filter narrows List queries. Zero values mean "no constraint".
type Filter struct {
	Decision     Decision
	CustomerName string
	From         time.Time
	To           time.Time
	Page         int
	PageSize     int
}

// Repository port for run persistence.
type Repository interface {
	Save(ctx context.Context, r *Run) error
	Get(ctx context.Context, id AnalysisID) (*Run, error)
	// LatestCompleted returns the most recent completed run for a loan.
	LatestCompleted(ctx context.Context, loanID string) (*Run, error)
	List(ctx context.Context, f Filter) (PaginatedResult, error)
	Count(ctx context.Context) (int64, error)
}

// ReportRepository port for generated-report records. Save must respect the
// (loan_id, file_name) uniqueness invariant at the storage boundary.
type ReportRepository interface {
	Save(ctx context.Context, rep *GeneratedReport) error
	GetByLoanAndFile(ctx context.Context, loanID, fileName string) (*GeneratedReport, error)
	LatestByLoan(ctx context.Context, loanID string) (*GeneratedReport, error)
	List(ctx context.Context, limit int) ([]*GeneratedReport, error)
	Count(ctx context.Context) (int64, error)
}

// Renderer port for the external report-rendering collaborator. Idempotent
// given the same run identity: reruns overwrite rather than duplicate.
type Renderer interface {
	Render(ctx context.Context, r *Run) (ReportArtifact, error)
}
