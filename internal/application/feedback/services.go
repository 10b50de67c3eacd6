package feedback

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/microloan-ai/risk-api/internal/application"
	"github.com/microloan-ai/risk-api/internal/domain/analysis"
	domain "github.com/microloan-ai/risk-api/internal/domain/feedback"
)

// RecordCommand is one human review of a completed analysis.
type RecordCommand struct {
	LoanID              string
	AnalystID           string
	AgentRecommendation string
	HumanDecision       string
	Rating              int
	Comments            string
}

// ImportedReport is the extractable content of a pre-existing generated
// report, as produced by ExtractReport or supplied directly by the migration
// caller.
type ImportedReport struct {
	LoanID       string    `json:"loan_id"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	GeneratedAt  time.Time `json:"generated_at"`
	CustomerName string    `json:"customer_name,omitempty"`
	RiskScore    float64   `json:"risk_score"`
	Decision     string    `json:"decision"`
	Summary      string    `json:"summary,omitempty"`
	KeyFindings  []string  `json:"key_findings,omitempty"`
	Conditions   []string  `json:"conditions,omitempty"`
}

// ImportedFeedback is one row of a pre-existing feedback export.
type ImportedFeedback struct {
	LoanID              string    `json:"loan_id"`
	AnalystID           string    `json:"analyst_id"`
	AgentRecommendation string    `json:"agent_recommendation"`
	HumanDecision       string    `json:"human_decision"`
	Rating              int       `json:"rating"`
	Comments            string    `json:"comments"`
	CreatedAt           time.Time `json:"created_at"`
}

// ReconcileResult summarizes one reconciliation batch.
type ReconcileResult struct {
	ImportedReports  int `json:"imported_reports"`
	SkippedReports   int `json:"skipped_reports"`
	ImportedFeedback int `json:"imported_feedback"`
	SkippedFeedback  int `json:"skipped_feedback"`
}

// Service stores human feedback against prior analyses and reconciles
// out-of-band reports/feedback into the canonical store without duplication.
type Service struct {
	Repo    domain.Repository
	Runs    analysis.Repository
	Reports analysis.ReportRepository
	Clock   application.Clock
}

// Record appends one feedback row. It fails with analysis.ErrNotFound when no
// completed run exists for the loan; prior feedback for the same loan is
// never overwritten.
func (s *Service) Record(ctx context.Context, cmd RecordCommand) (*domain.Feedback, error) {
	if strings.TrimSpace(cmd.LoanID) == "" {
		return nil, fmt.Errorf("%w: loan_id is required", analysis.ErrInvalidInput)
	}
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", analysis.ErrInvalidInput)
	}
	if _, err := s.Runs.LatestCompleted(ctx, cmd.LoanID); err != nil {
		return nil, fmt.Errorf("no completed analysis for loan %s: %w", cmd.LoanID, err)
	}

	analystID := cmd.AnalystID
	if analystID == "" {
		analystID = "web_user"
	}
	f := &domain.Feedback{
		LoanID:              cmd.LoanID,
		AnalystID:           analystID,
		AgentRecommendation: cmd.AgentRecommendation,
		HumanDecision:       cmd.HumanDecision,
		Rating:              cmd.Rating,
		Comments:            cmd.Comments,
		CreatedAt:           s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, f); err != nil {
		return nil, fmt.Errorf("saving feedback: %w", err)
	}
	return f, nil
}

// Reconcile is the idempotent batch import used during migration. A report
// already known under (loan_id, file_name) is skipped; otherwise a
// best-effort Completed run is synthesized from the report's content and
// flagged as sourced from import. Feedback rows are deduplicated by
// (loan_id, created_at). Running the same batch twice imports nothing the
// second time.
func (s *Service) Reconcile(ctx context.Context, reports []ImportedReport, fbs []ImportedFeedback) (ReconcileResult, error) {
	var res ReconcileResult

	for _, rep := range reports {
		if rep.LoanID == "" || rep.FileName == "" {
			res.SkippedReports++
			continue
		}
		existing, err := s.Reports.GetByLoanAndFile(ctx, rep.LoanID, rep.FileName)
		if err != nil {
			return res, fmt.Errorf("checking report (%s, %s): %w", rep.LoanID, rep.FileName, err)
		}
		if existing != nil {
			res.SkippedReports++
			continue
		}
		if err := s.importReport(ctx, rep); err != nil {
			return res, err
		}
		res.ImportedReports++
	}

	for _, fb := range fbs {
		if fb.LoanID == "" {
			res.SkippedFeedback++
			continue
		}
		dup, err := s.Repo.Exists(ctx, fb.LoanID, fb.CreatedAt)
		if err != nil {
			return res, fmt.Errorf("checking feedback for loan %s: %w", fb.LoanID, err)
		}
		if dup {
			res.SkippedFeedback++
			continue
		}
		analystID := fb.AnalystID
		if analystID == "" {
			analystID = "import"
		}
		if err := s.Repo.Save(ctx, &domain.Feedback{
			LoanID:              fb.LoanID,
			AnalystID:           analystID,
			AgentRecommendation: fb.AgentRecommendation,
			HumanDecision:       fb.HumanDecision,
			Rating:              fb.Rating,
			Comments:            fb.Comments,
			CreatedAt:           fb.CreatedAt,
		}); err != nil {
			return res, fmt.Errorf("importing feedback for loan %s: %w", fb.LoanID, err)
		}
		res.ImportedFeedback++
	}

	log.Printf("reconcile done reports=%d/%d feedback=%d/%d",
		res.ImportedReports, res.ImportedReports+res.SkippedReports,
		res.ImportedFeedback, res.ImportedFeedback+res.SkippedFeedback)
	return res, nil
}

// importReport synthesizes a Completed run from the report's extractable
// content and records the report row.
func (s *Service) importReport(ctx context.Context, rep ImportedReport) error {
	generatedAt := rep.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = s.Clock.Now()
	}
	run := &analysis.Run{
		ID:                analysis.AnalysisID(uuid.New().String()),
		LoanID:            rep.LoanID,
		CustomerName:      rep.CustomerName,
		State:             analysis.StateCompleted,
		RiskScore:         rep.RiskScore,
		Decision:          analysis.ParseDecision(rep.Decision),
		Summary:           rep.Summary,
		KeyFindings:       rep.KeyFindings,
		Conditions:        rep.Conditions,
		SourcedFromImport: true,
		CreatedAt:         generatedAt,
		CompletedAt:       &generatedAt,
	}
	if err := s.Runs.Save(ctx, run); err != nil {
		return fmt.Errorf("importing run for loan %s: %w", rep.LoanID, err)
	}
	if err := s.Reports.Save(ctx, &analysis.GeneratedReport{
		LoanID:      rep.LoanID,
		FileName:    rep.FileName,
		FileSize:    rep.FileSize,
		GeneratedAt: generatedAt,
	}); err != nil {
		return fmt.Errorf("importing report (%s, %s): %w", rep.LoanID, rep.FileName, err)
	}
	return nil
}

// ListByLoan returns all feedback for a loan, oldest first.
func (s *Service) ListByLoan(ctx context.Context, loanID string) ([]*domain.Feedback, error) {
	return s.Repo.ListByLoan(ctx, loanID)
}

// List returns the most recent feedback rows.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Feedback, error) {
	return s.Repo.List(ctx, limit)
}

// Count returns the total number of feedback rows.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.Repo.Count(ctx)
}
