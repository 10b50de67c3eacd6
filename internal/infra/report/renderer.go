package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/microloan-ai/risk-api/internal/domain/analysis"
	"github.com/microloan-ai/risk-api/internal/infra/storage"
)

// Renderer produces the plain-text assessment report and uploads it to object
// storage. File name derives from the run identity, so a rerun of the same
// analysis overwrites its own artifact instead of creating a new one.
type Renderer struct {
	Store *storage.Store
	Now   func() time.Time
}

func NewRenderer(store *storage.Store) *Renderer {
	return &Renderer{Store: store, Now: time.Now}
}

func (r *Renderer) Render(ctx context.Context, run *analysis.Run) (analysis.ReportArtifact, error) {
	fileName := FileName(run)
	body := Body(run, r.Now())

	url, err := r.Store.Put(ctx, fileName, []byte(body), "text/plain; charset=utf-8")
	if err != nil {
		return analysis.ReportArtifact{}, fmt.Errorf("uploading report %s: %w", fileName, err)
	}
	return analysis.ReportArtifact{
		FileName: fileName,
		FileSize: int64(len(body)),
		URL:      url,
	}, nil
}

// FileName is stable per run identity.
func FileName(run *analysis.Run) string {
	short := string(run.ID)
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("loan_assessment_%s_%s.txt", run.LoanID, short)
}

// Body renders the report text. The section headers are load-bearing: the
// reconciliation extractor parses them back out of archived reports.
func Body(run *analysis.Run, at time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "LOAN RISK ASSESSMENT REPORT\n")
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 60))
	fmt.Fprintf(&b, "Loan ID: %s\n", run.LoanID)
	if run.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", run.CustomerName)
	}
	fmt.Fprintf(&b, "Generated: %s\n\n", at.UTC().Format(time.RFC3339))

	fmt.Fprintf(&b, "Summary:\n%s\n\n", orNone(run.Summary))

	fmt.Fprintf(&b, "RECOMMENDATION: %s (confidence %.0f%%)\n\n", strings.ToUpper(string(run.Decision)), run.Confidence)

	fmt.Fprintf(&b, "Key Findings:\n")
	writeBullets(&b, run.KeyFindings)
	b.WriteString("\n")

	fmt.Fprintf(&b, "Recommended Conditions:\n")
	writeBullets(&b, run.Conditions)
	b.WriteString("\n")

	fmt.Fprintf(&b, "TOTAL RISK SCORE: %.1f\n", run.RiskScore)

	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	if len(items) == 0 {
		b.WriteString("- None\n")
		return
	}
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not available."
	}
	return s
}
