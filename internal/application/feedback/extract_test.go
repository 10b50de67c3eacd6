package feedback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const sampleReport = `LOAN RISK ASSESSMENT REPORT
============================================================
Loan ID: L-77
Customer: Amine Ben Salah
Generated: 2026-02-10T09:30:00Z

Summary:
Applicant shows a high debt load relative to income.

RECOMMENDATION: DENY (confidence 85%)

Key Findings:
- DTI above policy limit
- Short employment history

Recommended Conditions:
- None

TOTAL RISK SCORE: 72.5
`

func TestExtractReport(t *testing.T) {
	at := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
	rep := ExtractReport("loan_assessment_L-77_ab12cd34.txt", sampleReport, at)

	assert.Equal(t, "L-77", rep.LoanID)
	assert.Equal(t, "Amine Ben Salah", rep.CustomerName)
	assert.Equal(t, 72.5, rep.RiskScore)
	assert.Equal(t, "deny", rep.Decision)
	assert.Equal(t, "Applicant shows a high debt load relative to income.", rep.Summary)
	assert.Equal(t, []string{"DTI above policy limit", "Short employment history"}, rep.KeyFindings)
	assert.Empty(t, rep.Conditions)
	assert.Equal(t, int64(len(sampleReport)), rep.FileSize)
	assert.Equal(t, at, rep.GeneratedAt)
}

func TestExtractReportToleratesMissingSections(t *testing.T) {
	rep := ExtractReport("loan_assessment_L-9_x.txt", "free-form text with no sections", time.Time{})
	assert.Equal(t, "L-9", rep.LoanID)
	assert.Zero(t, rep.RiskScore)
	assert.Empty(t, rep.Decision)
	assert.Empty(t, rep.KeyFindings)
}
