package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appfeedback "github.com/microloan-ai/risk-api/internal/application/feedback"
	"github.com/microloan-ai/risk-api/internal/domain/analysis"
)

func sampleRun() *analysis.Run {
	return &analysis.Run{
		ID:           "9f0c2a1b-3d4e-5f60-7182-93a4b5c6d7e8",
		LoanID:       "L-55",
		CustomerName: "Fatma Trabelsi",
		State:        analysis.StateCompleted,
		RiskScore:    47.5,
		Decision:     analysis.DecisionReview,
		Confidence:   72,
		Summary:      "Moderate risk profile with seasonal income.",
		KeyFindings:  []string{"Seasonal revenue", "No prior defaults"},
		Conditions:   []string{"Quarterly income review"},
	}
}

func TestFileNameStablePerRun(t *testing.T) {
	run := sampleRun()
	name := FileName(run)
	assert.Equal(t, "loan_assessment_L-55_9f0c2a1b.txt", name)
	assert.Equal(t, name, FileName(run))
}

func TestBodyRoundTripsThroughExtractor(t *testing.T) {
	run := sampleRun()
	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	body := Body(run, at)

	rep := appfeedback.ExtractReport(FileName(run), body, at)
	assert.Equal(t, "L-55", rep.LoanID)
	assert.Equal(t, "Fatma Trabelsi", rep.CustomerName)
	assert.Equal(t, 47.5, rep.RiskScore)
	assert.Equal(t, "review", rep.Decision)
	assert.Equal(t, run.Summary, rep.Summary)
	assert.Equal(t, run.KeyFindings, rep.KeyFindings)
	assert.Equal(t, run.Conditions, rep.Conditions)
}

func TestBodyHandlesEmptySections(t *testing.T) {
	run := sampleRun()
	run.Summary = ""
	run.KeyFindings = nil
	run.Conditions = nil

	body := Body(run, time.Now())
	assert.Contains(t, body, "Summary:\nNot available.")
	assert.Contains(t, body, "Key Findings:\n- None")
	assert.Contains(t, body, "TOTAL RISK SCORE: 47.5")
}
