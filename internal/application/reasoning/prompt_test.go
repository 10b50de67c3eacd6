package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/microloan-ai/risk-api/internal/application/scoring"
	"github.com/microloan-ai/risk-api/internal/domain/loans"
	domrules "github.com/microloan-ai/risk-api/internal/domain/rules"
)

func promptFacts() *loans.LoanFacts {
	return &loans.LoanFacts{
		LoanID:       "L-7",
		CustomerName: "Fatma Trabelsi",
		Attributes:   map[string]string{"Genre": "Féminin"},
		Metrics:      map[string]float64{"DTI": 55},
		Financials:   loans.Financials{LoanAmount: 15000, TermMonths: 36},
	}
}

func promptScore() scoring.Result {
	return scoring.Result{
		RawScore: 35,
		Score:    35,
		Triggered: []scoring.Triggered{
			{Rule: domrules.Rule{Category: "Debt", Item: "DTI>50%", Weight: 35}, Value: "55", Contribution: 35},
		},
	}
}

func TestBuildPromptSections(t *testing.T) {
	p := BuildPrompt(promptFacts(), promptScore())

	assert.Contains(t, p, "Name: Fatma Trabelsi")
	assert.Contains(t, p, "- Genre: Féminin")
	assert.Contains(t, p, "Loan Amount: 15000.00 TND")
	assert.Contains(t, p, "| Debt / DTI>50% | 55 | 35.0 |")
	assert.Contains(t, p, `"recommendation": "approve|deny|review"`)
	assert.NotContains(t, p, "Analyst Notes")
	assert.NotContains(t, p, "Prior Analyst Feedback")
}

func TestBuildPromptIncludesNotes(t *testing.T) {
	facts := promptFacts()
	facts.Notes = "income documents look inconsistent"

	p := BuildPrompt(facts, promptScore())
	assert.Contains(t, p, "- Analyst Notes: income documents look inconsistent")
}

func TestBuildPromptIncludesPriorFeedback(t *testing.T) {
	facts := promptFacts()
	facts.PriorFeedback = []string{
		"2026-03-01: agent recommended approve, analyst decided deny (rating 2/5): income overstated",
	}

	p := BuildPrompt(facts, promptScore())
	assert.Contains(t, p, "**Prior Analyst Feedback:**")
	assert.Contains(t, p, "- 2026-03-01: agent recommended approve, analyst decided deny (rating 2/5): income overstated")
}

func TestBuildPromptDeterministic(t *testing.T) {
	assert.Equal(t, BuildPrompt(promptFacts(), promptScore()), BuildPrompt(promptFacts(), promptScore()))
}
