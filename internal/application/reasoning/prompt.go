package reasoning

import (
	"fmt"
	"sort"
	"strings"

	"github.com/microloan-ai/risk-api/internal/application/scoring"
	"github.com/microloan-ai/risk-api/internal/domain/loans"
)

// BuildPrompt produces the deterministic user prompt for one analysis:
// applicant profile, financial figures, the triggered-rule table and the
// required JSON reply shape. Same facts and scoring result, same prompt.
func BuildPrompt(facts *loans.LoanFacts, sc scoring.Result) string {
	var b strings.Builder

	b.WriteString("Conduct a professional assessment of this loan application, focusing on:\n")
	b.WriteString("1. Data consistency and red flags\n")
	b.WriteString("2. Financial capacity and repayment ability\n")
	b.WriteString("3. Risk factor correlations\n")
	b.WriteString("4. Profile vs purpose alignment\n\n")

	b.WriteString("=== APPLICATION DETAILS ===\n\n")
	fmt.Fprintf(&b, "**Customer Profile:**\n- Name: %s\n- Loan ID: %s\n", orNA(facts.CustomerName), orNA(facts.LoanID))
	for _, k := range sortedKeys(facts.Attributes) {
		fmt.Fprintf(&b, "- %s: %s\n", k, facts.Attributes[k])
	}
	if facts.Notes != "" {
		fmt.Fprintf(&b, "- Analyst Notes: %s\n", facts.Notes)
	}

	fin := facts.Financials
	b.WriteString("\n**Financial Details:**\n")
	fmt.Fprintf(&b, "- Loan Amount: %.2f %s\n", fin.LoanAmount, orDefault(fin.Currency, "TND"))
	fmt.Fprintf(&b, "- Personal Contribution: %.2f\n", fin.PersonalContribution)
	fmt.Fprintf(&b, "- Monthly Payment: %.2f\n", fin.MonthlyPayment)
	fmt.Fprintf(&b, "- APR: %.2f%%\n", fin.APR)
	fmt.Fprintf(&b, "- Interest Rate: %.2f%%\n", fin.InterestRate)
	fmt.Fprintf(&b, "- Term: %d months\n", fin.TermMonths)

	b.WriteString("\n**Risk Assessment:**\n")
	fmt.Fprintf(&b, "Raw Score: %.1f, Normalized Score: %.1f\n", sc.RawScore, sc.Score)
	b.WriteString("| Risk Factor | Value | Score |\n|------------|-------|-------|\n")
	for _, t := range sc.Triggered {
		fmt.Fprintf(&b, "| %s / %s | %s | %.1f |\n", t.Rule.Category, t.Rule.Item, orNA(t.Value), t.Contribution)
	}

	if len(facts.PriorFeedback) > 0 {
		b.WriteString("\n**Prior Analyst Feedback:**\nEarlier human reviews of this loan; weigh them against the current data.\n")
		for _, line := range facts.PriorFeedback {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	b.WriteString(`
=== RESPONSE FORMAT ===
Respond with VALID JSON only, following this exact structure:
{
    "summary": "Comprehensive professional assessment covering all key aspects",
    "recommendation": "approve|deny|review",
    "rationale": ["Primary reason for recommendation"],
    "key_findings": ["Specific finding with impact analysis"],
    "conditions": ["Specific condition if approving, verification needed if reviewing"]
}
`)
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
