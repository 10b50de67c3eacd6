package reasoning

import (
	"encoding/json"
	"strings"

	"github.com/microloan-ai/risk-api/internal/domain/analysis"
	domain "github.com/microloan-ai/risk-api/internal/domain/reasoning"
)

// flexList accepts either a JSON string or a list of strings; small local
// models are not consistent about which they emit.
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if strings.TrimSpace(one) != "" {
			*l = []string{one}
		}
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			s = string(item)
		}
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

type reply struct {
	Summary        string   `json:"summary"`
	Recommendation string   `json:"recommendation"`
	Rationale      flexList `json:"rationale"`
	KeyFindings    flexList `json:"key_findings"`
	Conditions     flexList `json:"conditions"`
}

// parseReply normalizes the model's text into a Result. Parsing is resilient:
// a reply that cannot be decoded as the expected JSON shape degrades into a
// best-effort result with LowConfidenceParse set, never an error.
func parseReply(text string) domain.Result {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		var r reply
		if err := json.Unmarshal([]byte(text[start:end+1]), &r); err == nil && strings.TrimSpace(r.Summary) != "" {
			return domain.Result{
				Summary:        strings.TrimSpace(r.Summary),
				Recommendation: analysis.ParseDecision(r.Recommendation),
				Rationale:      r.Rationale,
				KeyFindings:    r.KeyFindings,
				Conditions:     r.Conditions,
			}
		}
	}

	// Not the expected shape: take the first paragraph as the summary and
	// flag the parse.
	summary := firstParagraph(text)
	if summary == "" {
		summary = "Reasoning service returned an empty reply"
	}
	return domain.Result{
		Summary:            summary,
		Recommendation:     analysis.DecisionReview,
		Rationale:          []string{"Could not parse reasoning reply"},
		LowConfidenceParse: true,
	}
}

func firstParagraph(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.Index(text, "\n\n"); i > 0 {
		text = text[:i]
	}
	if len(text) > 500 {
		text = text[:500]
	}
	return strings.TrimSpace(text)
}
