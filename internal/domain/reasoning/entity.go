package reasoning

import "github.com/microloan-ai/risk-api/internal/domain/analysis"

// Result is the normalized reply of the reasoning service. Best-effort: a
// degraded or partially parsed reply still yields a usable Result.
type Result struct {
	Summary            string            `json:"summary"`
	Recommendation     analysis.Decision `json:"recommendation"`
	Rationale          []string          `json:"rationale,omitempty"`
	KeyFindings        []string          `json:"key_findings,omitempty"`
	Conditions         []string          `json:"conditions,omitempty"`
	LowConfidenceParse bool              `json:"low_confidence_parse,omitempty"`
	Degraded           bool              `json:"degraded,omitempty"`
}
