package analysis

import (
	"strings"
	"time"
)

// AnalysisID identifier type
type AnalysisID string

// Decision is the closed set of final outcomes. Never a free-form string.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionDeny    Decision = "deny"
	DecisionReview  Decision = "review"
)

// ParseDecision normalizes a decision string, falling back to review for
// anything outside the closed set.
func ParseDecision(s string) Decision {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionApprove:
		return DecisionApprove
	case DecisionDeny:
		return DecisionDeny
	default:
		return DecisionReview
	}
}

// State enum for the pipeline state machine.
type State string

const (
	StateQueued       State = "queued"
	StateFetching     State = "fetching"
	StateEvaluating   State = "evaluating"
	StateReasoning    State = "reasoning"
	StateSynthesizing State = "synthesizing"
	StateReporting    State = "reporting"
	StatePersisted    State = "persisted"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transition may occur.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Percent is the progress value published when the run enters this state.
// Monotonic over the stage sequence.
func (s State) Percent() int {
	switch s {
	case StateQueued:
		return 0
	case StateFetching:
		return 10
	case StateEvaluating:
		return 30
	case StateReasoning:
		return 50
	case StateSynthesizing:
		return 70
	case StateReporting:
		return 85
	case StatePersisted:
		return 95
	default: // completed / failed
		return 100
	}
}

// Run is one end-to-end analysis execution for a loan. Mutated
// only by the orchestrator while advancing stages; terminal once Completed or
// Failed. A Failed run retains whatever partial result was computed.
type Run struct {
	ID                AnalysisID `json:"analysis_id"`
	LoanID            string     `json:"loan_id"`
	ExternalID        string     `json:"external_id,omitempty"`
	CustomerName      string     `json:"customer_name,omitempty"`
	State             State      `json:"state"`
	RawScore          float64    `json:"raw_score"`
	RiskScore         float64    `json:"risk_score"`
	Decision          Decision   `json:"decision,omitempty"`
	Confidence        float64    `json:"confidence"`
	Summary           string     `json:"summary,omitempty"`
	KeyFindings       []string   `json:"key_findings,omitempty"`
	Conditions        []string   `json:"conditions,omitempty"`
	Notes             string     `json:"notes,omitempty"`
	Error             string     `json:"error,omitempty"`
	SourcedFromImport bool       `json:"sourced_from_import,omitempty"`
	ProcessingMS      int64      `json:"processing_ms"`
	CreatedAt         time.Time  `json:"created_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}
