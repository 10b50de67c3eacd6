package feedback

import "time"

// Feedback is one human review of a completed analysis. Append-only; multiple
// reviews per loan are allowed and all retained.
type Feedback struct {
	ID                  int64     `json:"id"`
	LoanID              string    `json:"loan_id"`
	AnalystID           string    `json:"analyst_id"`
	AgentRecommendation string    `json:"agent_recommendation"`
	HumanDecision       string    `json:"human_decision"`
	Rating              int       `json:"rating"` // 1-5
	Comments            string    `json:"comments,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}
