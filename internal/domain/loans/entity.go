package loans

// Financials holds the numeric side of a loan application.
type Financials struct {
	LoanAmount           float64 `json:"loan_amount"`
	PersonalContribution float64 `json:"personal_contribution"`
	TotalInterest        float64 `json:"total_interest"`
	MonthlyPayment       float64 `json:"monthly_payment"`
	APR                  float64 `json:"apr"`
	InterestRate         float64 `json:"interest_rate"`
	TermMonths           int     `json:"term_months"`
	Currency             string  `json:"currency"`
}

// LoanFacts is the input record for one analysis. Enriched with submission
// notes and prior feedback right after fetching, immutable once evaluation
// starts.
//
// Attributes maps rule categories (e.g. "Genre", "Région") to the applicant's
// value for that category. Metrics carries named numeric figures (e.g. "DTI",
// "Score") that threshold rules compare against.
type LoanFacts struct {
	LoanID       string             `json:"loan_id"`
	ExternalID   string             `json:"external_id,omitempty"`
	CustomerName string             `json:"customer_name"`
	Notes        string             `json:"notes,omitempty"`
	Attributes   map[string]string  `json:"attributes"`
	Metrics      map[string]float64 `json:"metrics"`
	Financials   Financials         `json:"financials"`

	// PriorFeedback carries formatted human review lines from earlier
	// analyses of the same loan, surfaced to the reasoning layer.
	PriorFeedback []string `json:"prior_feedback,omitempty"`
}

// Attribute returns the applicant value for a rule category, or "".
func (f *LoanFacts) Attribute(category string) string {
	if f.Attributes == nil {
		return ""
	}
	return f.Attributes[category]
}
