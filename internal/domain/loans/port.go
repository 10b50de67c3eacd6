package loans

import (
	"context"
	"errors"
)

// ErrNotFound indicates the facts source knows neither the loan_id nor the
// external_id.
var ErrNotFound = errors.New("loan not found")

// FactsSource port for the collaborator that resolves loan/applicant facts.
// At least one of loanID/externalID is set.
type FactsSource interface {
	GetLoanFacts(ctx context.Context, loanID, externalID string) (*LoanFacts, error)
}
