package feedback

import (
	"context"
	"time"
)

// Repository port for feedback persistence.
type Repository interface {
	Save(ctx context.Context, f *Feedback) error
	ListByLoan(ctx context.Context, loanID string) ([]*Feedback, error)
	List(ctx context.Context, limit int) ([]*Feedback, error)
	// Exists reports whether a row with the same (loan_id, created_at) is
	// already stored; used by reconciliation to stay idempotent.
	Exists(ctx context.Context, loanID string, createdAt time.Time) (bool, error)
	Count(ctx context.Context) (int64, error)
}
