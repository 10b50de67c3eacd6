package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/microloan-ai/risk-api/internal/domain/feedback"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Save appends one feedback row. The table is append-only; id is assigned by
// the database.
func (r *FeedbackRepository) Save(ctx context.Context, f *domain.Feedback) error {
	const q = `
INSERT INTO analyst_feedback
(loan_id, analyst_id, agent_recommendation, human_decision, rating, comments, created_at)
VALUES (?,?,?,?,?,?,?);
`
	res, err := r.db.ExecContext(ctx, q,
		f.LoanID, f.AnalystID, f.AgentRecommendation, f.HumanDecision, f.Rating, f.Comments, f.CreatedAt,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		f.ID = id
	}
	return nil
}

func (r *FeedbackRepository) ListByLoan(ctx context.Context, loanID string) ([]*domain.Feedback, error) {
	const q = `
SELECT id, loan_id, analyst_id, agent_recommendation, human_decision, rating, comments, created_at
FROM analyst_feedback
WHERE loan_id=? ORDER BY created_at ASC;
`
	return r.query(ctx, q, loanID)
}

func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]*domain.Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, loan_id, analyst_id, agent_recommendation, human_decision, rating, comments, created_at
FROM analyst_feedback
ORDER BY created_at DESC LIMIT ?;
`
	return r.query(ctx, q, limit)
}

func (r *FeedbackRepository) Exists(ctx context.Context, loanID string, createdAt time.Time) (bool, error) {
	const q = `SELECT COUNT(*) FROM analyst_feedback WHERE loan_id=? AND created_at=?;`
	var n int
	if err := r.db.QueryRowContext(ctx, q, loanID, createdAt).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *FeedbackRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyst_feedback;`).Scan(&n)
	return n, err
}

func (r *FeedbackRepository) query(ctx context.Context, q string, args ...interface{}) ([]*domain.Feedback, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Feedback
	for rows.Next() {
		var f domain.Feedback
		if err := rows.Scan(
			&f.ID, &f.LoanID, &f.AnalystID, &f.AgentRecommendation, &f.HumanDecision,
			&f.Rating, &f.Comments, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, rows.Err()
}
