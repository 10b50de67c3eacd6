package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	domain "github.com/microloan-ai/risk-api/internal/domain/analysis"
)

type AnalysisRepository struct{ db *sql.DB }

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository { return &AnalysisRepository{db: db} }

const analysisColumns = `
id, loan_id, external_id, customer_name, state,
raw_score, risk_score, decision, confidence,
summary, key_findings, conditions, notes, error,
sourced_from_import, processing_ms, created_at, completed_at`

func (r *AnalysisRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
(id, loan_id, external_id, customer_name, state,
 raw_score, risk_score, decision, confidence,
 summary, key_findings, conditions, notes, error,
 sourced_from_import, processing_ms, created_at, completed_at)
VALUES ($1,$2,$3,$4,$5,
        $6,$7,$8,$9,
        $10,$11,$12,$13,$14,
        $15,$16,$17,$18)
ON CONFLICT (id) DO UPDATE SET
 customer_name = EXCLUDED.customer_name,
 state = EXCLUDED.state,
 raw_score = EXCLUDED.raw_score,
 risk_score = EXCLUDED.risk_score,
 decision = EXCLUDED.decision,
 confidence = EXCLUDED.confidence,
 summary = EXCLUDED.summary,
 key_findings = EXCLUDED.key_findings,
 conditions = EXCLUDED.conditions,
 notes = EXCLUDED.notes,
 error = EXCLUDED.error,
 processing_ms = EXCLUDED.processing_ms,
 completed_at = EXCLUDED.completed_at;`

	_, err := r.db.ExecContext(ctx, q,
		run.ID, run.LoanID, run.ExternalID, run.CustomerName, run.State,
		run.RawScore, run.RiskScore, run.Decision, run.Confidence,
		run.Summary, encodeList(run.KeyFindings), encodeList(run.Conditions), run.Notes, run.Error,
		run.SourcedFromImport, run.ProcessingMS, run.CreatedAt, nullTime(run.CompletedAt),
	)
	return err
}

func (r *AnalysisRepository) Get(ctx context.Context, id domain.AnalysisID) (*domain.Run, error) {
	q := `SELECT` + analysisColumns + `
FROM analysis_runs
WHERE id=$1 LIMIT 1;`
	return scanRun(r.db.QueryRowContext(ctx, q, id))
}

func (r *AnalysisRepository) LatestCompleted(ctx context.Context, loanID string) (*domain.Run, error) {
	q := `SELECT` + analysisColumns + `
FROM analysis_runs
WHERE loan_id=$1 AND state=$2 ORDER BY created_at DESC LIMIT 1;`
	return scanRun(r.db.QueryRowContext(ctx, q, loanID, domain.StateCompleted))
}

func (r *AnalysisRepository) List(ctx context.Context, f domain.Filter) (domain.PaginatedResult, error) {
	page := f.Page
	if page <= 0 {
		page = 1
	}
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	where, args := filterClause(f)
	q := `SELECT` + analysisColumns + `
FROM analysis_runs` + where + fmt.Sprintf(`
ORDER BY created_at DESC, id DESC
LIMIT $%d OFFSET $%d;`, len(args)+1, len(args)+2)
	listArgs := append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, q, listArgs...)
	if err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return domain.PaginatedResult{}, fmt.Errorf("scanning row: %w", err)
		}
		runs = append(runs, run)
	}
	if err = rows.Err(); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("iterating rows: %w", err)
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_runs`+where+`;`, args...).Scan(&total); err != nil {
		return domain.PaginatedResult{}, fmt.Errorf("counting runs: %w", err)
	}

	return domain.PaginatedResult{
		Data:       runs,
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (r *AnalysisRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analysis_runs;`).Scan(&n)
	return n, err
}

func filterClause(f domain.Filter) (string, []interface{}) {
	where := " WHERE 1=1"
	var args []interface{}
	if f.Decision != "" {
		args = append(args, f.Decision)
		where += fmt.Sprintf(" AND decision = $%d", len(args))
	}
	if f.CustomerName != "" {
		args = append(args, "%"+f.CustomerName+"%")
		where += fmt.Sprintf(" AND customer_name ILIKE $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*domain.Run, error) {
	var run domain.Run
	var findings, conditions string
	var completed sql.NullTime
	if err := row.Scan(
		&run.ID, &run.LoanID, &run.ExternalID, &run.CustomerName, &run.State,
		&run.RawScore, &run.RiskScore, &run.Decision, &run.Confidence,
		&run.Summary, &findings, &conditions, &run.Notes, &run.Error,
		&run.SourcedFromImport, &run.ProcessingMS, &run.CreatedAt, &completed,
	); err != nil {
		return nil, err
	}
	run.KeyFindings = decodeList(findings)
	run.Conditions = decodeList(conditions)
	run.CompletedAt = timePtr(completed)
	return &run, nil
}
