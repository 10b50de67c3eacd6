package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	domain "github.com/microloan-ai/risk-api/internal/domain/analysis"
)

type AnalysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `
id, loan_id, external_id, customer_name, state,
raw_score, risk_score, decision, confidence,
summary, key_findings, conditions, notes, error,
sourced_from_import, processing_ms, created_at, completed_at`

// Save insert/update one run. The orchestrator saves at every stage change,
// so the row must tolerate repeated upserts under the same id.
func (r *AnalysisRepository) Save(ctx context.Context, run *domain.Run) error {
	const q = `
INSERT INTO analysis_runs
(id, loan_id, external_id, customer_name, state,
 raw_score, risk_score, decision, confidence,
 summary, key_findings, conditions, notes, error,
 sourced_from_import, processing_ms, created_at, completed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 customer_name=VALUES(customer_name), state=VALUES(state),
 raw_score=VALUES(raw_score), risk_score=VALUES(risk_score),
 decision=VALUES(decision), confidence=VALUES(confidence),
 summary=VALUES(summary), key_findings=VALUES(key_findings),
 conditions=VALUES(conditions), notes=VALUES(notes), error=VALUES(error),
 processing_ms=VALUES(processing_ms), completed_at=VALUES(completed_at);
`
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
WHERE id=? LIMIT 1;`
	return scanRun(r.db.QueryRowContext(ctx, q, id))
}

// LatestCompleted returns the most recent completed run for a loan.
func (r *AnalysisRepository) LatestCompleted(ctx context.Context, loanID string) (*domain.Run, error) {
	q := `SELECT` + analysisColumns + `
FROM analysis_runs
WHERE loan_id=? AND state=? ORDER BY created_at DESC LIMIT 1;`
	return scanRun(r.db.QueryRowContext(ctx, q, loanID, domain.StateCompleted))
}

// List with offset pagination and optional filters.
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
FROM analysis_runs` + where + `
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?;`
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
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

	where, args = filterClause(f)
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
		where += " AND decision = ?"
		args = append(args, f.Decision)
	}
	if f.CustomerName != "" {
		where += " AND customer_name LIKE ?"
		args = append(args, "%"+f.CustomerName+"%")
	}
	if !f.From.IsZero() {
		where += " AND created_at >= ?"
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where += " AND created_at <= ?"
		args = append(args, f.To)
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
