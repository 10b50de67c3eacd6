package mysql

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/microloan-ai/risk-api/internal/domain/analysis"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save insert/update one report record. (loan_id, file_name) is unique, so a
// re-render of the same run overwrites rather than duplicates.
func (r *ReportRepository) Save(ctx context.Context, rep *domain.GeneratedReport) error {
	const q = `
INSERT INTO generated_reports
(loan_id, file_name, file_size, url, generated_at)
VALUES (?,?,?,?,?)
ON DUPLICATE KEY UPDATE
 file_size=VALUES(file_size), url=VALUES(url), generated_at=VALUES(generated_at);
`
	res, err := r.db.ExecContext(ctx, q,
		rep.LoanID, rep.FileName, rep.FileSize, rep.URL, rep.GeneratedAt,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		rep.ID = id
	}
	return nil
}

// GetByLoanAndFile returns nil without error when no record exists.
func (r *ReportRepository) GetByLoanAndFile(ctx context.Context, loanID, fileName string) (*domain.GeneratedReport, error) {
	const q = `
SELECT id, loan_id, file_name, file_size, url, generated_at
FROM generated_reports
WHERE loan_id=? AND file_name=? LIMIT 1;
`
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, loanID, fileName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return rep, err
}

func (r *ReportRepository) LatestByLoan(ctx context.Context, loanID string) (*domain.GeneratedReport, error) {
	const q = `
SELECT id, loan_id, file_name, file_size, url, generated_at
FROM generated_reports
WHERE loan_id=? ORDER BY generated_at DESC LIMIT 1;
`
	return scanReport(r.db.QueryRowContext(ctx, q, loanID))
}

func (r *ReportRepository) List(ctx context.Context, limit int) ([]*domain.GeneratedReport, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `
SELECT id, loan_id, file_name, file_size, url, generated_at
FROM generated_reports
ORDER BY generated_at DESC LIMIT ?;
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.GeneratedReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *ReportRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generated_reports;`).Scan(&n)
	return n, err
}

func scanReport(row rowScanner) (*domain.GeneratedReport, error) {
	var rep domain.GeneratedReport
	if err := row.Scan(&rep.ID, &rep.LoanID, &rep.FileName, &rep.FileSize, &rep.URL, &rep.GeneratedAt); err != nil {
		return nil, err
	}
	return &rep, nil
}
