package feedback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microloan-ai/risk-api/internal/application"
	"github.com/microloan-ai/risk-api/internal/domain/analysis"
	domain "github.com/microloan-ai/risk-api/internal/domain/feedback"
)

type memFeedbackRepo struct {
	mu   sync.Mutex
	rows []domain.Feedback
}

func (m *memFeedbackRepo) Save(ctx context.Context, f *domain.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *f)
	return nil
}

func (m *memFeedbackRepo) ListByLoan(ctx context.Context, loanID string) ([]*domain.Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Feedback
	for i := range m.rows {
		if m.rows[i].LoanID == loanID {
			cp := m.rows[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memFeedbackRepo) List(ctx context.Context, limit int) ([]*domain.Feedback, error) {
	return m.ListByLoan(ctx, "")
}

func (m *memFeedbackRepo) Exists(ctx context.Context, loanID string, createdAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.LoanID == loanID && r.CreatedAt.Equal(createdAt) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memFeedbackRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

type memRunRepo struct {
	mu   sync.Mutex
	runs []analysis.Run
}

func (m *memRunRepo) Save(ctx context.Context, r *analysis.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *r)
	return nil
}

func (m *memRunRepo) Get(ctx context.Context, id analysis.AnalysisID) (*analysis.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs {
		if m.runs[i].ID == id {
			cp := m.runs[i]
			return &cp, nil
		}
	}
	return nil, analysis.ErrNotFound
}

func (m *memRunRepo) LatestCompleted(ctx context.Context, loanID string) (*analysis.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].LoanID == loanID && m.runs[i].State == analysis.StateCompleted {
			cp := m.runs[i]
			return &cp, nil
		}
	}
	return nil, analysis.ErrNotFound
}

func (m *memRunRepo) List(ctx context.Context, f analysis.Filter) (analysis.PaginatedResult, error) {
	return analysis.PaginatedResult{}, nil
}

func (m *memRunRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.runs)), nil
}

type memReportRepo struct {
	mu      sync.Mutex
	reports []analysis.GeneratedReport
}

func (m *memReportRepo) Save(ctx context.Context, rep *analysis.GeneratedReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, *rep)
	return nil
}

func (m *memReportRepo) GetByLoanAndFile(ctx context.Context, loanID, fileName string) (*analysis.GeneratedReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.reports {
		if m.reports[i].LoanID == loanID && m.reports[i].FileName == fileName {
			cp := m.reports[i]
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memReportRepo) LatestByLoan(ctx context.Context, loanID string) (*analysis.GeneratedReport, error) {
	return nil, analysis.ErrNotFound
}

func (m *memReportRepo) List(ctx context.Context, limit int) ([]*analysis.GeneratedReport, error) {
	return nil, nil
}

func (m *memReportRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.reports)), nil
}

func testService(runs *memRunRepo) (*Service, *memFeedbackRepo, *memReportRepo) {
	repo := &memFeedbackRepo{}
	reports := &memReportRepo{}
	return &Service{
		Repo:    repo,
		Runs:    runs,
		Reports: reports,
		Clock:   application.SystemClock{},
	}, repo, reports
}

func completedRun(loanID string) analysis.Run {
	now := time.Now()
	return analysis.Run{
		ID:          "a-1",
		LoanID:      loanID,
		State:       analysis.StateCompleted,
		RiskScore:   42,
		Decision:    analysis.DecisionReview,
		CreatedAt:   now,
		CompletedAt: &now,
	}
}

func TestRecordRequiresCompletedRun(t *testing.T) {
	svc, _, _ := testService(&memRunRepo{})

	_, err := svc.Record(context.Background(), RecordCommand{LoanID: "L-1", Rating: 4})
	assert.ErrorIs(t, err, analysis.ErrNotFound)
}

func TestRecordValidation(t *testing.T) {
	runs := &memRunRepo{runs: []analysis.Run{completedRun("L-1")}}
	svc, _, _ := testService(runs)

	_, err := svc.Record(context.Background(), RecordCommand{LoanID: "", Rating: 3})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)

	_, err = svc.Record(context.Background(), RecordCommand{LoanID: "L-1", Rating: 0})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)

	_, err = svc.Record(context.Background(), RecordCommand{LoanID: "L-1", Rating: 6})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestRecordAppendsMultiple(t *testing.T) {
	runs := &memRunRepo{runs: []analysis.Run{completedRun("L-1")}}
	svc, repo, _ := testService(runs)

	fb1, err := svc.Record(context.Background(), RecordCommand{
		LoanID: "L-1", AnalystID: "alice", HumanDecision: "approve", Rating: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", fb1.AnalystID)

	fb2, err := svc.Record(context.Background(), RecordCommand{
		LoanID: "L-1", HumanDecision: "deny", Rating: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "web_user", fb2.AnalystID)

	list, err := repo.ListByLoan(context.Background(), "L-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestReconcileIsIdempotent(t *testing.T) {
	runs := &memRunRepo{}
	svc, repo, reports := testService(runs)

	batchReports := []ImportedReport{
		{
			LoanID:      "L-10",
			FileName:    "loan_assessment_L-10_abc.txt",
			FileSize:    512,
			GeneratedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			RiskScore:   61,
			Decision:    "deny",
			Summary:     "High leverage.",
			KeyFindings: []string{"DTI above policy"},
		},
		{
			LoanID:   "L-11",
			FileName: "loan_assessment_L-11_def.txt",
		},
	}
	batchFeedback := []ImportedFeedback{
		{LoanID: "L-10", HumanDecision: "deny", Rating: 5, CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
	}

	res, err := svc.Reconcile(context.Background(), batchReports, batchFeedback)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImportedReports)
	assert.Equal(t, 1, res.ImportedFeedback)

	// imported run is completed and flagged
	run, err := runs.LatestCompleted(context.Background(), "L-10")
	require.NoError(t, err)
	assert.True(t, run.SourcedFromImport)
	assert.Equal(t, 61.0, run.RiskScore)
	assert.Equal(t, analysis.DecisionDeny, run.Decision)

	// a second pass imports nothing
	res, err = svc.Reconcile(context.Background(), batchReports, batchFeedback)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedReports)
	assert.Equal(t, 2, res.SkippedReports)
	assert.Equal(t, 0, res.ImportedFeedback)
	assert.Equal(t, 1, res.SkippedFeedback)

	n, _ := reports.Count(context.Background())
	assert.Equal(t, int64(2), n)
	n, _ = repo.Count(context.Background())
	assert.Equal(t, int64(1), n)
}

func TestReconcileSkipsUnidentifiedRows(t *testing.T) {
	svc, _, _ := testService(&memRunRepo{})

	res, err := svc.Reconcile(context.Background(),
		[]ImportedReport{{LoanID: "", FileName: "x.txt"}},
		[]ImportedFeedback{{LoanID: ""}},
	)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ImportedReports)
	assert.Equal(t, 1, res.SkippedReports)
	assert.Equal(t, 1, res.SkippedFeedback)
}
