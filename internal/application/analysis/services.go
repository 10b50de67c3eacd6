package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/microloan-ai/risk-api/internal/application"
	"github.com/microloan-ai/risk-api/internal/application/decision"
	"github.com/microloan-ai/risk-api/internal/application/reasoning"
	apprules "github.com/microloan-ai/risk-api/internal/application/rules"
	"github.com/microloan-ai/risk-api/internal/application/scoring"
	domain "github.com/microloan-ai/risk-api/internal/domain/analysis"
	domfeedback "github.com/microloan-ai/risk-api/internal/domain/feedback"
	"github.com/microloan-ai/risk-api/internal/domain/loans"
)

// Metrics is an optional hook for run counters; nil disables it.
type Metrics interface {
	AnalysisStarted()
	AnalysisFinished(failed bool)
}

// SubmitCommand is the submission entry point's input. At least one of
// LoanID/ExternalID is required.
type SubmitCommand struct {
	LoanID     string
	ExternalID string
	Notes      string
}

// Service is the pipeline orchestrator. It is the only component that
// suspends on external I/O; scoring and synthesis stay pure. One goroutine
// per accepted run drives the stage sequence to a terminal state and streams
// progress to any registered listener.
//
// Service is safe for concurrent use.
type Service struct {
	Repo     domain.Repository
	Reports  domain.ReportRepository
	Facts    loans.FactsSource
	Rules    *apprules.Service
	Scoring  *scoring.Engine
	Reasoner *reasoning.Service
	Synth    *decision.Synthesizer
	Renderer domain.Renderer
	Clock    application.Clock
	Metrics  Metrics

	// Feedback, when set, supplies earlier human reviews of the same loan
	// as context for the reasoning layer. Best effort.
	Feedback domfeedback.Repository

	// ReportAttempts bounds renderer retries before the run fails with its
	// computed result retained.
	ReportAttempts int
	ReportBackoff  time.Duration

	hub      *hub
	inflight *registry
}

// NewService wires an orchestrator around its collaborators.
func NewService(s Service) *Service {
	s.hub = newHub()
	s.inflight = newRegistry()
	if s.ReportAttempts <= 0 {
		s.ReportAttempts = 3
	}
	if s.ReportBackoff <= 0 {
		s.ReportBackoff = time.Second
	}
	if s.Clock == nil {
		s.Clock = application.SystemClock{}
	}
	return &s
}

// Submit accepts a new analysis and returns immediately; the pipeline runs in
// the background with its own context so a disconnecting client never cancels
// it (the result is persisted for later retrieval).
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (domain.AnalysisID, error) {
	if strings.TrimSpace(cmd.LoanID) == "" && strings.TrimSpace(cmd.ExternalID) == "" {
		return "", fmt.Errorf("%w: one of loan_id or external_id is required", domain.ErrInvalidInput)
	}

	id := domain.AnalysisID(uuid.New().String())
	key := loanKey(cmd)
	if !s.inflight.tryAcquire(key, id) {
		return "", fmt.Errorf("%w: %s", domain.ErrDuplicateInFlight, key)
	}

	run := &domain.Run{
		ID:         id,
		LoanID:     cmd.LoanID,
		ExternalID: cmd.ExternalID,
		Notes:      cmd.Notes,
		State:      domain.StateQueued,
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, run); err != nil {
		s.inflight.release(key)
		return "", fmt.Errorf("persisting queued run: %w", err)
	}
	s.emit(run, "Analysis queued")
	if s.Metrics != nil {
		s.Metrics.AnalysisStarted()
	}

	go s.runPipeline(run, key)
	return id, nil
}

// runPipeline drives one run through its fixed stage sequence.
func (s *Service) runPipeline(run *domain.Run, key string) {
	ctx := context.Background()
	started := s.Clock.Now()

	defer func() {
		s.hub.closeRun(run.ID)
		s.inflight.release(key)
	}()

	// Fetching
	s.advance(ctx, run, domain.StateFetching, "Fetching loan facts")
	facts, err := s.Facts.GetLoanFacts(ctx, run.LoanID, run.ExternalID)
	if err != nil {
		s.fail(ctx, run, started, fmt.Errorf("fetching loan facts: %w", err))
		return
	}
	if run.LoanID == "" {
		run.LoanID = facts.LoanID
	}
	run.CustomerName = facts.CustomerName
	facts.Notes = run.Notes
	if s.Feedback != nil {
		prior, err := s.Feedback.ListByLoan(ctx, run.LoanID)
		if err != nil {
			log.Printf("loading prior feedback loan=%s: %v", run.LoanID, err)
		} else {
			facts.PriorFeedback = feedbackInsights(prior)
		}
	}

	// Evaluating. Scoring is pure and deterministic; a failure here is a
	// data or rule-set defect and is fatal, not retried.
	set := s.Rules.Snapshot()
	s.advance(ctx, run, domain.StateEvaluating, fmt.Sprintf("Scoring against %d rules (v%d)", len(set.Rules), set.Version))
	scRes, err := s.Scoring.Evaluate(facts, set)
	if err != nil {
		s.fail(ctx, run, started, fmt.Errorf("scoring: %w", err))
		return
	}
	run.RawScore = scRes.RawScore
	run.RiskScore = scRes.Score

	// Reasoning always proceeds: a degraded result is still a result, and
	// the pipeline never fails on reasoning-service unavailability.
	s.advance(ctx, run, domain.StateReasoning, "Requesting qualitative reasoning")
	rsRes := s.Reasoner.Analyze(ctx, facts, scRes)

	// Synthesizing
	s.advance(ctx, run, domain.StateSynthesizing, "Merging numeric and qualitative signals")
	out := s.Synth.Synthesize(scRes, rsRes)
	run.Decision = out.Decision
	run.Confidence = out.Confidence
	run.Summary = rsRes.Summary
	run.KeyFindings = rsRes.KeyFindings
	run.Conditions = rsRes.Conditions

	// Reporting, with bounded retries. Render failures do not discard the
	// computed decision.
	s.advance(ctx, run, domain.StateReporting, "Rendering assessment report")
	artifact, err := s.renderWithRetry(ctx, run)
	if err != nil {
		s.fail(ctx, run, started, fmt.Errorf("reporting: %w", err))
		return
	}
	rep := &domain.GeneratedReport{
		LoanID:      run.LoanID,
		FileName:    artifact.FileName,
		FileSize:    artifact.FileSize,
		URL:         artifact.URL,
		GeneratedAt: s.Clock.Now(),
	}
	if err := s.Reports.Save(ctx, rep); err != nil {
		s.fail(ctx, run, started, fmt.Errorf("recording report: %w", err))
		return
	}

	// Persisted -> Completed
	s.advance(ctx, run, domain.StatePersisted, "Persisting final record")
	now := s.Clock.Now()
	run.CompletedAt = &now
	run.ProcessingMS = now.Sub(started).Milliseconds()
	run.State = domain.StateCompleted
	if err := s.Repo.Save(ctx, run); err != nil {
		log.Printf("persisting completed run %s: %v", run.ID, err)
	}
	s.emit(run, fmt.Sprintf("Analysis complete: %s (score %.1f)", run.Decision, run.RiskScore))
	if s.Metrics != nil {
		s.Metrics.AnalysisFinished(false)
	}
}

func (s *Service) renderWithRetry(ctx context.Context, run *domain.Run) (domain.ReportArtifact, error) {
	var lastErr error
	for attempt := 1; attempt <= s.ReportAttempts; attempt++ {
		artifact, err := s.Renderer.Render(ctx, run)
		if err == nil {
			return artifact, nil
		}
		lastErr = err
		log.Printf("report render failed analysis=%s attempt=%d err=%v", run.ID, attempt, err)
		if attempt < s.ReportAttempts {
			time.Sleep(s.ReportBackoff)
		}
	}
	return domain.ReportArtifact{}, fmt.Errorf("after %d attempts: %w", s.ReportAttempts, lastErr)
}

// advance moves the run to the next stage, persists it and publishes the
// transition.
func (s *Service) advance(ctx context.Context, run *domain.Run, state domain.State, msg string) {
	run.State = state
	if err := s.Repo.Save(ctx, run); err != nil {
		log.Printf("persisting run %s state=%s: %v", run.ID, state, err)
	}
	s.emit(run, msg)
}

// fail marks the run Failed, retaining whatever partial result was computed
// before the failure.
func (s *Service) fail(ctx context.Context, run *domain.Run, started time.Time, cause error) {
	now := s.Clock.Now()
	run.State = domain.StateFailed
	run.Error = cause.Error()
	run.CompletedAt = &now
	run.ProcessingMS = now.Sub(started).Milliseconds()
	if err := s.Repo.Save(ctx, run); err != nil {
		log.Printf("persisting failed run %s: %v", run.ID, err)
	}
	s.emit(run, "Analysis failed: "+cause.Error())
	if s.Metrics != nil {
		s.Metrics.AnalysisFinished(true)
	}
	log.Printf("analysis failed id=%s loan=%s err=%v", run.ID, run.LoanID, cause)
}

func (s *Service) emit(run *domain.Run, msg string) {
	s.hub.publish(domain.ProgressEvent{
		AnalysisID: run.ID,
		Stage:      run.State,
		Message:    msg,
		Percent:    run.State.Percent(),
		At:         s.Clock.Now(),
	})
}

// Subscribe attaches a progress listener for one analysis. Tearing the
// listener down never cancels the run.
func (s *Service) Subscribe(id domain.AnalysisID) (<-chan domain.ProgressEvent, func()) {
	return s.hub.subscribe(id)
}

// Get fetches one run by analysis id.
func (s *Service) Get(ctx context.Context, id domain.AnalysisID) (*domain.Run, error) {
	return s.Repo.Get(ctx, id)
}

// Latest returns the most recent completed run for a loan.
func (s *Service) Latest(ctx context.Context, loanID string) (*domain.Run, error) {
	return s.Repo.LatestCompleted(ctx, loanID)
}

// List returns runs matching the filter, newest first.
func (s *Service) List(ctx context.Context, f domain.Filter) (domain.PaginatedResult, error) {
	return s.Repo.List(ctx, f)
}

// LatestReport returns the newest generated report for a loan.
func (s *Service) LatestReport(ctx context.Context, loanID string) (*domain.GeneratedReport, error) {
	return s.Reports.LatestByLoan(ctx, loanID)
}

// ListReports returns the most recent generated reports.
func (s *Service) ListReports(ctx context.Context, limit int) ([]*domain.GeneratedReport, error) {
	return s.Reports.List(ctx, limit)
}

// Count returns the total number of runs.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.Repo.Count(ctx)
}

// ReportCount returns the total number of generated reports.
func (s *Service) ReportCount(ctx context.Context) (int64, error) {
	return s.Reports.Count(ctx)
}

// maxFeedbackInsights bounds how many prior reviews reach the prompt.
const maxFeedbackInsights = 5

// feedbackInsights formats earlier human reviews of the loan into prompt
// lines, newest last.
func feedbackInsights(rows []*domfeedback.Feedback) []string {
	if len(rows) > maxFeedbackInsights {
		rows = rows[len(rows)-maxFeedbackInsights:]
	}
	lines := make([]string, 0, len(rows))
	for _, f := range rows {
		line := fmt.Sprintf("%s: agent recommended %s, analyst decided %s (rating %d/5)",
			f.CreatedAt.Format("2006-01-02"), f.AgentRecommendation, f.HumanDecision, f.Rating)
		if strings.TrimSpace(f.Comments) != "" {
			line += ": " + f.Comments
		}
		lines = append(lines, line)
	}
	return lines
}

func loanKey(cmd SubmitCommand) string {
	if strings.TrimSpace(cmd.LoanID) != "" {
		return cmd.LoanID
	}
	return "ext:" + cmd.ExternalID
}
