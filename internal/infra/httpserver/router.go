package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/microloan-ai/risk-api/internal/application/analysis"
	appfeedback "github.com/microloan-ai/risk-api/internal/application/feedback"
	apprules "github.com/microloan-ai/risk-api/internal/application/rules"
	domain "github.com/microloan-ai/risk-api/internal/domain/analysis"
	"github.com/microloan-ai/risk-api/internal/domain/loans"
	domrules "github.com/microloan-ai/risk-api/internal/domain/rules"
	"github.com/microloan-ai/risk-api/internal/middleware"
)

type Router struct {
	analysisSvc *appanalysis.Service
	rulesSvc    *apprules.Service
	feedbackSvc *appfeedback.Service
}

func NewRouter(analysisSvc *appanalysis.Service, rulesSvc *apprules.Service, feedbackSvc *appfeedback.Service, healthCheckers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{analysisSvc: analysisSvc, rulesSvc: rulesSvc, feedbackSvc: feedbackSvc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	mux.Get("/health", middleware.HealthHandler(healthCheckers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyses", r.wrap(r.handleSubmit))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/{analysis_id}", r.wrap(r.handleGet))
		rt.Get("/analyses/{analysis_id}/events", r.wrap(r.handleEvents))

		rt.Get("/loans/{loan_id}/analysis", r.wrap(r.handleLatestForLoan))
		rt.Get("/loans/{loan_id}/report", r.wrap(r.handleLoanReport))
		rt.Get("/loans/{loan_id}/feedback", r.wrap(r.handleLoanFeedback))

		rt.Get("/rules", r.wrap(r.handleRulesList))
		rt.Put("/rules", r.wrap(r.handleRulesReplace))
		rt.Post("/rules/reset", r.wrap(r.handleRulesReset))

		rt.Post("/feedback", r.wrap(r.handleFeedback))
		rt.Get("/feedback", r.wrap(r.handleFeedbackList))

		rt.Get("/reports", r.wrap(r.handleReportsList))
		rt.Post("/reconcile", r.wrap(r.handleReconcile))
		rt.Get("/stats", r.wrap(r.handleStats))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domrules.ErrInvalidRuleSet):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrDuplicateInFlight):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, sql.ErrNoRows), errors.Is(err, domain.ErrNotFound), errors.Is(err, loans.ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/analyses
// Body: {"loan_id": "...", "external_id": "...", "notes": "..."}
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		LoanID     string `json:"loan_id"`
		ExternalID string `json:"external_id"`
		Notes      string `json:"notes"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	id, err := r.analysisSvc.Submit(req.Context(), appanalysis.SubmitCommand{
		LoanID:     middleware.SanitizeString(body.LoanID),
		ExternalID: middleware.SanitizeString(body.ExternalID),
		Notes:      middleware.SanitizeString(body.Notes),
	})
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"analysis_id": id,
		"state":       domain.StateQueued,
	})
}

// GET /v1/analyses?decision=&customer=&from=&to=&page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()

	if err := middleware.ValidateDecision(q.Get("decision")); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	from, to, err := middleware.ParseDateRange(q.Get("from"), q.Get("to"))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	list, err := r.analysisSvc.List(req.Context(), domain.Filter{
		Decision:     domain.Decision(q.Get("decision")),
		CustomerName: middleware.SanitizeString(q.Get("customer")),
		From:         from,
		To:           to,
		Page:         middleware.ValidatePage(page),
		PageSize:     middleware.ValidateLimit(size),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/analyses/{analysis_id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "analysis_id")
	run, err := r.analysisSvc.Get(req.Context(), domain.AnalysisID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, run)
}

// GET /v1/analyses/{analysis_id}/events
// Streams progress as server-sent events until the run reaches a terminal
// state. For an already-terminal run, replays the last event and ends.
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) error {
	id := domain.AnalysisID(chi.URLParam(req, "analysis_id"))
	run, err := r.analysisSvc.Get(req.Context(), id)
	if err != nil {
		return err
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	ch, cancel := r.analysisSvc.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// A run that already finished has no live publisher; replay its final
	// state once and end the stream.
	if run.State.Terminal() {
		at := run.CreatedAt
		if run.CompletedAt != nil {
			at = *run.CompletedAt
		}
		payload, _ := json.Marshal(domain.ProgressEvent{
			AnalysisID: run.ID,
			Stage:      run.State,
			Message:    "Analysis already finished",
			Percent:    run.State.Percent(),
			At:         at,
		})
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		return nil
	}

	for {
		select {
		case <-req.Context().Done():
			return nil
		case ev, open := <-ch:
			if !open {
				return nil
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				return nil
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			if ev.Stage.Terminal() {
				return nil
			}
		}
	}
}

// GET /v1/loans/{loan_id}/analysis
func (r *Router) handleLatestForLoan(w http.ResponseWriter, req *http.Request) error {
	loanID := chi.URLParam(req, "loan_id")
	run, err := r.analysisSvc.Latest(req.Context(), loanID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, run)
}

// GET /v1/loans/{loan_id}/report
func (r *Router) handleLoanReport(w http.ResponseWriter, req *http.Request) error {
	loanID := chi.URLParam(req, "loan_id")
	rep, err := r.analysisSvc.LatestReport(req.Context(), loanID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rep)
}

// GET /v1/loans/{loan_id}/feedback
func (r *Router) handleLoanFeedback(w http.ResponseWriter, req *http.Request) error {
	loanID := chi.URLParam(req, "loan_id")
	list, err := r.feedbackSvc.ListByLoan(req.Context(), loanID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/rules
func (r *Router) handleRulesList(w http.ResponseWriter, req *http.Request) error {
	set := r.rulesSvc.Snapshot()
	return writeJSON(w, http.StatusOK, set)
}

// PUT /v1/rules
// Body: {"rules": [{"category": "...", "item": "...", "weight": 5}]}
// Whole-set replacement; there is no per-rule patch.
func (r *Router) handleRulesReplace(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Rules []domrules.Rule `json:"rules"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domrules.ErrInvalidRuleSet, err)
	}
	if err := r.rulesSvc.Replace(req.Context(), body.Rules); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.rulesSvc.Snapshot())
}

// POST /v1/rules/reset
func (r *Router) handleRulesReset(w http.ResponseWriter, req *http.Request) error {
	if err := r.rulesSvc.Reset(req.Context()); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, r.rulesSvc.Snapshot())
}

// POST /v1/feedback
func (r *Router) handleFeedback(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		LoanID              string `json:"loan_id"`
		AgentRecommendation string `json:"agent_recommendation"`
		HumanDecision       string `json:"human_decision"`
		Rating              int    `json:"rating"`
		Comments            string `json:"comments"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := middleware.ValidateRating(body.Rating); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	fb, err := r.feedbackSvc.Record(req.Context(), appfeedback.RecordCommand{
		LoanID:              middleware.SanitizeString(body.LoanID),
		AnalystID:           middleware.GetAnalystFromContext(req.Context()),
		AgentRecommendation: body.AgentRecommendation,
		HumanDecision:       body.HumanDecision,
		Rating:              body.Rating,
		Comments:            middleware.SanitizeString(body.Comments),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, fb)
}

// GET /v1/feedback?limit=
func (r *Router) handleFeedbackList(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.feedbackSvc.List(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/reports?limit=
func (r *Router) handleReportsList(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.analysisSvc.ListReports(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// POST /v1/reconcile
// Body: {"reports": [...], "feedback": [...]}
func (r *Router) handleReconcile(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Reports  []appfeedback.ImportedReport   `json:"reports"`
		Feedback []appfeedback.ImportedFeedback `json:"feedback"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	res, err := r.feedbackSvc.Reconcile(req.Context(), body.Reports, body.Feedback)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	ctx := req.Context()
	runs, err := r.analysisSvc.Count(ctx)
	if err != nil {
		return err
	}
	reports, err := r.analysisSvc.ReportCount(ctx)
	if err != nil {
		return err
	}
	fbs, err := r.feedbackSvc.Count(ctx)
	if err != nil {
		return err
	}
	set := r.rulesSvc.Snapshot()

	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_analyses": runs,
		"total_reports":  reports,
		"total_feedback": fbs,
		"rule_count":     len(set.Rules),
		"rule_version":   set.Version,
	})
}
