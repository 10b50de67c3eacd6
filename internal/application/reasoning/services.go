package reasoning

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/microloan-ai/risk-api/internal/application/scoring"
	"github.com/microloan-ai/risk-api/internal/domain/analysis"
	"github.com/microloan-ai/risk-api/internal/domain/loans"
	domain "github.com/microloan-ai/risk-api/internal/domain/reasoning"
)

// Service is the reasoning adapter: it builds the prompt, calls the external
// reasoning service with a bounded timeout and at most one retry, and parses
// the reply. The qualitative layer is best-effort: on timeout or transport
// failure Analyze returns a degraded review result instead of an error, so the
// pipeline never fails on reasoning-service unavailability.
type Service struct {
	Client  domain.Client
	Timeout time.Duration // per-call bound
	Retries int           // extra attempts after the first, typically 1
	Backoff time.Duration
}

const (
	defaultTimeout = 45 * time.Second
	defaultBackoff = 2 * time.Second
)

// Analyze runs exactly one reasoning pass for a run; the orchestrator
// guarantees no concurrent call for the same analysis.
func (s *Service) Analyze(ctx context.Context, facts *loans.LoanFacts, sc scoring.Result) domain.Result {
	prompt := BuildPrompt(facts, sc)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backoff := s.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}

	var lastErr error
	for attempt := 0; attempt <= s.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return s.degraded(ctx.Err())
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		text, err := s.Client.Complete(callCtx, prompt)
		cancel()
		if err != nil {
			lastErr = err
			log.Printf("reasoning call failed attempt=%d err=%v", attempt+1, err)
			continue
		}
		return parseReply(text)
	}
	return s.degraded(lastErr)
}

// degraded is the fallback result when the reasoning service could not be
// reached at all.
func (s *Service) degraded(cause error) domain.Result {
	return domain.Result{
		Summary:            fmt.Sprintf("Reasoning service unavailable; decision escalated to manual review (%v)", cause),
		Recommendation:     analysis.DecisionReview,
		Rationale:          []string{"Qualitative analysis could not be performed"},
		LowConfidenceParse: true,
		Degraded:           true,
	}
}
