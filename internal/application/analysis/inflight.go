package analysis

import (
	"sync"

	domain "github.com/microloan-ai/risk-api/internal/domain/analysis"
)

// registry enforces the one-in-flight-run-per-loan invariant with an atomic
// check-and-insert, not optimistic retry.
type registry struct {
	mu     sync.Mutex
	byLoan map[string]domain.AnalysisID
}

func newRegistry() *registry {
	return &registry{byLoan: make(map[string]domain.AnalysisID)}
}

// tryAcquire claims the loan key for a run. Returns false when another
// non-terminal run already holds it.
func (r *registry) tryAcquire(key string, id domain.AnalysisID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.byLoan[key]; busy {
		return false
	}
	r.byLoan[key] = id
	return true
}

func (r *registry) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byLoan, key)
}
