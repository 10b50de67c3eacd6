package rules

import (
	"context"
	"fmt"
	"sync/atomic"

	domain "github.com/microloan-ai/risk-api/internal/domain/rules"
)

// Service implements the rule-store use cases. The current rule set lives in
// an immutable snapshot behind an atomic pointer: every Evaluate reads either
// the fully-old or fully-new set, never a mix. Writes go through the
// repository first, then swap the snapshot.
//
// Service is safe for concurrent use.
type Service struct {
	Repo domain.Repository

	current atomic.Pointer[domain.RuleSet]
	version atomic.Int64
}

func NewService(repo domain.Repository) *Service {
	s := &Service{Repo: repo}
	s.current.Store(domain.NewRuleSet(0, domain.DefaultRules()))
	return s
}

// Load pulls the persisted rule set into the snapshot. An empty store keeps
// the compiled-in defaults.
func (s *Service) Load(ctx context.Context) error {
	rr, err := s.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	if len(rr) == 0 {
		return nil
	}
	s.current.Store(domain.NewRuleSet(s.version.Add(1), rr))
	return nil
}

// Snapshot returns the current immutable rule set.
func (s *Service) Snapshot() *domain.RuleSet {
	return s.current.Load()
}

// List returns the current rules in order; the compiled-in defaults when the
// store has never been written.
func (s *Service) List(ctx context.Context) ([]domain.Rule, error) {
	return s.Snapshot().Rules, nil
}

// Replace validates and atomically installs a full new rule set. There is no
// partial update: editing one rule means re-submitting the whole set.
func (s *Service) Replace(ctx context.Context, rr []domain.Rule) error {
	if err := domain.Validate(rr); err != nil {
		return err
	}
	if err := s.Repo.ReplaceAll(ctx, rr); err != nil {
		return fmt.Errorf("persisting rules: %w", err)
	}
	s.current.Store(domain.NewRuleSet(s.version.Add(1), rr))
	return nil
}

// Reset restores the compiled-in default set. Always succeeds against a
// healthy repository.
func (s *Service) Reset(ctx context.Context) error {
	defaults := domain.DefaultRules()
	if err := s.Repo.ReplaceAll(ctx, defaults); err != nil {
		return fmt.Errorf("persisting default rules: %w", err)
	}
	s.current.Store(domain.NewRuleSet(s.version.Add(1), defaults))
	return nil
}
