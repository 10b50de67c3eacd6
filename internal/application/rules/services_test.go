package rules

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/microloan-ai/risk-api/internal/domain/rules"
)

type memRepo struct {
	mu    sync.Mutex
	rules []domain.Rule
}

func (m *memRepo) List(ctx context.Context) ([]domain.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Rule(nil), m.rules...), nil
}

func (m *memRepo) ReplaceAll(ctx context.Context, rr []domain.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append([]domain.Rule(nil), rr...)
	return nil
}

func TestNewServiceStartsWithDefaults(t *testing.T) {
	svc := NewService(&memRepo{})
	set := svc.Snapshot()
	assert.NotEmpty(t, set.Rules)
	assert.Equal(t, int64(0), set.Version)
}

func TestLoadEmptyStoreKeepsDefaults(t *testing.T) {
	svc := NewService(&memRepo{})
	require.NoError(t, svc.Load(context.Background()))
	assert.Equal(t, len(domain.DefaultRules()), len(svc.Snapshot().Rules))
}

func TestLoadStoredRules(t *testing.T) {
	repo := &memRepo{rules: []domain.Rule{{Category: "Genre", Item: "masculin", Weight: 2}}}
	svc := NewService(repo)
	require.NoError(t, svc.Load(context.Background()))

	set := svc.Snapshot()
	require.Len(t, set.Rules, 1)
	assert.Equal(t, "masculin", set.Rules[0].Item)
}

func TestReplaceSwapsSnapshot(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo)
	before := svc.Snapshot()

	next := []domain.Rule{
		{Category: "Debt", Item: "DTI>50", Weight: 20},
		{Category: "Credit", Item: "Score<600", Weight: 15},
	}
	require.NoError(t, svc.Replace(context.Background(), next))

	after := svc.Snapshot()
	assert.Greater(t, after.Version, before.Version)
	assert.Len(t, after.Rules, 2)
	assert.Len(t, repo.rules, 2)
}

func TestReplaceRejectsInvalidSet(t *testing.T) {
	svc := NewService(&memRepo{})
	before := svc.Snapshot()

	err := svc.Replace(context.Background(), []domain.Rule{
		{Category: "Genre", Item: "masculin", Weight: 1},
		{Category: "genre", Item: "MASCULIN", Weight: 2},
	})
	require.ErrorIs(t, err, domain.ErrInvalidRuleSet)

	// rejected replace leaves the snapshot untouched
	assert.Same(t, before, svc.Snapshot())
}

func TestReplaceRejectsEmptySet(t *testing.T) {
	svc := NewService(&memRepo{})
	assert.ErrorIs(t, svc.Replace(context.Background(), nil), domain.ErrInvalidRuleSet)
}

func TestResetRestoresDefaults(t *testing.T) {
	svc := NewService(&memRepo{})
	require.NoError(t, svc.Replace(context.Background(), []domain.Rule{
		{Category: "Debt", Item: "DTI>50", Weight: 20},
	}))
	require.NoError(t, svc.Reset(context.Background()))
	assert.Equal(t, len(domain.DefaultRules()), len(svc.Snapshot().Rules))
}

// Snapshot readers must never observe a mix of old and new rules while a
// replace is in flight.
func TestSnapshotStableUnderConcurrentReplace(t *testing.T) {
	svc := NewService(&memRepo{})

	setA := []domain.Rule{
		{Category: "a", Item: "x", Weight: 1},
		{Category: "a", Item: "y", Weight: 1},
	}
	setB := []domain.Rule{
		{Category: "b", Item: "x", Weight: 2},
		{Category: "b", Item: "y", Weight: 2},
		{Category: "b", Item: "z", Weight: 2},
	}
	require.NoError(t, svc.Replace(context.Background(), setA))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				_ = svc.Replace(context.Background(), setB)
			} else {
				_ = svc.Replace(context.Background(), setA)
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		set := svc.Snapshot()
		switch len(set.Rules) {
		case 2:
			assert.Equal(t, "a", set.Rules[0].Category)
		case 3:
			assert.Equal(t, "b", set.Rules[0].Category)
		default:
			t.Fatalf("torn snapshot: %d rules", len(set.Rules))
		}
	}
}
