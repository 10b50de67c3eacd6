package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microloan-ai/risk-api/internal/domain/loans"
	"github.com/microloan-ai/risk-api/internal/domain/rules"
)

func testSet(rr ...rules.Rule) *rules.RuleSet {
	return rules.NewRuleSet(1, rr)
}

func TestEvaluateThresholdRules(t *testing.T) {
	e := &Engine{RawMin: 0, RawMax: 100}
	facts := &loans.LoanFacts{
		LoanID: "L-1",
		Metrics: map[string]float64{
			"DTI":   55,
			"Score": 580,
		},
	}
	set := testSet(
		rules.Rule{Category: "Debt", Item: "DTI>50%", Weight: 20},
		rules.Rule{Category: "Credit", Item: "Score<600", Weight: 15},
		rules.Rule{Category: "Credit", Item: "Score<500", Weight: 40},
	)

	res, err := e.Evaluate(facts, set)
	require.NoError(t, err)
	assert.Equal(t, 35.0, res.RawScore)
	assert.Equal(t, 35.0, res.Score)
	assert.Len(t, res.Triggered, 2)
}

func TestEvaluateSubstringRules(t *testing.T) {
	e := &Engine{}
	facts := &loans.LoanFacts{
		LoanID: "L-2",
		Attributes: map[string]string{
			"Situation familiale": "Célibataire",
			"Région":              "Agence Tunis Centre",
		},
	}
	set := testSet(
		rules.Rule{Category: "Situation familiale", Item: "célibataire", Weight: 3},
		rules.Rule{Category: "Région", Item: "tunis", Weight: 2},
		rules.Rule{Category: "Région", Item: "sfax", Weight: 9},
		rules.Rule{Category: "Genre", Item: "féminin", Weight: 1},
	)

	res, err := e.Evaluate(facts, set)
	require.NoError(t, err)
	assert.Equal(t, 5.0, res.RawScore)
	assert.Len(t, res.Triggered, 2)
}

func TestEvaluateZeroWeightStillListed(t *testing.T) {
	e := &Engine{}
	facts := &loans.LoanFacts{
		Attributes: map[string]string{"Genre": "masculin"},
	}
	set := testSet(rules.Rule{Category: "Genre", Item: "masculin", Weight: 0})

	res, err := e.Evaluate(facts, set)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.RawScore)
	require.Len(t, res.Triggered, 1)
	assert.Equal(t, 0.0, res.Triggered[0].Contribution)
}

func TestEvaluateMetricNameCaseInsensitive(t *testing.T) {
	e := &Engine{}
	facts := &loans.LoanFacts{Metrics: map[string]float64{"dti": 60}}
	set := testSet(rules.Rule{Category: "Debt", Item: "DTI>50", Weight: 10})

	res, err := e.Evaluate(facts, set)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.RawScore)
}

func TestEvaluateMissingMetricDoesNotFire(t *testing.T) {
	e := &Engine{}
	facts := &loans.LoanFacts{Attributes: map[string]string{}}
	set := testSet(rules.Rule{Category: "Debt", Item: "DTI>50", Weight: 10})

	res, err := e.Evaluate(facts, set)
	require.NoError(t, err)
	assert.Empty(t, res.Triggered)
	assert.Equal(t, 0.0, res.Score)
}

func TestEvaluateErrors(t *testing.T) {
	e := &Engine{}

	_, err := e.Evaluate(nil, testSet(rules.Rule{Category: "a", Item: "b", Weight: 1}))
	assert.Error(t, err)

	_, err = e.Evaluate(&loans.LoanFacts{}, rules.NewRuleSet(1, nil))
	assert.Error(t, err)
}

func TestNormalizeClampsAndScales(t *testing.T) {
	e := &Engine{RawMin: 0, RawMax: 50}

	assert.Equal(t, 0.0, e.normalize(-10))
	assert.Equal(t, 50.0, e.normalize(25))
	assert.Equal(t, 100.0, e.normalize(50))
	assert.Equal(t, 100.0, e.normalize(200))

	// degenerate bounds fall back to 0..100
	bad := &Engine{RawMin: 10, RawMax: 10}
	assert.Equal(t, 35.0, bad.normalize(35))
}

func TestNormalizeMonotonic(t *testing.T) {
	e := &Engine{RawMin: 0, RawMax: 80}
	prev := -1.0
	for raw := 0.0; raw <= 120; raw += 5 {
		got := e.normalize(raw)
		assert.GreaterOrEqual(t, got, prev, "normalize(%v)", raw)
		prev = got
	}
}
