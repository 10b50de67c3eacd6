package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/microloan-ai/risk-api/internal/domain/loans"
	"github.com/microloan-ai/risk-api/internal/domain/rules"
)

// Triggered is one fired rule and what it contributed.
type Triggered struct {
	Rule         rules.Rule `json:"rule"`
	Value        string     `json:"value"`
	Contribution float64    `json:"contribution"`
}

// Result of one evaluation. RawScore is the plain weight sum; Score is the
// normalized value in [0, 100].
type Result struct {
	RawScore  float64     `json:"raw_score"`
	Score     float64     `json:"score"`
	Triggered []Triggered `json:"triggered"`
}

// Engine evaluates loan facts against a rule set. Pure and deterministic: the
// same facts and rules always produce the same result, and Evaluate never
// blocks. Any error it returns indicates a data or rule-set defect, not a
// transient condition.
//
// Normalization bounds come from configuration so scores stay comparable
// across rule-set versions.
type Engine struct {
	RawMin float64
	RawMax float64
}

// thresholdRe matches rule items of the form "DTI>50%" or "Score<600".
var thresholdRe = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 _]*?)\s*(>=|<=|>|<|=)\s*(\d+(?:\.\d+)?)\s*%?\s*$`)

func (e *Engine) Evaluate(facts *loans.LoanFacts, set *rules.RuleSet) (Result, error) {
	if facts == nil {
		return Result{}, fmt.Errorf("scoring: nil facts")
	}
	if set == nil || len(set.Rules) == 0 {
		return Result{}, fmt.Errorf("scoring: empty rule set")
	}

	var res Result
	for _, r := range set.Rules {
		if math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) {
			return Result{}, fmt.Errorf("scoring: rule (%s, %s) has invalid weight", r.Category, r.Item)
		}
		fired, value := e.triggered(facts, r)
		if !fired {
			continue
		}
		// Zero-weight rules still show up in the triggered list for
		// transparency.
		res.Triggered = append(res.Triggered, Triggered{Rule: r, Value: value, Contribution: r.Weight})
		res.RawScore += r.Weight
	}

	res.Score = e.normalize(res.RawScore)
	return res, nil
}

// triggered applies the rule's predicate. Items of the form "<metric><op><n>"
// compare against the facts' numeric metrics; everything else is a
// case-insensitive substring match against the fact value for the rule's
// category.
func (e *Engine) triggered(facts *loans.LoanFacts, r rules.Rule) (bool, string) {
	if m := thresholdRe.FindStringSubmatch(r.Item); m != nil {
		metric, op := m[1], m[2]
		threshold, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return false, ""
		}
		value, ok := metricValue(facts, metric)
		if !ok {
			return false, ""
		}
		return compare(value, op, threshold), strconv.FormatFloat(value, 'f', -1, 64)
	}

	value := facts.Attribute(r.Category)
	if value == "" {
		return false, ""
	}
	if strings.Contains(strings.ToLower(value), strings.ToLower(r.Item)) {
		return true, value
	}
	return false, ""
}

// normalize maps the raw weight sum onto [0, 100] with a monotonic linear
// scale. Out-of-range raw scores are clamped, never rejected.
func (e *Engine) normalize(raw float64) float64 {
	min, max := e.RawMin, e.RawMax
	if max <= min {
		min, max = 0, 100
	}
	scaled := (raw - min) / (max - min) * 100
	if scaled < 0 {
		return 0
	}
	if scaled > 100 {
		return 100
	}
	return scaled
}

func metricValue(facts *loans.LoanFacts, name string) (float64, bool) {
	if facts.Metrics == nil {
		return 0, false
	}
	if v, ok := facts.Metrics[name]; ok {
		return v, true
	}
	// Metric names are matched case-insensitively; facts sources are not
	// consistent about casing.
	lower := strings.ToLower(name)
	for k, v := range facts.Metrics {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	return 0, false
}

func compare(value float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return value > threshold
	case ">=":
		return value >= threshold
	case "<":
		return value < threshold
	case "<=":
		return value <= threshold
	case "=":
		return value == threshold
	}
	return false
}
