package rules

import (
	"fmt"
	"math"
	"strings"
)

// Rule is one weighted scoring rule. A rule belongs to a category (the fact it
// inspects) and carries the weight added to the raw score when it triggers.
type Rule struct {
	Category string  `json:"category"`
	Item     string  `json:"item"`
	Weight   float64 `json:"weight"`
}

// Key identifies a rule inside a set.
func (r Rule) Key() string {
	return strings.ToLower(strings.TrimSpace(r.Category)) + "|" + strings.ToLower(strings.TrimSpace(r.Item))
}

// RuleSet is an immutable snapshot of the full rule table. Mutation happens
// only by swapping in a whole new snapshot.
type RuleSet struct {
	Version int64  `json:"version"`
	Rules   []Rule `json:"rules"`

	byCategory map[string][]Rule
}

// NewRuleSet builds a snapshot and its category index.
func NewRuleSet(version int64, rr []Rule) *RuleSet {
	set := &RuleSet{Version: version, Rules: rr, byCategory: make(map[string][]Rule)}
	for _, r := range rr {
		key := strings.ToLower(strings.TrimSpace(r.Category))
		set.byCategory[key] = append(set.byCategory[key], r)
	}
	return set
}

// Category returns the rules of one category, in set order.
func (s *RuleSet) Category(name string) []Rule {
	return s.byCategory[strings.ToLower(strings.TrimSpace(name))]
}

// Validate checks the invariants required before a replace: finite weights and
// no duplicate (category, item) pair.
func Validate(rr []Rule) error {
	if len(rr) == 0 {
		return fmt.Errorf("%w: empty rule set", ErrInvalidRuleSet)
	}
	seen := make(map[string]bool, len(rr))
	for i, r := range rr {
		if strings.TrimSpace(r.Category) == "" || strings.TrimSpace(r.Item) == "" {
			return fmt.Errorf("%w: rule %d has empty category or item", ErrInvalidRuleSet, i)
		}
		if math.IsNaN(r.Weight) || math.IsInf(r.Weight, 0) {
			return fmt.Errorf("%w: rule %q has non-numeric weight", ErrInvalidRuleSet, r.Item)
		}
		k := r.Key()
		if seen[k] {
			return fmt.Errorf("%w: duplicate rule (%s, %s)", ErrInvalidRuleSet, r.Category, r.Item)
		}
		seen[k] = true
	}
	return nil
}
