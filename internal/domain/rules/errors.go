package rules

import "errors"

// ErrInvalidRuleSet indicates a replace was rejected; nothing was persisted.
var ErrInvalidRuleSet = errors.New("invalid rule set")
