package middleware

import (
	"fmt"
	"strings"
	"time"
)

// Input validation and sanitization utilities

// ValidateDecision checks a decision filter against the closed set.
func ValidateDecision(decision string) error {
	if decision == "" {
		return nil // optional filter
	}
	allowed := map[string]bool{
		"approve": true,
		"deny":    true,
		"review":  true,
	}
	if !allowed[strings.ToLower(decision)] {
		return fmt.Errorf("invalid decision: %s (allowed: approve, deny, review)", decision)
	}
	return nil
}

// ValidateRating checks the 1-5 feedback scale.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("invalid rating: %d (allowed: 1-5)", rating)
	}
	return nil
}

// ParseDateRange parses optional from/to query values (YYYY-MM-DD or RFC3339)
// and rejects inverted ranges.
func ParseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		if from, err = parseDate(fromStr); err != nil {
			return from, to, fmt.Errorf("invalid from date: %w", err)
		}
	}
	if toStr != "" {
		if to, err = parseDate(toStr); err != nil {
			return from, to, fmt.Errorf("invalid to date: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return from, to, fmt.Errorf("date range is inverted")
	}
	return from, to, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
