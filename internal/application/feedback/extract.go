package feedback

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	loanIDFromFileRe = regexp.MustCompile(`loan_assessment_([^_]+)_`)
	customerNameRe   = regexp.MustCompile(`(?m)^Customer:\s*(.+)$`)
	riskScoreRe      = regexp.MustCompile(`TOTAL RISK SCORE:\s*(\d+(?:\.\d+)?)`)
	recommendationRe = regexp.MustCompile(`RECOMMENDATION:\s*(\w+)`)
	summaryRe        = regexp.MustCompile(`(?s)Summary:\s*(.*?)(?:\n\s*\n|Key Findings:|RECOMMENDATION:|$)`)
	findingsRe       = regexp.MustCompile(`(?s)Key Findings:\s*(.*?)(?:\n\s*\n|Recommended Conditions:|TOTAL RISK SCORE:|$)`)
	conditionsRe     = regexp.MustCompile(`(?s)Recommended Conditions:\s*(.*?)(?:\n\s*\n|TOTAL RISK SCORE:|$)`)
)

// ExtractReport recovers the structured fields from a generated report's
// plain-text body. Fields that cannot be located are left zero; the loan id
// is taken from the file name when the body does not carry one.
func ExtractReport(fileName, text string, generatedAt time.Time) ImportedReport {
	rep := ImportedReport{
		FileName:    fileName,
		FileSize:    int64(len(text)),
		GeneratedAt: generatedAt,
	}

	if m := loanIDFromFileRe.FindStringSubmatch(fileName); m != nil {
		rep.LoanID = m[1]
	}
	if m := customerNameRe.FindStringSubmatch(text); m != nil {
		rep.CustomerName = strings.TrimSpace(m[1])
	}
	if m := riskScoreRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			rep.RiskScore = v
		}
	}
	if m := recommendationRe.FindStringSubmatch(text); m != nil {
		rep.Decision = strings.ToLower(m[1])
	}
	if m := summaryRe.FindStringSubmatch(text); m != nil {
		rep.Summary = strings.TrimSpace(m[1])
	}
	if m := findingsRe.FindStringSubmatch(text); m != nil {
		rep.KeyFindings = splitBullets(m[1])
	}
	if m := conditionsRe.FindStringSubmatch(text); m != nil {
		rep.Conditions = splitBullets(m[1])
	}
	return rep
}

func splitBullets(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		if line != "" && !strings.EqualFold(line, "none") {
			out = append(out, line)
		}
	}
	return out
}
