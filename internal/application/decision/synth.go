package decision

import (
	"math"

	"github.com/microloan-ai/risk-api/internal/application/scoring"
	"github.com/microloan-ai/risk-api/internal/domain/analysis"
	"github.com/microloan-ai/risk-api/internal/domain/reasoning"
)

// Synthesizer merges the numeric score with the qualitative recommendation
// into one final decision. Pure and synchronous.
//
// Band boundaries are policy configuration, on the normalized 0-100 scale:
// score < ApproveBelow is the approve band, score >= DenyAt the deny band,
// anything between is the review band.
type Synthesizer struct {
	ApproveBelow float64
	DenyAt       float64
}

// lowParseCeiling caps confidence whenever the reasoning reply could not be
// parsed cleanly.
const lowParseCeiling = 60.0

// Outcome of a synthesis. Confidence is on a 0-100 scale.
type Outcome struct {
	Decision   analysis.Decision `json:"decision"`
	Confidence float64           `json:"confidence"`
}

// Synthesize applies the tie-break policy:
//  1. score at or above the high-risk threshold: deny, regardless of the
//     reasoning recommendation;
//  2. score band and recommendation agree: adopt it with high confidence;
//  3. disagreement in the middle: review with reduced confidence.
// Disagreement is never silently resolved toward either extreme.
func (s *Synthesizer) Synthesize(sc scoring.Result, rs reasoning.Result) Outcome {
	band := s.band(sc.Score)
	dist := s.boundaryDistance(sc.Score)

	var out Outcome
	switch {
	case sc.Score >= s.DenyAt:
		out = Outcome{Decision: analysis.DecisionDeny, Confidence: math.Min(95, 75+dist)}
	case band == rs.Recommendation:
		out = Outcome{Decision: band, Confidence: math.Min(95, 70+dist)}
	default:
		out = Outcome{Decision: analysis.DecisionReview, Confidence: math.Max(35, 50-dist)}
	}

	if rs.LowConfidenceParse && out.Confidence > lowParseCeiling {
		out.Confidence = lowParseCeiling
	}
	return out
}

func (s *Synthesizer) band(score float64) analysis.Decision {
	switch {
	case score >= s.DenyAt:
		return analysis.DecisionDeny
	case score < s.ApproveBelow:
		return analysis.DecisionApprove
	default:
		return analysis.DecisionReview
	}
}

// boundaryDistance is how far the score sits from the nearest band boundary;
// scores deep inside a band earn more confidence than borderline ones.
func (s *Synthesizer) boundaryDistance(score float64) float64 {
	return math.Min(math.Abs(score-s.ApproveBelow), math.Abs(score-s.DenyAt))
}
