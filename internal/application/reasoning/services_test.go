package reasoning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/microloan-ai/risk-api/internal/application/scoring"
	"github.com/microloan-ai/risk-api/internal/domain/analysis"
	"github.com/microloan-ai/risk-api/internal/domain/loans"
)

type fakeClient struct {
	calls   int
	replies []func(ctx context.Context) (string, error)
}

func (f *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	fn := f.replies[f.calls]
	if f.calls < len(f.replies)-1 {
		f.calls++
	}
	return fn(ctx)
}

func ok(text string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return text, nil }
}

func fail(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func slow() func(context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
}

func testFacts() *loans.LoanFacts {
	return &loans.LoanFacts{LoanID: "L-1", CustomerName: "Test Customer"}
}

func TestAnalyzeSuccess(t *testing.T) {
	svc := &Service{
		Client: &fakeClient{replies: []func(context.Context) (string, error){
			ok(`{"summary": "fine", "recommendation": "approve"}`),
		}},
	}

	res := svc.Analyze(context.Background(), testFacts(), scoring.Result{})
	assert.Equal(t, "fine", res.Summary)
	assert.Equal(t, analysis.DecisionApprove, res.Recommendation)
	assert.False(t, res.Degraded)
}

func TestAnalyzeRetriesOnce(t *testing.T) {
	client := &fakeClient{replies: []func(context.Context) (string, error){
		fail(errors.New("connection refused")),
		ok(`{"summary": "recovered", "recommendation": "review"}`),
	}}
	svc := &Service{Client: client, Retries: 1, Backoff: time.Millisecond}

	res := svc.Analyze(context.Background(), testFacts(), scoring.Result{})
	assert.Equal(t, "recovered", res.Summary)
	assert.False(t, res.Degraded)
}

func TestAnalyzeDegradesAfterExhaustion(t *testing.T) {
	client := &fakeClient{replies: []func(context.Context) (string, error){
		fail(errors.New("connection refused")),
	}}
	svc := &Service{Client: client, Retries: 1, Backoff: time.Millisecond}

	res := svc.Analyze(context.Background(), testFacts(), scoring.Result{})
	assert.True(t, res.Degraded)
	assert.True(t, res.LowConfidenceParse)
	assert.Equal(t, analysis.DecisionReview, res.Recommendation)
	assert.NotEmpty(t, res.Summary)
}

func TestAnalyzeTimeoutDegrades(t *testing.T) {
	svc := &Service{
		Client:  &fakeClient{replies: []func(context.Context) (string, error){slow()}},
		Timeout: 10 * time.Millisecond,
		Backoff: time.Millisecond,
	}

	start := time.Now()
	res := svc.Analyze(context.Background(), testFacts(), scoring.Result{})
	assert.True(t, res.Degraded)
	assert.Equal(t, analysis.DecisionReview, res.Recommendation)
	assert.Less(t, time.Since(start), time.Second)
}
