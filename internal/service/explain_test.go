package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Strob0t/OnboardForge/internal/config"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/resilience"
	"github.com/Strob0t/OnboardForge/internal/service"
)

func explainInput() (decision.Decision, decision.Input) {
	d := decision.Decision{
		Outcome:     decision.OutcomeHumanReview,
		RiskFactors: []string{"PEP identified", "Scores in manual review threshold range"},
	}
	in := decision.Input{CreditScore: 75, ComplianceScore: 70}
	return d, in
}

func TestExplainPrompt(t *testing.T) {
	d, in := explainInput()
	got := service.ExplainPrompt(d, in)
	assert.Equal(t,
		"Final decision analysis: HUMAN_REVIEW. Credit: 75, Compliance: 70, Risk factors: PEP identified; Scores in manual review threshold range. Justify the decision in 2 to 3 lines only.",
		got)

	d.RiskFactors = nil
	assert.Contains(t, service.ExplainPrompt(d, in), "Risk factors: none.")
}

func TestExplainReturnsGeneratedText(t *testing.T) {
	var prompt string
	gen := explainerFunc(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "Review is needed because the owner is a PEP.", nil
	})
	s := service.NewExplainService(gen, nil, explainCfg())

	d, in := explainInput()
	text, fallback := s.Explain(context.Background(), "APP-1", d, in)
	assert.Equal(t, "Review is needed because the owner is a PEP.", text)
	assert.False(t, fallback)
	assert.Contains(t, prompt, "HUMAN_REVIEW")
}

func TestExplainFallbacks(t *testing.T) {
	d, in := explainInput()

	tests := []struct {
		name string
		gen  explainerFunc
		cfg  func(c *config.Explainer)
	}{
		{
			name: "error",
			gen:  func(context.Context, string) (string, error) { return "", errors.New("boom") },
		},
		{
			name: "blank",
			gen:  func(context.Context, string) (string, error) { return "  ", nil },
		},
		{
			name: "timeout",
			gen: func(ctx context.Context, _ string) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			cfg: func(c *config.Explainer) { c.Timeout = 20 * time.Millisecond },
		},
		{
			name: "disabled",
			gen:  func(context.Context, string) (string, error) { return "unused", nil },
			cfg:  func(c *config.Explainer) { c.Enabled = false },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := explainCfg()
			if tt.cfg != nil {
				tt.cfg(&cfg)
			}
			s := service.NewExplainService(tt.gen, nil, cfg)
			text, fallback := s.Explain(context.Background(), "APP-1", d, in)
			assert.Equal(t, fallbackText, text)
			assert.True(t, fallback)
		})
	}
}

func TestExplainNilGenerator(t *testing.T) {
	s := service.NewExplainService(nil, nil, explainCfg())
	d, in := explainInput()
	text, fallback := s.Explain(context.Background(), "APP-1", d, in)
	assert.Equal(t, fallbackText, text)
	assert.True(t, fallback)
}

func TestExplainOpenBreakerSkipsCalls(t *testing.T) {
	var calls atomic.Int32
	gen := explainerFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", errors.New("down")
	})
	s := service.NewExplainService(gen, resilience.NewBreaker(2, time.Hour), explainCfg())
	d, in := explainInput()

	for range 5 {
		_, fallback := s.Explain(context.Background(), "APP-1", d, in)
		assert.True(t, fallback)
	}
	assert.Equal(t, int32(2), calls.Load())
}
