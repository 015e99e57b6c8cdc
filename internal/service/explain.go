package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	cfotel "github.com/Strob0t/OnboardForge/internal/adapter/otel"
	"github.com/Strob0t/OnboardForge/internal/config"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/port/explainer"
	"github.com/Strob0t/OnboardForge/internal/resilience"
)

var errBlankExplanation = errors.New("blank explanation")

// ExplainService produces the advisory narrative for a decision. It never
// fails: slow, broken or disabled generators yield the configured fallback.
type ExplainService struct {
	gen     explainer.Explainer
	breaker *resilience.Breaker
	cfg     config.Explainer
	metrics *cfotel.Metrics
}

// NewExplainService creates an ExplainService. gen may be nil, in which case
// every call returns the fallback text.
func NewExplainService(gen explainer.Explainer, breaker *resilience.Breaker, cfg config.Explainer) *ExplainService {
	return &ExplainService{gen: gen, breaker: breaker, cfg: cfg}
}

// SetMetrics attaches metric instruments.
func (s *ExplainService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// Explain returns the narrative and whether it is the fallback text.
func (s *ExplainService) Explain(ctx context.Context, caseID string, d decision.Decision, in decision.Input) (text string, fallback bool) {
	if s.gen == nil || !s.cfg.Enabled {
		return s.cfg.Fallback, true
	}

	ctx, span := cfotel.StartExplainSpan(ctx, caseID)
	defer span.End()

	text, err := resilience.Guard(ctx, s.breaker, s.cfg.Timeout, s.cfg.Fallback, func(ctx context.Context) (string, error) {
		return s.gen.Explain(ctx, ExplainPrompt(d, in))
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errBlankExplanation
	}
	if err != nil {
		slog.Warn("explanation unavailable, using fallback", "case_id", caseID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fallback")
		span.SetAttributes(attribute.Bool("explain.fallback", true))
		if s.metrics != nil {
			s.metrics.ExplanationFallbacks.Add(ctx, 1)
		}
		return s.cfg.Fallback, true
	}
	return text, false
}

// ExplainPrompt renders the prompt sent to the text generator.
func ExplainPrompt(d decision.Decision, in decision.Input) string {
	factors := "none"
	if len(d.RiskFactors) > 0 {
		factors = strings.Join(d.RiskFactors, "; ")
	}
	return fmt.Sprintf(
		"Final decision analysis: %s. Credit: %d, Compliance: %d, Risk factors: %s. Justify the decision in 2 to 3 lines only.",
		d.Outcome, in.CreditScore, in.ComplianceScore, factors,
	)
}
