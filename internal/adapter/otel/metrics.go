package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "onboardforge"

// Metrics holds all onboarding metric instruments.
type Metrics struct {
	ApplicationsSubmitted metric.Int64Counter
	Decisions             metric.Int64Counter
	ReviewsResolved       metric.Int64Counter
	ExplanationFallbacks  metric.Int64Counter
	StageDuration         metric.Float64Histogram
	PipelineDuration      metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.ApplicationsSubmitted, err = meter.Int64Counter("onboardforge.applications.submitted",
		metric.WithDescription("Number of applications submitted"))
	if err != nil {
		return nil, err
	}

	m.Decisions, err = meter.Int64Counter("onboardforge.decisions",
		metric.WithDescription("Automated decisions by outcome and rule"))
	if err != nil {
		return nil, err
	}

	m.ReviewsResolved, err = meter.Int64Counter("onboardforge.reviews.resolved",
		metric.WithDescription("Reviewer overrides by action"))
	if err != nil {
		return nil, err
	}

	m.ExplanationFallbacks, err = meter.Int64Counter("onboardforge.explanations.fallback",
		metric.WithDescription("Explanations replaced by the fallback text"))
	if err != nil {
		return nil, err
	}

	m.StageDuration, err = meter.Float64Histogram("onboardforge.stage.duration_seconds",
		metric.WithDescription("Scoring stage duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	m.PipelineDuration, err = meter.Float64Histogram("onboardforge.pipeline.duration_seconds",
		metric.WithDescription("Full assessment pipeline duration in seconds"), metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordDecision counts one automated decision. A nil receiver is a no-op.
func (m *Metrics) RecordDecision(ctx context.Context, outcome, rule string) {
	if m == nil {
		return
	}
	m.Decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision.outcome", outcome),
		attribute.String("decision.rule", rule),
	))
}

// RecordStage records a stage's duration. A nil receiver is a no-op.
func (m *Metrics) RecordStage(ctx context.Context, stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("stage", stage)))
}
