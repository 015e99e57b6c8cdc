package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "onboardforge"

// StartPipelineSpan starts a span for one assessment pipeline run.
func StartPipelineSpan(ctx context.Context, caseID, industry string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "pipeline",
		trace.WithAttributes(
			attribute.String("case.id", caseID),
			attribute.String("application.industry", industry),
		),
	)
}

// StartStageSpan starts a span for a scoring stage within a pipeline.
func StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "stage."+stage,
		trace.WithAttributes(attribute.String("stage", stage)),
	)
}

// StartExplainSpan starts a span for the advisory explanation call.
func StartExplainSpan(ctx context.Context, caseID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "explain",
		trace.WithAttributes(attribute.String("case.id", caseID)),
	)
}

// StartReviewSpan starts a span for a reviewer override.
func StartReviewSpan(ctx context.Context, caseID, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "review.resolve",
		trace.WithAttributes(
			attribute.String("case.id", caseID),
			attribute.String("review.action", action),
		),
	)
}
