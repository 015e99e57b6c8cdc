package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/Strob0t/OnboardForge/internal/adapter/otel"
	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
	"github.com/Strob0t/OnboardForge/internal/domain/communication"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/event"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
	"github.com/Strob0t/OnboardForge/internal/domain/scoring"
	"github.com/Strob0t/OnboardForge/internal/logger"
	"github.com/Strob0t/OnboardForge/internal/port/broadcast"
	"github.com/Strob0t/OnboardForge/internal/port/database"
	"github.com/Strob0t/OnboardForge/internal/port/eventstore"
	"github.com/Strob0t/OnboardForge/internal/port/messagequeue"
)

// OnboardingService accepts applications and runs the assessment pipeline:
// scoring stages, record assembly, the decision cascade, the advisory
// explanation, and the customer message or review packet.
type OnboardingService struct {
	store   database.Store
	engine  *decision.Engine
	explain *ExplainService
	comms   *communication.Generator
	emitter emitter
	metrics *cfotel.Metrics
	now     func() time.Time
	newID   func() string
}

// NewOnboardingService creates an OnboardingService with all dependencies.
// queue, hub and events may be nil.
func NewOnboardingService(
	store database.Store,
	engine *decision.Engine,
	explain *ExplainService,
	comms *communication.Generator,
	queue messagequeue.Queue,
	hub broadcast.Broadcaster,
	events eventstore.Store,
) *OnboardingService {
	return &OnboardingService{
		store:   store,
		engine:  engine,
		explain: explain,
		comms:   comms,
		emitter: emitter{queue: queue, hub: hub, events: events},
		now:     time.Now,
		newID:   func() string { return "APP-" + uuid.NewString() },
	}
}

// SetMetrics attaches metric instruments.
func (s *OnboardingService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// SetAlerts enables reviewer alerts for cases routed to review.
func (s *OnboardingService) SetAlerts(a *ReviewAlerter) { s.emitter.alerts = a }

// SetClock overrides the time source.
func (s *OnboardingService) SetClock(now func() time.Time) { s.now = now }

// Submit validates the form and opens a case in status SUBMITTED.
func (s *OnboardingService) Submit(ctx context.Context, req application.CreateRequest) (*onboarding.Case, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	app := application.New(req, s.newID(), now)
	c := onboarding.New(app, now)
	if err := s.store.CreateCase(ctx, c); err != nil {
		return nil, fmt.Errorf("create case: %w", err)
	}

	ctx = logger.WithCaseID(ctx, c.ID)
	slog.InfoContext(ctx, "application submitted", "business", app.BusinessName, "industry", app.Industry)
	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("application.industry", app.IndustryKey()),
		))
	}
	s.emitter.emit(ctx, c.ID, event.TypeApplicationSubmitted, messagequeue.ApplicationSubmittedPayload{
		CaseID:       c.ID,
		BusinessName: app.BusinessName,
		Industry:     app.Industry,
		SubmittedAt:  app.SubmittedAt,
	})
	return c, nil
}

// SubmitDemo submits the built-in demo application.
func (s *OnboardingService) SubmitDemo(ctx context.Context) (*onboarding.Case, error) {
	return s.Submit(ctx, application.Demo())
}

// Assess submits an application and runs the pipeline in one call.
func (s *OnboardingService) Assess(ctx context.Context, req application.CreateRequest) (*onboarding.Case, error) {
	c, err := s.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Process(ctx, c.ID)
}

// Process runs the pipeline for a SUBMITTED case and stores the outcome.
// A case that was already processed yields onboarding.ErrAlreadyDecided.
func (s *OnboardingService) Process(ctx context.Context, id string) (*onboarding.Case, error) {
	ctx = logger.WithCaseID(ctx, id)
	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	if !c.Processable() {
		return nil, onboarding.ErrAlreadyDecided
	}

	ctx, span := cfotel.StartPipelineSpan(ctx, c.ID, c.Application.Industry)
	defer span.End()
	start := time.Now()

	rec, err := s.assess(ctx, &c.Application)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("assess %s: %w", c.ID, err)
	}

	in := decision.FromRecord(rec)
	d := s.engine.Evaluate(in)
	slog.InfoContext(ctx, "decision made",
		"decision", d.Outcome,
		"rule", d.Rule,
		"credit_score", in.CreditScore,
		"compliance_score", in.ComplianceScore,
	)
	s.metrics.RecordDecision(ctx, string(d.Outcome), d.Rule)
	span.SetAttributes(
		attribute.String("decision.outcome", string(d.Outcome)),
		attribute.String("decision.rule", d.Rule),
	)

	text, fallback := s.explain.Explain(ctx, c.ID, d, in)

	msg, err := s.comms.Compose(communication.Input{
		Status:       communication.Status(d.Outcome),
		BusinessName: c.Application.BusinessName,
		Reasoning:    d.Reasoning,
		Conditions:   d.ApprovalConditions,
	})
	if err != nil {
		return nil, fmt.Errorf("compose message: %w", err)
	}

	var packet *review.Packet
	if d.RequiresReview {
		p := review.Prepare(rec, d)
		packet = &p
	}

	if err := c.Conclude(rec, d, packet, s.now()); err != nil {
		return nil, err
	}
	c.Explanation = text
	c.ExplanationFallback = fallback
	c.Message = &msg

	if err := s.store.UpdateCase(ctx, c); err != nil {
		return nil, fmt.Errorf("update case: %w", err)
	}
	if s.metrics != nil {
		s.metrics.PipelineDuration.Record(ctx, time.Since(start).Seconds())
	}

	s.emitter.emit(ctx, c.ID, event.TypeDecisionMade, messagequeue.DecisionMadePayload{
		CaseID:         c.ID,
		Outcome:        string(d.Outcome),
		Rule:           d.Rule,
		Phase:          string(d.Phase),
		RequiresReview: d.RequiresReview,
		RiskFactors:    d.RiskFactors,
		Status:         string(c.Status),
	})
	if packet != nil {
		slog.InfoContext(ctx, "case routed to review", "priority", packet.Priority)
		s.emitter.emit(ctx, c.ID, event.TypeReviewPending, messagequeue.ReviewPendingPayload{
			CaseID:             c.ID,
			BusinessName:       c.Application.BusinessName,
			Priority:           string(packet.Priority),
			RecommendedAction:  string(packet.RecommendedAction),
			EscalationRequired: packet.EscalationRequired,
		})
	}
	return c, nil
}

// assess runs the scoring stages in order and assembles their results.
func (s *OnboardingService) assess(ctx context.Context, app *application.Application) (*assessment.Record, error) {
	docs := stage(ctx, s, assessment.StageDocuments, func() assessment.DocumentResult {
		return scoring.AssessDocuments(app)
	})
	slog.DebugContext(ctx, "documents checked", "complete", docs.Complete, "score", docs.Score)

	kyc := stage(ctx, s, assessment.StageKYC, func() assessment.KYCResult {
		return scoring.AssessKYC(app)
	})
	slog.DebugContext(ctx, "kyc screened", "compliance_score", kyc.ComplianceScore, "status", kyc.Status, "risk", kyc.RiskLevel)

	credit := stage(ctx, s, assessment.StageCredit, func() assessment.CreditResult {
		return scoring.AssessCredit(app)
	})
	slog.DebugContext(ctx, "credit scored", "credit_score", credit.Score, "risk", credit.RiskLevel, "limit", credit.Limit)

	products := stage(ctx, s, assessment.StageProducts, func() assessment.ProductResult {
		return scoring.MatchProducts(app, &kyc, &credit)
	})
	slog.DebugContext(ctx, "products matched", "account", products.AccountType, "credit_tier", products.CreditTier)

	return assessment.Assemble(docs, kyc, credit, products)
}

// stage runs fn inside a stage span and records its duration.
func stage[T any](ctx context.Context, s *OnboardingService, name assessment.Stage, fn func() T) T {
	_, span := cfotel.StartStageSpan(ctx, string(name))
	defer span.End()
	start := time.Now()
	out := fn()
	s.metrics.RecordStage(ctx, string(name), time.Since(start).Seconds())
	return out
}

// Get returns a case by application id.
func (s *OnboardingService) Get(ctx context.Context, id string) (*onboarding.Case, error) {
	return s.store.GetCase(ctx, id)
}

// List returns cases newest first.
func (s *OnboardingService) List(ctx context.Context, f onboarding.ListFilter) ([]onboarding.Case, error) {
	return s.store.ListCases(ctx, f)
}

// Events returns the timeline of a case in order.
func (s *OnboardingService) Events(ctx context.Context, id string) ([]event.CaseEvent, error) {
	if _, err := s.store.GetCase(ctx, id); err != nil {
		return nil, err
	}
	if s.emitter.events == nil {
		return []event.CaseEvent{}, nil
	}
	return s.emitter.events.LoadByCase(ctx, id)
}

// Rules lists the decision cascade in evaluation order.
func (s *OnboardingService) Rules() []decision.RuleInfo {
	return s.engine.Rules()
}

// Evaluate runs the cascade over a flat metrics map without storing
// anything. It returns the defaulted input alongside the decision.
func (s *OnboardingService) Evaluate(metrics map[string]any) (decision.Input, decision.Decision) {
	in := decision.FromMetrics(metrics)
	return in, s.engine.Evaluate(in)
}

// StartSubscribers processes every submitted application delivered by the
// queue. Redeliveries of an already decided case are acknowledged.
func (s *OnboardingService) StartSubscribers(ctx context.Context, queue messagequeue.Queue) ([]func(), error) {
	cancel, err := queue.Subscribe(ctx, messagequeue.SubjectApplicationSubmitted, func(msgCtx context.Context, _ string, data []byte) error {
		var p messagequeue.ApplicationSubmittedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("unmarshal application submitted: %w", err)
		}
		_, err := s.Process(msgCtx, p.CaseID)
		if errors.Is(err, onboarding.ErrAlreadyDecided) {
			slog.Debug("skipping decided case", "case_id", p.CaseID)
			return nil
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe application submitted: %w", err)
	}
	return []func(){cancel}, nil
}
