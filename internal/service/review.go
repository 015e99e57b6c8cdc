package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/Strob0t/OnboardForge/internal/adapter/otel"
	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/communication"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/event"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
	"github.com/Strob0t/OnboardForge/internal/logger"
	"github.com/Strob0t/OnboardForge/internal/port/broadcast"
	"github.com/Strob0t/OnboardForge/internal/port/database"
	"github.com/Strob0t/OnboardForge/internal/port/eventstore"
	"github.com/Strob0t/OnboardForge/internal/port/messagequeue"
)

// ReviewItem is a queue entry shown to the reviewer.
type ReviewItem struct {
	CaseID       string             `json:"case_id"`
	BusinessName string             `json:"business_name"`
	Status       onboarding.Status  `json:"status"`
	Decision     *decision.Decision `json:"decision"`
	Packet       *review.Packet     `json:"review_packet"`
	Overrides    []review.Override  `json:"overrides"`
	SubmittedAt  time.Time          `json:"submitted_at"`
}

func itemFor(c *onboarding.Case) ReviewItem {
	overrides := c.Overrides
	if overrides == nil {
		overrides = []review.Override{}
	}
	return ReviewItem{
		CaseID:       c.ID,
		BusinessName: c.Application.BusinessName,
		Status:       c.Status,
		Decision:     c.Decision,
		Packet:       c.ReviewPacket,
		Overrides:    overrides,
		SubmittedAt:  c.Application.SubmittedAt,
	}
}

// ReviewService manages the human review queue and reviewer overrides.
type ReviewService struct {
	store   database.Store
	comms   *communication.Generator
	emitter emitter
	metrics *cfotel.Metrics
	now     func() time.Time
}

// NewReviewService creates a ReviewService with all dependencies.
func NewReviewService(
	store database.Store,
	comms *communication.Generator,
	queue messagequeue.Queue,
	hub broadcast.Broadcaster,
	events eventstore.Store,
) *ReviewService {
	return &ReviewService{
		store:   store,
		comms:   comms,
		emitter: emitter{queue: queue, hub: hub, events: events},
		now:     time.Now,
	}
}

// SetMetrics attaches metric instruments.
func (s *ReviewService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// SetAlerts enables reviewer alerts for resolved reviews.
func (s *ReviewService) SetAlerts(a *ReviewAlerter) { s.emitter.alerts = a }

// SetClock overrides the time source.
func (s *ReviewService) SetClock(now func() time.Time) { s.now = now }

// ListPending returns cases waiting on a reviewer, newest first. Cases with
// a REQUEST_MORE_INFO override stay in the queue.
func (s *ReviewService) ListPending(ctx context.Context) ([]ReviewItem, error) {
	cases, err := s.store.ListCases(ctx, onboarding.ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	items := make([]ReviewItem, 0, len(cases))
	for i := range cases {
		if cases[i].Pending() {
			items = append(items, itemFor(&cases[i]))
		}
	}
	return items, nil
}

// GetPacket returns the review entry for a case that was routed to review.
// Resolved cases still return their packet together with the overrides.
func (s *ReviewService) GetPacket(ctx context.Context, id string) (*ReviewItem, error) {
	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.ReviewPacket == nil {
		return nil, fmt.Errorf("review packet for %s: %w", id, domain.ErrNotFound)
	}
	item := itemFor(c)
	return &item, nil
}

// Resolve records a reviewer override. Invalid input is rejected before
// anything is written. Terminal actions settle the final outcome and render
// the customer message for it.
func (s *ReviewService) Resolve(ctx context.Context, id string, req review.ResolveRequest) (*onboarding.Case, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx = logger.WithCaseID(ctx, id)
	ctx, span := cfotel.StartReviewSpan(ctx, id, string(req.Action))
	defer span.End()

	c, err := s.store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := review.NewOverride(uuid.NewString(), req, now)
	if err := c.ApplyOverride(o, now); err != nil {
		return nil, err
	}

	if outcome, final := o.Action.Outcome(); final {
		msg, err := s.comms.Compose(communication.Input{
			Status:       communication.Status(outcome),
			BusinessName: c.Application.BusinessName,
			Reasoning:    o.Action.CustomerReason(),
			Conditions:   c.Conditions(),
		})
		if err != nil {
			return nil, fmt.Errorf("compose message: %w", err)
		}
		c.Message = &msg
	}

	if err := s.store.UpdateCase(ctx, c); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update case: %w", err)
	}

	slog.InfoContext(ctx, "review resolved",
		"action", o.Action,
		"reviewer", o.Reviewer,
		"status", c.Status,
		"automated_decision", c.Decision.Outcome,
	)
	if s.metrics != nil {
		s.metrics.ReviewsResolved.Add(ctx, 1, metric.WithAttributes(
			attribute.String("review.action", string(o.Action)),
		))
	}
	s.emitter.emit(ctx, c.ID, event.TypeReviewResolved, messagequeue.ReviewResolvedPayload{
		CaseID:       c.ID,
		Action:       string(o.Action),
		Reviewer:     o.Reviewer,
		Status:       string(c.Status),
		FinalOutcome: string(c.FinalOutcome),
	})
	return c, nil
}
