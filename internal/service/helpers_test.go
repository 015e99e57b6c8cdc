package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Strob0t/OnboardForge/internal/adapter/memory"
	"github.com/Strob0t/OnboardForge/internal/config"
	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/communication"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/port/explainer"
	"github.com/Strob0t/OnboardForge/internal/port/messagequeue"
	"github.com/Strob0t/OnboardForge/internal/resilience"
	"github.com/Strob0t/OnboardForge/internal/service"
)

// --- Fakes ---

type published struct {
	subject string
	data    []byte
}

type fakeQueue struct {
	mu       sync.Mutex
	msgs     []published
	handlers map[string]messagequeue.Handler
}

func (q *fakeQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, published{subject: subject, data: data})
	return nil
}

func (q *fakeQueue) Subscribe(_ context.Context, subject string, h messagequeue.Handler) (func(), error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handlers == nil {
		q.handlers = make(map[string]messagequeue.Handler)
	}
	q.handlers[subject] = h
	return func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		delete(q.handlers, subject)
	}, nil
}

func (q *fakeQueue) Drain() error      { return nil }
func (q *fakeQueue) Close() error      { return nil }
func (q *fakeQueue) IsConnected() bool { return true }

func (q *fakeQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.msgs))
	for i, m := range q.msgs {
		out[i] = m.subject
	}
	return out
}

// deliver hands the last message published on subject to its subscriber.
func (q *fakeQueue) deliver(ctx context.Context, subject string) error {
	q.mu.Lock()
	h := q.handlers[subject]
	var data []byte
	for _, m := range q.msgs {
		if m.subject == subject {
			data = m.data
		}
	}
	q.mu.Unlock()
	if h == nil {
		return errors.New("no subscriber for " + subject)
	}
	return h(ctx, subject, data)
}

type fakeHub struct {
	mu     sync.Mutex
	events []string
}

func (h *fakeHub) BroadcastEvent(_ context.Context, eventType string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, eventType)
}

func (h *fakeHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

type explainerFunc func(ctx context.Context, prompt string) (string, error)

func (f explainerFunc) Explain(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// --- Harness ---

const fallbackText = "Automated explanation unavailable."

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	store      *memory.Store
	events     *memory.EventStore
	queue      *fakeQueue
	hub        *fakeHub
	onboarding *service.OnboardingService
	review     *service.ReviewService
}

func explainCfg() config.Explainer {
	return config.Explainer{Enabled: true, Timeout: time.Second, Fallback: fallbackText}
}

func newHarness(t *testing.T, gen explainer.Explainer) *harness {
	t.Helper()

	engine, err := decision.NewEngine(decision.DefaultThresholds())
	require.NoError(t, err)
	comms, err := communication.NewGenerator(communication.Bank{Name: "Test Bank", SupportEmail: "help@test.bank"})
	require.NoError(t, err)

	h := &harness{
		store:  memory.NewStore(),
		events: memory.NewEventStore(),
		queue:  &fakeQueue{},
		hub:    &fakeHub{},
	}
	explain := service.NewExplainService(gen, resilience.NewBreaker(3, time.Minute), explainCfg())
	h.onboarding = service.NewOnboardingService(h.store, engine, explain, comms, h.queue, h.hub, h.events)
	h.onboarding.SetClock(func() time.Time { return t0 })
	h.review = service.NewReviewService(h.store, comms, h.queue, h.hub, h.events)
	h.review.SetClock(func() time.Time { return t0.Add(time.Hour) })
	return h
}

func staticExplainer(text string) explainer.Explainer {
	return explainerFunc(func(context.Context, string) (string, error) { return text, nil })
}

// pepFlagged is the demo application with a politically exposed owner,
// which routes it to human review.
func pepFlagged() application.CreateRequest {
	req := application.Demo()
	req.Identity.PEPCheck = application.ScreeningFlagged
	return req
}

func sanctioned() application.CreateRequest {
	req := application.Demo()
	req.Identity.SanctionsCheck = application.ScreeningFlagged
	return req
}
