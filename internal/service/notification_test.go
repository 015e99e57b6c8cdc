package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/OnboardForge/internal/domain/event"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
	"github.com/Strob0t/OnboardForge/internal/port/messagequeue"
	"github.com/Strob0t/OnboardForge/internal/port/notifier"
	"github.com/Strob0t/OnboardForge/internal/resilience"
	"github.com/Strob0t/OnboardForge/internal/service"
)

type mockNotifier struct {
	name    string
	sendErr error
	block   chan struct{}

	mu   sync.Mutex
	sent []notifier.Notification
}

func (m *mockNotifier) Name() string { return m.name }

func (m *mockNotifier) Send(ctx context.Context, n notifier.Notification) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) notifications() []notifier.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notifier.Notification(nil), m.sent...)
}

func TestAlerterReviewPending(t *testing.T) {
	m := &mockNotifier{name: "mock"}
	a := service.NewReviewAlerter([]notifier.Notifier{m}, resilience.NewPool(2), time.Second, "https://dash.test/")

	a.Alert(context.Background(), event.TypeReviewPending, messagequeue.ReviewPendingPayload{
		CaseID:             "APP-1",
		BusinessName:       "StableTech Solutions",
		Priority:           string(review.PriorityHigh),
		RecommendedAction:  "REJECT",
		EscalationRequired: true,
	})
	a.Wait()

	sent := m.notifications()
	require.Len(t, sent, 1)
	n := sent[0]
	assert.Equal(t, "Review needed: StableTech Solutions", n.Title)
	assert.Equal(t, notifier.LevelWarning, n.Level)
	assert.Equal(t, "https://dash.test/reviews/APP-1", n.Link)
	assert.Equal(t, "review.pending", n.Source)
	assert.Contains(t, n.Message, "Immediate Review Required")
	assert.Contains(t, n.Fields, notifier.Field{Name: "Escalation", Value: "required"})
}

func TestAlerterReviewResolvedLevels(t *testing.T) {
	tests := []struct {
		outcome string
		want    notifier.Level
	}{
		{"APPROVE", notifier.LevelSuccess},
		{"REJECT", notifier.LevelError},
		{"", notifier.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			m := &mockNotifier{name: "mock"}
			a := service.NewReviewAlerter([]notifier.Notifier{m}, nil, time.Second, "")
			a.Alert(context.Background(), event.TypeReviewResolved, messagequeue.ReviewResolvedPayload{
				CaseID:       "APP-1",
				Action:       "APPROVE",
				Reviewer:     "jane.doe",
				Status:       "APPROVED",
				FinalOutcome: tt.outcome,
			})
			a.Wait()

			sent := m.notifications()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.want, sent[0].Level)
			assert.Equal(t, "APPROVE by jane.doe", sent[0].Message)
			assert.Empty(t, sent[0].Link)
		})
	}
}

func TestAlerterIgnoresOtherEvents(t *testing.T) {
	m := &mockNotifier{name: "mock"}
	a := service.NewReviewAlerter([]notifier.Notifier{m}, nil, time.Second, "")

	a.Alert(context.Background(), event.TypeDecisionMade, messagequeue.DecisionMadePayload{CaseID: "APP-1"})
	a.Alert(context.Background(), event.TypeDecisionMade, messagequeue.ReviewPendingPayload{CaseID: "APP-1"})
	a.Wait()

	assert.Empty(t, m.notifications())
}

func TestAlerterFailureDoesNotStopOthers(t *testing.T) {
	failing := &mockNotifier{name: "failing", sendErr: errors.New("webhook down")}
	ok := &mockNotifier{name: "ok"}
	a := service.NewReviewAlerter([]notifier.Notifier{failing, ok}, resilience.NewPool(2), time.Second, "")
	assert.Equal(t, 2, a.NotifierCount())

	a.Alert(context.Background(), event.TypeReviewResolved, messagequeue.ReviewResolvedPayload{CaseID: "APP-1"})
	a.Wait()

	assert.Len(t, ok.notifications(), 1)
}

func TestAlerterDropsWhenPoolFull(t *testing.T) {
	release := make(chan struct{})
	m := &mockNotifier{name: "slow", block: release}
	a := service.NewReviewAlerter([]notifier.Notifier{m}, resilience.NewPool(1), time.Second, "")

	payload := messagequeue.ReviewResolvedPayload{CaseID: "APP-1"}
	a.Alert(context.Background(), event.TypeReviewResolved, payload)
	a.Alert(context.Background(), event.TypeReviewResolved, payload)
	close(release)
	a.Wait()

	assert.Len(t, m.notifications(), 1)
}

func TestAlerterSurvivesCanceledRequest(t *testing.T) {
	m := &mockNotifier{name: "mock"}
	a := service.NewReviewAlerter([]notifier.Notifier{m}, nil, time.Second, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a.Alert(ctx, event.TypeReviewResolved, messagequeue.ReviewResolvedPayload{CaseID: "APP-1"})
	a.Wait()

	assert.Len(t, m.notifications(), 1)
}

func TestServicesAlertReviewers(t *testing.T) {
	h := newHarness(t, staticExplainer("ok"))
	m := &mockNotifier{name: "mock"}
	a := service.NewReviewAlerter([]notifier.Notifier{m}, resilience.NewPool(4), time.Second, "")
	h.onboarding.SetAlerts(a)
	h.review.SetAlerts(a)
	ctx := context.Background()

	c := pendingCase(t, h)
	_, err := h.review.Resolve(ctx, c.ID, review.ResolveRequest{
		Action:   review.ActionReject,
		Reviewer: "jane.doe",
		Notes:    "Declined after review.",
	})
	require.NoError(t, err)
	a.Wait()

	sent := m.notifications()
	require.Len(t, sent, 2)
	sources := []string{sent[0].Source, sent[1].Source}
	assert.ElementsMatch(t, []string{"review.pending", "review.resolved"}, sources)
}
