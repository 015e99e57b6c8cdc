package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/event"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
	"github.com/Strob0t/OnboardForge/internal/port/messagequeue"
	"github.com/Strob0t/OnboardForge/internal/port/notifier"
	"github.com/Strob0t/OnboardForge/internal/resilience"
)

// ReviewAlerter posts review queue changes to chat webhooks so reviewers
// learn about new work without watching the dashboard.
type ReviewAlerter struct {
	notifiers    []notifier.Notifier
	pool         *resilience.Pool
	timeout      time.Duration
	dashboardURL string
}

// NewReviewAlerter creates a ReviewAlerter. Sends run on pool; when the pool
// is full the alert is dropped.
func NewReviewAlerter(notifiers []notifier.Notifier, pool *resilience.Pool, timeout time.Duration, dashboardURL string) *ReviewAlerter {
	if pool == nil {
		pool = resilience.NewPool(len(notifiers))
	}
	return &ReviewAlerter{
		notifiers:    notifiers,
		pool:         pool,
		timeout:      timeout,
		dashboardURL: strings.TrimRight(dashboardURL, "/"),
	}
}

// Alert formats payload for typ and sends it to every notifier in the
// background. Event types that reviewers do not care about are ignored.
func (a *ReviewAlerter) Alert(ctx context.Context, typ event.Type, payload any) {
	n, ok := a.build(typ, payload)
	if !ok || len(a.notifiers) == 0 {
		return
	}
	// The request may finish before the webhook answers.
	ctx = context.WithoutCancel(ctx)
	for _, provider := range a.notifiers {
		sent := a.pool.TryGo(func() {
			a.send(ctx, provider, n)
		})
		if !sent {
			slog.Warn("review alert dropped, pool full", "provider", provider.Name(), "title", n.Title)
		}
	}
}

func (a *ReviewAlerter) send(ctx context.Context, provider notifier.Notifier, n notifier.Notification) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	if err := provider.Send(ctx, n); err != nil {
		slog.Warn("review alert failed", "provider", provider.Name(), "title", n.Title, "error", err)
		return
	}
	slog.Debug("review alert sent", "provider", provider.Name(), "title", n.Title)
}

// Wait blocks until in-flight alerts have finished.
func (a *ReviewAlerter) Wait() { a.pool.Wait() }

// NotifierCount returns the number of configured notifiers.
func (a *ReviewAlerter) NotifierCount() int { return len(a.notifiers) }

func (a *ReviewAlerter) build(typ event.Type, payload any) (notifier.Notification, bool) {
	switch p := payload.(type) {
	case messagequeue.ReviewPendingPayload:
		if typ != event.TypeReviewPending {
			return notifier.Notification{}, false
		}
		return a.pendingAlert(p), true
	case messagequeue.ReviewResolvedPayload:
		if typ != event.TypeReviewResolved {
			return notifier.Notification{}, false
		}
		return a.resolvedAlert(p), true
	default:
		return notifier.Notification{}, false
	}
}

func (a *ReviewAlerter) pendingAlert(p messagequeue.ReviewPendingPayload) notifier.Notification {
	level := notifier.LevelInfo
	if p.EscalationRequired || p.Priority == string(review.PriorityHigh) {
		level = notifier.LevelWarning
	}
	fields := []notifier.Field{
		{Name: "Application", Value: p.CaseID},
		{Name: "Priority", Value: p.Priority},
		{Name: "Recommended", Value: p.RecommendedAction},
	}
	if p.EscalationRequired {
		fields = append(fields, notifier.Field{Name: "Escalation", Value: "required"})
	}
	return notifier.Notification{
		Title:   "Review needed: " + p.BusinessName,
		Message: fmt.Sprintf("%s priority. %s.", p.Priority, review.Priority(p.Priority).SLA()),
		Level:   level,
		Fields:  fields,
		Link:    a.link(p.CaseID),
		Source:  string(event.TypeReviewPending),
	}
}

func (a *ReviewAlerter) resolvedAlert(p messagequeue.ReviewResolvedPayload) notifier.Notification {
	level := notifier.LevelInfo
	switch decision.Outcome(p.FinalOutcome) {
	case decision.OutcomeApprove:
		level = notifier.LevelSuccess
	case decision.OutcomeReject:
		level = notifier.LevelError
	}
	fields := []notifier.Field{
		{Name: "Application", Value: p.CaseID},
		{Name: "Status", Value: p.Status},
	}
	if p.FinalOutcome != "" {
		fields = append(fields, notifier.Field{Name: "Outcome", Value: p.FinalOutcome})
	}
	return notifier.Notification{
		Title:   "Review resolved: " + p.CaseID,
		Message: fmt.Sprintf("%s by %s", p.Action, p.Reviewer),
		Level:   level,
		Fields:  fields,
		Link:    a.link(p.CaseID),
		Source:  string(event.TypeReviewResolved),
	}
}

func (a *ReviewAlerter) link(caseID string) string {
	if a.dashboardURL == "" {
		return ""
	}
	return a.dashboardURL + "/reviews/" + caseID
}
