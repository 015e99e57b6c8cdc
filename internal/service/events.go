package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Strob0t/OnboardForge/internal/domain/event"
	"github.com/Strob0t/OnboardForge/internal/logger"
	"github.com/Strob0t/OnboardForge/internal/port/broadcast"
	"github.com/Strob0t/OnboardForge/internal/port/eventstore"
	"github.com/Strob0t/OnboardForge/internal/port/messagequeue"
)

// emitter fans a case change out to the timeline, the message queue, the
// dashboard hub and reviewer alerts. Every sink is optional and delivery is
// best effort: the case row is the source of truth and has already been
// written.
type emitter struct {
	queue  messagequeue.Queue
	hub    broadcast.Broadcaster
	events eventstore.Store
	alerts *ReviewAlerter
}

var subjects = map[event.Type]string{
	event.TypeApplicationSubmitted: messagequeue.SubjectApplicationSubmitted,
	event.TypeDecisionMade:         messagequeue.SubjectDecisionMade,
	event.TypeReviewPending:        messagequeue.SubjectReviewPending,
	event.TypeReviewResolved:       messagequeue.SubjectReviewResolved,
}

func (e *emitter) emit(ctx context.Context, caseID string, typ event.Type, payload any) {
	e.appendEvent(ctx, caseID, typ, payload)

	if e.queue != nil {
		if err := e.publishJSON(ctx, subjects[typ], payload); err != nil {
			slog.Error("failed to publish case event", "type", typ, "case_id", caseID, "error", err)
		}
	}
	if e.hub != nil {
		e.hub.BroadcastEvent(ctx, string(typ), payload)
	}
	if e.alerts != nil {
		e.alerts.Alert(ctx, typ, payload)
	}
}

func (e *emitter) publishJSON(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return e.queue.Publish(ctx, subject, data)
}

func (e *emitter) appendEvent(ctx context.Context, caseID string, typ event.Type, payload any) {
	if e.events == nil {
		return
	}
	ev := event.New(caseID, typ, payload, logger.RequestID(ctx), time.Now())
	if err := e.events.Append(ctx, &ev); err != nil {
		slog.Error("failed to append case event", "type", typ, "case_id", caseID, "error", err)
	}
}
