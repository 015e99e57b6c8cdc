// Package eventstoretest provides a compliance suite for eventstore.Store
// implementations.
package eventstoretest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/OnboardForge/internal/domain/event"
	"github.com/Strob0t/OnboardForge/internal/port/eventstore"
)

// Run runs the compliance suite against s. prepare is called with every
// case id the suite uses before the first append, for stores that require
// the case to exist; it may be nil.
func Run(t *testing.T, s eventstore.Store, prepare func(t *testing.T, caseID string)) {
	t.Helper()
	ctx := context.Background()
	newCase := func(t *testing.T) string {
		t.Helper()
		id := "APP-" + uuid.NewString()
		if prepare != nil {
			prepare(t, id)
		}
		return id
	}

	t.Run("AppendAssignsVersions", func(t *testing.T) {
		id := newCase(t)
		types := []event.Type{event.TypeApplicationSubmitted, event.TypeDecisionMade, event.TypeReviewPending}
		for i, typ := range types {
			ev := event.New(id, typ, map[string]int{"step": i}, "req", time.Now())
			if err := s.Append(ctx, &ev); err != nil {
				t.Fatal(err)
			}
			if ev.Version != i+1 {
				t.Fatalf("expected version %d, got %d", i+1, ev.Version)
			}
		}

		events, err := s.LoadByCase(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != len(types) {
			t.Fatalf("expected %d events, got %d", len(types), len(events))
		}
		for i := range events {
			if events[i].Type != types[i] || events[i].Version != i+1 {
				t.Fatalf("event %d: got %s v%d", i, events[i].Type, events[i].Version)
			}
			if events[i].RequestID != "req" {
				t.Fatalf("event %d: request id lost", i)
			}
		}
	})

	t.Run("CasesAreIsolated", func(t *testing.T) {
		a, b := newCase(t), newCase(t)
		evA := event.New(a, event.TypeApplicationSubmitted, nil, "", time.Now())
		evB := event.New(b, event.TypeApplicationSubmitted, nil, "", time.Now())
		if err := s.Append(ctx, &evA); err != nil {
			t.Fatal(err)
		}
		if err := s.Append(ctx, &evB); err != nil {
			t.Fatal(err)
		}
		if evB.Version != 1 {
			t.Fatalf("versions must be per case, got %d", evB.Version)
		}
		events, err := s.LoadByCase(ctx, a)
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 1 || events[0].CaseID != a {
			t.Fatalf("unexpected events for %s: %+v", a, events)
		}
	})

	t.Run("LoadUnknownCase", func(t *testing.T) {
		events, err := s.LoadByCase(ctx, "APP-unknown-"+uuid.NewString())
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 0 {
			t.Fatalf("expected no events, got %d", len(events))
		}
	})
}
