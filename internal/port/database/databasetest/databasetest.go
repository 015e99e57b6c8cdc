// Package databasetest provides a compliance suite for database.Store
// implementations.
package databasetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
	"github.com/Strob0t/OnboardForge/internal/port/database"
)

// NewCase returns a fresh submitted case with a unique id. Cases created
// later sort after earlier ones.
func NewCase(created time.Time) *onboarding.Case {
	app := application.New(application.Demo(), "APP-"+uuid.NewString(), created)
	return onboarding.New(app, created)
}

// Run runs the standard compliance suite against s. Stores may be shared
// with other data, so listing checks only look at cases the suite created.
func Run(t *testing.T, s database.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("CreateAndGet", func(t *testing.T) {
		c := NewCase(base)
		if err := s.CreateCase(ctx, c); err != nil {
			t.Fatal(err)
		}
		if c.Version != 1 {
			t.Fatalf("expected version 1 after create, got %d", c.Version)
		}
		got, err := s.GetCase(ctx, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Application.BusinessName != "StableTech Solutions" {
			t.Fatalf("unexpected business name %q", got.Application.BusinessName)
		}
		if got.Status != onboarding.StatusSubmitted || got.Version != 1 {
			t.Fatalf("unexpected status/version %s/%d", got.Status, got.Version)
		}
		if !got.CreatedAt.Equal(c.CreatedAt) {
			t.Fatalf("created_at mismatch: %v != %v", got.CreatedAt, c.CreatedAt)
		}
	})

	t.Run("CreateDuplicate", func(t *testing.T) {
		c := NewCase(base)
		if err := s.CreateCase(ctx, c); err != nil {
			t.Fatal(err)
		}
		dup := *c
		if err := s.CreateCase(ctx, &dup); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		if _, err := s.GetCase(ctx, "APP-missing-"+uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateRoundTrip", func(t *testing.T) {
		c := NewCase(base)
		if err := s.CreateCase(ctx, c); err != nil {
			t.Fatal(err)
		}
		d := decision.Decision{
			Outcome:            decision.OutcomeHumanReview,
			Reasoning:          "Borderline credit score 62.",
			RequiresReview:     true,
			RiskFactors:        []string{"Borderline credit score"},
			ApprovalConditions: []string{},
			Confidence:         decision.ConfidenceMedium,
			Rule:               "borderline_credit",
			Phase:              decision.PhaseSoftTrigger,
			RuleIndex:          6,
		}
		packet := review.Packet{Priority: review.PriorityStandard, RecommendedAction: review.ActionApprove}
		if err := c.Conclude(nil, d, &packet, base.Add(time.Second)); err != nil {
			t.Fatal(err)
		}
		c.Explanation = "advisory"
		if err := s.UpdateCase(ctx, c); err != nil {
			t.Fatal(err)
		}
		if c.Version != 2 {
			t.Fatalf("expected version 2 after update, got %d", c.Version)
		}

		o := review.NewOverride("ovr-1", review.ResolveRequest{
			Action:   review.ActionReject,
			Reviewer: "officer",
			Notes:    "declined",
		}, base.Add(2*time.Second))
		if err := c.ApplyOverride(o, base.Add(2*time.Second)); err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateCase(ctx, c); err != nil {
			t.Fatal(err)
		}

		got, err := s.GetCase(ctx, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Version != 3 || got.Status != onboarding.StatusRejected {
			t.Fatalf("unexpected version/status %d/%s", got.Version, got.Status)
		}
		if got.Decision == nil || got.Decision.Rule != "borderline_credit" || got.Decision.Outcome != decision.OutcomeHumanReview {
			t.Fatalf("automated decision not preserved: %+v", got.Decision)
		}
		if got.FinalOutcome != decision.OutcomeReject {
			t.Fatalf("expected final outcome REJECT, got %q", got.FinalOutcome)
		}
		if len(got.Overrides) != 1 || got.Overrides[0].Reviewer != "officer" {
			t.Fatalf("unexpected overrides %+v", got.Overrides)
		}
		if got.ReviewPacket == nil || got.ReviewPacket.Priority != review.PriorityStandard {
			t.Fatalf("review packet not preserved: %+v", got.ReviewPacket)
		}
		if got.Explanation != "advisory" {
			t.Fatalf("explanation not preserved: %q", got.Explanation)
		}
	})

	t.Run("UpdateStaleVersion", func(t *testing.T) {
		c := NewCase(base)
		if err := s.CreateCase(ctx, c); err != nil {
			t.Fatal(err)
		}
		stale := *c
		c.Explanation = "first"
		if err := s.UpdateCase(ctx, c); err != nil {
			t.Fatal(err)
		}
		stale.Explanation = "second"
		if err := s.UpdateCase(ctx, &stale); !errors.Is(err, domain.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		got, err := s.GetCase(ctx, c.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Explanation != "first" {
			t.Fatalf("stale write must not land, got %q", got.Explanation)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		c := NewCase(base)
		c.Version = 1
		if err := s.UpdateCase(ctx, c); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		older := NewCase(base.Add(-time.Hour))
		newer := NewCase(base.Add(time.Hour))
		for _, c := range []*onboarding.Case{older, newer} {
			if err := s.CreateCase(ctx, c); err != nil {
				t.Fatal(err)
			}
		}
		cases, err := s.ListCases(ctx, onboarding.ListFilter{})
		if err != nil {
			t.Fatal(err)
		}
		posOlder, posNewer := -1, -1
		for i := range cases {
			switch cases[i].ID {
			case older.ID:
				posOlder = i
			case newer.ID:
				posNewer = i
			}
		}
		if posOlder < 0 || posNewer < 0 {
			t.Fatalf("created cases missing from listing (older=%d newer=%d)", posOlder, posNewer)
		}
		if posNewer > posOlder {
			t.Fatalf("expected newest first, got newer at %d and older at %d", posNewer, posOlder)
		}
	})

	t.Run("ListFilterAndLimit", func(t *testing.T) {
		c := NewCase(base)
		if err := s.CreateCase(ctx, c); err != nil {
			t.Fatal(err)
		}
		d := decision.Decision{Outcome: decision.OutcomeReject, Rule: "sanctions_flagged", Phase: decision.PhaseHardStop}
		if err := c.Conclude(nil, d, nil, base); err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateCase(ctx, c); err != nil {
			t.Fatal(err)
		}

		rejected, err := s.ListCases(ctx, onboarding.ListFilter{Status: onboarding.StatusRejected})
		if err != nil {
			t.Fatal(err)
		}
		found := false
		for i := range rejected {
			if rejected[i].Status != onboarding.StatusRejected {
				t.Fatalf("filter leaked status %s", rejected[i].Status)
			}
			found = found || rejected[i].ID == c.ID
		}
		if !found {
			t.Fatal("rejected case missing from filtered listing")
		}

		limited, err := s.ListCases(ctx, onboarding.ListFilter{Limit: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(limited) != 1 {
			t.Fatalf("expected 1 case with limit 1, got %d", len(limited))
		}
	})
}
