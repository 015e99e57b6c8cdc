package onboarding

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
)

var t0 = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func newCase() *Case {
	return New(application.New(application.Demo(), "APP-1", t0), t0)
}

func reviewDecision() decision.Decision {
	return decision.Decision{Outcome: decision.OutcomeHumanReview, RequiresReview: true, ApprovalConditions: []string{"Credit monitoring required"}}
}

func TestNewCase(t *testing.T) {
	c := newCase()
	assert.Equal(t, "APP-1", c.ID)
	assert.Equal(t, StatusSubmitted, c.Status)
	assert.True(t, c.Processable())
	assert.False(t, c.Pending())
	assert.Empty(t, c.Outcome())
}

func TestConcludeFinalOutcome(t *testing.T) {
	c := newCase()
	d := decision.Decision{Outcome: decision.OutcomeApprove, ApprovalConditions: []string{"Annual financial review"}}
	packet := &review.Packet{}

	require.NoError(t, c.Conclude(nil, d, packet, t0.Add(time.Minute)))
	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, decision.OutcomeApprove, c.FinalOutcome)
	assert.Nil(t, c.ReviewPacket)
	assert.Equal(t, []string{"Annual financial review"}, c.Conditions())

	err := c.Conclude(nil, d, nil, t0)
	assert.True(t, errors.Is(err, ErrAlreadyDecided))
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestConcludeHumanReviewKeepsPacket(t *testing.T) {
	c := newCase()
	packet := &review.Packet{Priority: review.PriorityHigh}
	require.NoError(t, c.Conclude(nil, reviewDecision(), packet, t0))

	assert.Equal(t, StatusPendingReview, c.Status)
	assert.True(t, c.Pending())
	assert.Same(t, packet, c.ReviewPacket)
	assert.Empty(t, c.FinalOutcome)
	assert.Equal(t, decision.OutcomeHumanReview, c.Outcome())
}

func TestApplyOverride(t *testing.T) {
	tests := []struct {
		name       string
		action     review.Action
		wantStatus Status
		wantFinal  decision.Outcome
	}{
		{"approve", review.ActionApprove, StatusApproved, decision.OutcomeApprove},
		{"approve with conditions", review.ActionApproveWithConditions, StatusApproved, decision.OutcomeApprove},
		{"reject", review.ActionReject, StatusRejected, decision.OutcomeReject},
		{"more info", review.ActionRequestMoreInfo, StatusInfoRequested, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCase()
			require.NoError(t, c.Conclude(nil, reviewDecision(), &review.Packet{}, t0))

			o := review.Override{ID: "o1", Action: tt.action, Reviewer: "r", Notes: "n"}
			require.NoError(t, c.ApplyOverride(o, t0.Add(time.Hour)))

			assert.Equal(t, tt.wantStatus, c.Status)
			assert.Equal(t, tt.wantFinal, c.FinalOutcome)
			assert.Equal(t, decision.OutcomeHumanReview, c.Decision.Outcome, "automated decision must not change")
			assert.Len(t, c.Overrides, 1)
		})
	}
}

func TestApplyOverrideAfterMoreInfo(t *testing.T) {
	c := newCase()
	require.NoError(t, c.Conclude(nil, reviewDecision(), &review.Packet{}, t0))
	require.NoError(t, c.ApplyOverride(review.Override{Action: review.ActionRequestMoreInfo}, t0))
	assert.True(t, c.Pending())
	assert.False(t, c.Processable())

	require.NoError(t, c.ApplyOverride(review.Override{
		Action:     review.ActionApproveWithConditions,
		Conditions: []string{"Quarterly statements"},
	}, t0))
	assert.Equal(t, StatusApproved, c.Status)
	assert.Len(t, c.Overrides, 2)
	assert.Equal(t, []string{"Quarterly statements"}, c.Conditions())

	err := c.ApplyOverride(review.Override{Action: review.ActionReject}, t0)
	assert.True(t, errors.Is(err, review.ErrNotPending))
	assert.Len(t, c.Overrides, 2)
}

func TestApplyOverrideRequiresPending(t *testing.T) {
	c := newCase()
	err := c.ApplyOverride(review.Override{Action: review.ActionApprove}, t0)
	assert.True(t, errors.Is(err, review.ErrNotPending))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusApproved, StatusFor(decision.OutcomeApprove))
	assert.Equal(t, StatusRejected, StatusFor(decision.OutcomeReject))
	assert.Equal(t, StatusPendingReview, StatusFor(decision.OutcomeHumanReview))
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusInfoRequested.Valid())
	assert.True(t, StatusSubmitted.Valid())
	assert.False(t, Status("pending_review").Valid())
	assert.False(t, Status("").Valid())
}
