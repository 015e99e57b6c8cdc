// Package onboarding defines the Case entity: one application travelling
// through assessment, decision and, when needed, human review.
package onboarding

import (
	"errors"
	"fmt"
	"time"

	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
	"github.com/Strob0t/OnboardForge/internal/domain/communication"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
	"github.com/Strob0t/OnboardForge/internal/domain/review"
)

// Status is the lifecycle state of a case.
type Status string

const (
	StatusSubmitted     Status = "SUBMITTED"
	StatusApproved      Status = "APPROVED"
	StatusRejected      Status = "REJECTED"
	StatusPendingReview Status = "PENDING_REVIEW"
	StatusInfoRequested Status = "INFO_REQUESTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusApproved, StatusRejected, StatusPendingReview, StatusInfoRequested:
		return true
	}
	return false
}

// ErrAlreadyDecided is returned when processing a case that already has a
// final outcome.
var ErrAlreadyDecided = fmt.Errorf("%w: case already decided", domain.ErrConflict)

// StatusFor maps a decision outcome to the case status it leads to.
func StatusFor(o decision.Outcome) Status {
	switch o {
	case decision.OutcomeApprove:
		return StatusApproved
	case decision.OutcomeReject:
		return StatusRejected
	}
	return StatusPendingReview
}

// Case is the unit of persistence, keyed by the application id.
type Case struct {
	ID                  string                  `json:"id"`
	Application         application.Application `json:"application"`
	Status              Status                  `json:"status"`
	Record              *assessment.Record      `json:"assessment,omitempty"`
	Decision            *decision.Decision      `json:"decision,omitempty"`
	Explanation         string                  `json:"explanation,omitempty"`
	ExplanationFallback bool                    `json:"explanation_fallback,omitempty"`
	Message             *communication.Message  `json:"communication,omitempty"`
	ReviewPacket        *review.Packet          `json:"review_packet,omitempty"`
	Overrides           []review.Override       `json:"overrides,omitempty"`
	FinalOutcome        decision.Outcome        `json:"final_outcome,omitempty"`
	Version             int                     `json:"version"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

// New opens a case for a freshly submitted application.
func New(app application.Application, now time.Time) *Case {
	return &Case{
		ID:          app.ID,
		Application: app,
		Status:      StatusSubmitted,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}
}

// Pending reports whether the case waits on a reviewer.
func (c *Case) Pending() bool {
	return c.Status == StatusPendingReview || c.Status == StatusInfoRequested
}

// Processable reports whether the pipeline may run on the case. The
// automated decision is written once; an INFO_REQUESTED case stays with the
// reviewer.
func (c *Case) Processable() bool {
	return c.Status == StatusSubmitted
}

// Conclude records the pipeline's outputs. A decision that is not
// HUMAN_REVIEW is final; otherwise the case waits for a reviewer and keeps
// the packet.
func (c *Case) Conclude(rec *assessment.Record, d decision.Decision, packet *review.Packet, now time.Time) error {
	if !c.Processable() {
		return ErrAlreadyDecided
	}
	c.Record = rec
	c.Decision = &d
	c.Status = StatusFor(d.Outcome)
	c.ReviewPacket = nil
	c.FinalOutcome = ""
	if d.RequiresReview {
		c.ReviewPacket = packet
	} else {
		c.FinalOutcome = d.Outcome
	}
	c.UpdatedAt = now.UTC()
	return nil
}

// ApplyOverride appends a reviewer override. Terminal actions settle the
// final outcome; REQUEST_MORE_INFO leaves the case pending. The automated
// decision is never touched.
func (c *Case) ApplyOverride(o review.Override, now time.Time) error {
	if !c.Pending() {
		return review.ErrNotPending
	}
	if c.Decision == nil {
		return errors.New("case has no automated decision")
	}
	c.Overrides = append(c.Overrides, o)
	if outcome, final := o.Action.Outcome(); final {
		c.FinalOutcome = outcome
		c.Status = StatusFor(outcome)
	} else {
		c.Status = StatusInfoRequested
	}
	c.UpdatedAt = now.UTC()
	return nil
}

// Outcome returns the final outcome when settled, else the automated one.
func (c *Case) Outcome() decision.Outcome {
	if c.FinalOutcome != "" {
		return c.FinalOutcome
	}
	if c.Decision != nil {
		return c.Decision.Outcome
	}
	return ""
}

// LastOverride returns the most recent override, if any.
func (c *Case) LastOverride() (review.Override, bool) {
	if len(c.Overrides) == 0 {
		return review.Override{}, false
	}
	return c.Overrides[len(c.Overrides)-1], true
}

// Conditions are the approval conditions attached to the final outcome:
// those from the latest override when it carries any, else the decision's.
func (c *Case) Conditions() []string {
	if o, ok := c.LastOverride(); ok && len(o.Conditions) > 0 {
		return o.Conditions
	}
	if c.Decision != nil {
		return c.Decision.ApprovalConditions
	}
	return nil
}

// ListFilter narrows case listings.
type ListFilter struct {
	Status Status
	Limit  int
}
