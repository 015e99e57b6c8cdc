package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
)

// Reviewer input errors. All wrap domain.ErrValidation except ErrNotPending,
// which wraps domain.ErrConflict.
var (
	ErrInvalidAction      = fmt.Errorf("%w: action must be one of APPROVE, APPROVE_WITH_CONDITIONS, REJECT, REQUEST_MORE_INFO", domain.ErrValidation)
	ErrReviewerRequired   = fmt.Errorf("%w: reviewer is required", domain.ErrValidation)
	ErrNotesRequired      = fmt.Errorf("%w: reviewer notes are required", domain.ErrValidation)
	ErrConditionsRequired = fmt.Errorf("%w: at least one condition is required to approve with conditions", domain.ErrValidation)
	ErrNotPending         = fmt.Errorf("%w: case is not pending review", domain.ErrConflict)
)

// Action is a reviewer's resolution of a case.
type Action string

const (
	ActionApprove               Action = "APPROVE"
	ActionApproveWithConditions Action = "APPROVE_WITH_CONDITIONS"
	ActionReject                Action = "REJECT"
	ActionRequestMoreInfo       Action = "REQUEST_MORE_INFO"
)

// Actions lists the options offered to the reviewer.
var Actions = []Action{ActionApprove, ActionApproveWithConditions, ActionReject, ActionRequestMoreInfo}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionApprove, ActionApproveWithConditions, ActionReject, ActionRequestMoreInfo:
		return true
	}
	return false
}

// Outcome returns the final outcome the action settles on. ok is false for
// REQUEST_MORE_INFO, which keeps the case open.
func (a Action) Outcome() (o decision.Outcome, ok bool) {
	switch a {
	case ActionApprove, ActionApproveWithConditions:
		return decision.OutcomeApprove, true
	case ActionReject:
		return decision.OutcomeReject, true
	}
	return "", false
}

// CustomerReason is the reasoning shown to the customer when the action
// settles a case. Reviewer notes stay internal.
func (a Action) CustomerReason() string {
	switch a {
	case ActionApprove:
		return "Your application was approved following a manual review by our team."
	case ActionApproveWithConditions:
		return "Your application was approved with conditions following a manual review by our team."
	case ActionReject:
		return "Following a manual review, your application does not meet our current requirements."
	}
	return ""
}

// Override records a reviewer's resolution. It is kept alongside the
// automated decision, never merged into it.
type Override struct {
	ID         string    `json:"id"`
	Action     Action    `json:"action"`
	Reviewer   string    `json:"reviewer"`
	Notes      string    `json:"notes"`
	Conditions []string  `json:"conditions,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// ResolveRequest is the reviewer's submission.
type ResolveRequest struct {
	Action     Action   `json:"action"`
	Reviewer   string   `json:"reviewer"`
	Notes      string   `json:"notes"`
	Conditions []string `json:"conditions,omitempty"`
}

// Validate rejects incomplete reviewer input.
func (r *ResolveRequest) Validate() error {
	if !r.Action.Valid() {
		return ErrInvalidAction
	}
	if strings.TrimSpace(r.Reviewer) == "" {
		return ErrReviewerRequired
	}
	if strings.TrimSpace(r.Notes) == "" {
		return ErrNotesRequired
	}
	if r.Action == ActionApproveWithConditions && len(nonBlank(r.Conditions)) == 0 {
		return ErrConditionsRequired
	}
	return nil
}

// NewOverride builds the override record for a validated request.
func NewOverride(id string, req ResolveRequest, now time.Time) Override {
	return Override{
		ID:         id,
		Action:     req.Action,
		Reviewer:   strings.TrimSpace(req.Reviewer),
		Notes:      strings.TrimSpace(req.Notes),
		Conditions: nonBlank(req.Conditions),
		RecordedAt: now.UTC(),
	}
}

func nonBlank(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
