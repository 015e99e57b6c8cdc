// Package event defines the CaseEvent entity: one immutable entry in a
// case's timeline.
package event

import (
	"encoding/json"
	"time"
)

// Type identifies the kind of case event.
type Type string

const (
	TypeApplicationSubmitted Type = "application.submitted"
	TypeDecisionMade         Type = "decision.made"
	TypeReviewPending        Type = "review.pending"
	TypeReviewResolved       Type = "review.resolved"
)

// CaseEvent is appended whenever a case changes state. Version is assigned
// by the store and increases by one per case, starting at 1.
type CaseEvent struct {
	ID        int64           `json:"id"`
	CaseID    string          `json:"case_id"`
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Version   int             `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

// New builds an event with payload marshalled to JSON. A payload that
// cannot be encoded is stored as null.
func New(caseID string, typ Type, payload any, requestID string, now time.Time) CaseEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	return CaseEvent{
		CaseID:    caseID,
		Type:      typ,
		Payload:   raw,
		RequestID: requestID,
		CreatedAt: now.UTC(),
	}
}
