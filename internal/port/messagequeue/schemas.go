package messagequeue

import (
	"errors"
	"time"
)

// ApplicationSubmittedPayload is the schema for onboarding.application.submitted.
type ApplicationSubmittedPayload struct {
	CaseID       string    `json:"case_id"`
	BusinessName string    `json:"business_name"`
	Industry     string    `json:"industry"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// DecisionMadePayload is the schema for onboarding.decision.made.
type DecisionMadePayload struct {
	CaseID         string   `json:"case_id"`
	Outcome        string   `json:"decision"`
	Rule           string   `json:"rule"`
	Phase          string   `json:"phase"`
	RequiresReview bool     `json:"hitl_required"`
	RiskFactors    []string `json:"risk_factors"`
	Status         string   `json:"status"`
}

// ReviewPendingPayload is the schema for onboarding.review.pending.
type ReviewPendingPayload struct {
	CaseID             string `json:"case_id"`
	BusinessName       string `json:"business_name"`
	Priority           string `json:"priority"`
	RecommendedAction  string `json:"recommended_action"`
	EscalationRequired bool   `json:"escalation_required"`
}

// ReviewResolvedPayload is the schema for onboarding.review.resolved.
type ReviewResolvedPayload struct {
	CaseID       string `json:"case_id"`
	Action       string `json:"action"`
	Reviewer     string `json:"reviewer"`
	Status       string `json:"status"`
	FinalOutcome string `json:"final_outcome,omitempty"`
}

var errMissingCaseID = errors.New("case_id is required")

func (p *ApplicationSubmittedPayload) validate() error { return requireCaseID(p.CaseID) }
func (p *DecisionMadePayload) validate() error         { return requireCaseID(p.CaseID) }
func (p *ReviewPendingPayload) validate() error        { return requireCaseID(p.CaseID) }

func (p *ReviewResolvedPayload) validate() error {
	if err := requireCaseID(p.CaseID); err != nil {
		return err
	}
	if p.Action == "" {
		return errors.New("action is required")
	}
	return nil
}

func requireCaseID(id string) error {
	if id == "" {
		return errMissingCaseID
	}
	return nil
}
