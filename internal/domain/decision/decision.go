// Package decision implements the onboarding decision cascade: an ordered
// list of rules evaluated first-match-wins over an assembled assessment.
// Hard stops reject, soft triggers route to human review, strong
// applications are auto-approved, and anything left over goes to review.
package decision

// Outcome is a terminal decision state.
type Outcome string

const (
	OutcomeApprove     Outcome = "APPROVE"
	OutcomeReject      Outcome = "REJECT"
	OutcomeHumanReview Outcome = "HUMAN_REVIEW"
)

// Valid reports whether o is one of the three terminal outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeApprove, OutcomeReject, OutcomeHumanReview:
		return true
	}
	return false
}

// Confidence is a fixed mapping from outcome, not a computed value.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
)

// ConfidenceFor returns the confidence reported for an outcome.
func ConfidenceFor(o Outcome) Confidence {
	if o == OutcomeApprove || o == OutcomeReject {
		return ConfidenceHigh
	}
	return ConfidenceMedium
}

// Decision is the terminal result of evaluating the cascade. It is never
// revised; reviewer overrides are recorded separately.
type Decision struct {
	Outcome            Outcome    `json:"decision"`
	Reasoning          string     `json:"reasoning"`
	RequiresReview     bool       `json:"hitl_required"`
	RiskFactors        []string   `json:"risk_factors"`
	ApprovalConditions []string   `json:"approval_conditions"`
	Confidence         Confidence `json:"confidence"`
	Rule               string     `json:"rule"`
	Phase              Phase      `json:"phase"`
	RuleIndex          int        `json:"rule_index"`
}

// dedupe removes repeated strings, keeping the first occurrence.
func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
