package decision

import (
	"fmt"
	"slices"
)

// Engine evaluates the rule cascade. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	rules []Rule
}

// NewEngine builds the cascade from the built-in rules and optional extra
// rules. Extra hard stops run after the built-in hard stops and extra soft
// triggers after the built-in soft triggers; the auto-approve and default
// rules always close the cascade.
func NewEngine(t Thresholds, extra ...Rule) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var extraHard, extraSoft []Rule
	for _, r := range extra {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		switch r.Phase {
		case PhaseHardStop:
			extraHard = append(extraHard, r)
		case PhaseSoftTrigger:
			extraSoft = append(extraSoft, r)
		default:
			return nil, fmt.Errorf("rule %s: extra rules must be %s or %s", r.Name, PhaseHardStop, PhaseSoftTrigger)
		}
	}

	rules := slices.Concat(hardStops(t), extraHard, softTriggers(t), extraSoft, []Rule{autoApprove(t), manualAssessment()})
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("rule %s: duplicate rule name", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return &Engine{rules: rules}, nil
}

// Evaluate runs the cascade; the first rule whose predicate holds decides.
// The final catch-all rule guarantees a terminal outcome.
func (e *Engine) Evaluate(in Input) Decision {
	for i, r := range e.rules {
		if !r.When(in) {
			continue
		}
		factors := slices.Clone(in.RiskFactors)
		if r.RiskFactor != nil {
			factors = append(factors, r.RiskFactor(in))
		}
		outcome := r.Outcome()
		conditions := []string{}
		if outcome != OutcomeReject {
			conditions = append(conditions, r.Conditions...)
		}
		return Decision{
			Outcome:            outcome,
			Reasoning:          r.Reason(in),
			RequiresReview:     outcome == OutcomeHumanReview,
			RiskFactors:        dedupe(factors),
			ApprovalConditions: conditions,
			Confidence:         ConfidenceFor(outcome),
			Rule:               r.Name,
			Phase:              r.Phase,
			RuleIndex:          i,
		}
	}
	// Unreachable while the catch-all rule closes the cascade.
	return Decision{
		Outcome:            OutcomeHumanReview,
		Reasoning:          "No rule matched.",
		RequiresReview:     true,
		RiskFactors:        dedupe(in.RiskFactors),
		ApprovalConditions: []string{},
		Confidence:         ConfidenceMedium,
		RuleIndex:          -1,
	}
}

// RuleInfo describes one rule for display.
type RuleInfo struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	Phase       Phase    `json:"phase"`
	Outcome     Outcome  `json:"outcome"`
	Description string   `json:"description"`
	Conditions  []string `json:"conditions,omitempty"`
}

// Rules lists the cascade in evaluation order.
func (e *Engine) Rules() []RuleInfo {
	out := make([]RuleInfo, len(e.rules))
	for i, r := range e.rules {
		out[i] = RuleInfo{
			Index:       i,
			Name:        r.Name,
			Phase:       r.Phase,
			Outcome:     r.Outcome(),
			Description: r.Description,
			Conditions:  r.Conditions,
		}
	}
	return out
}
