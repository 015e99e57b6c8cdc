package decision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
)

// Phase groups rules; phases are evaluated in declaration order.
type Phase string

const (
	PhaseHardStop    Phase = "hard_stop"
	PhaseSoftTrigger Phase = "soft_trigger"
	PhaseAutoApprove Phase = "auto_approve"
	PhaseDefault     Phase = "default"
)

// OutcomeFor returns the outcome produced by rules in phase p.
func (p Phase) OutcomeFor() Outcome {
	switch p {
	case PhaseHardStop:
		return OutcomeReject
	case PhaseAutoApprove:
		return OutcomeApprove
	}
	return OutcomeHumanReview
}

// Rule is one (predicate, outcome) entry in the cascade.
type Rule struct {
	Name        string
	Phase       Phase
	Description string
	When        func(Input) bool
	// Reason renders the reasoning string from the values that fired the rule.
	Reason func(Input) string
	// RiskFactor, when set, adds a factor to the decision.
	RiskFactor func(Input) string
	Conditions []string
}

// Outcome is the terminal state this rule produces.
func (r Rule) Outcome() Outcome { return r.Phase.OutcomeFor() }

// Validate checks that a rule can be placed in the cascade.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("rule name is required")
	}
	switch r.Phase {
	case PhaseHardStop, PhaseSoftTrigger, PhaseAutoApprove, PhaseDefault:
	default:
		return fmt.Errorf("rule %s: invalid phase %q", r.Name, r.Phase)
	}
	if r.When == nil {
		return fmt.Errorf("rule %s: predicate is required", r.Name)
	}
	if r.Reason == nil {
		return fmt.Errorf("rule %s: reason is required", r.Name)
	}
	return nil
}

// Thresholds are the numeric guards used by the built-in rules.
type Thresholds struct {
	ApproveCredit           int
	ApproveCompliance       int
	RejectCredit            int
	RejectCompliance        int
	BorderlineCreditMin     int
	BorderlineCreditMax     int
	BorderlineComplianceMin int
	BorderlineComplianceMax int
	AutoApproveLimit        float64
}

// DefaultThresholds returns the standard underwriting thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ApproveCredit:           75,
		ApproveCompliance:       80,
		RejectCredit:            45,
		RejectCompliance:        50,
		BorderlineCreditMin:     50,
		BorderlineCreditMax:     70,
		BorderlineComplianceMin: 60,
		BorderlineComplianceMax: 75,
		AutoApproveLimit:        5_000_000,
	}
}

// Validate checks that the thresholds are ordered consistently.
func (t Thresholds) Validate() error {
	for name, v := range map[string]int{
		"approve_credit":            t.ApproveCredit,
		"approve_compliance":        t.ApproveCompliance,
		"reject_credit":             t.RejectCredit,
		"reject_compliance":         t.RejectCompliance,
		"borderline_credit_min":     t.BorderlineCreditMin,
		"borderline_credit_max":     t.BorderlineCreditMax,
		"borderline_compliance_min": t.BorderlineComplianceMin,
		"borderline_compliance_max": t.BorderlineComplianceMax,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("thresholds: %s must be within [0,100], got %d", name, v)
		}
	}
	if t.RejectCredit > t.ApproveCredit {
		return fmt.Errorf("thresholds: reject_credit (%d) above approve_credit (%d)", t.RejectCredit, t.ApproveCredit)
	}
	if t.RejectCompliance > t.ApproveCompliance {
		return fmt.Errorf("thresholds: reject_compliance (%d) above approve_compliance (%d)", t.RejectCompliance, t.ApproveCompliance)
	}
	if t.BorderlineCreditMin > t.BorderlineCreditMax {
		return errors.New("thresholds: borderline credit band is inverted")
	}
	if t.BorderlineComplianceMin > t.BorderlineComplianceMax {
		return errors.New("thresholds: borderline compliance band is inverted")
	}
	if t.AutoApproveLimit <= 0 {
		return errors.New("thresholds: auto_approve_limit must be positive")
	}
	return nil
}

func fixed(s string) func(Input) string {
	return func(Input) string { return s }
}

func isHigh(l assessment.RiskLevel) bool {
	return l == assessment.RiskHigh || l == assessment.RiskCritical || l == assessment.RiskVeryHigh
}

func money(v float64) string {
	return "$" + humanize.Comma(int64(v))
}

// hardStops reject outright. Order matters: regulatory prohibitions first.
func hardStops(t Thresholds) []Rule {
	return []Rule{
		{
			Name:        "sanctions_match",
			Phase:       PhaseHardStop,
			Description: "Sanctions/OFAC screening flagged",
			When:        func(in Input) bool { return in.SanctionsFlagged },
			Reason:      fixed("CRITICAL: Sanctions/OFAC list match detected. Regulatory prohibition."),
			RiskFactor:  fixed("OFAC/Sanctions hit - account opening prohibited by law"),
		},
		{
			Name:        "kyc_failed",
			Phase:       PhaseHardStop,
			Description: "KYC/AML status is FAILED",
			When:        func(in Input) bool { return in.KYCStatus == string(assessment.KYCFailed) },
			Reason: func(in Input) string {
				return fmt.Sprintf("KYC/AML compliance check failed (Score: %d/100). Unable to verify customer identity.", in.ComplianceScore)
			},
		},
		{
			Name:        "documents_incomplete",
			Phase:       PhaseHardStop,
			Description: "Required documents are missing",
			When:        func(in Input) bool { return !in.DocumentsComplete },
			Reason:      fixed("Critical documentation incomplete. Cannot proceed without required documents."),
			RiskFactor: func(in Input) string {
				if len(in.MissingDocuments) == 0 {
					return "Missing critical documents: not provided"
				}
				return "Missing critical documents: " + strings.Join(in.MissingDocuments, ", ")
			},
		},
		{
			Name:        "compliance_below_floor",
			Phase:       PhaseHardStop,
			Description: fmt.Sprintf("Compliance score below %d", t.RejectCompliance),
			When:        func(in Input) bool { return in.ComplianceScore < t.RejectCompliance },
			Reason: func(in Input) string {
				return fmt.Sprintf("Compliance score below minimum threshold (%d/100 < %d/100)", in.ComplianceScore, t.RejectCompliance)
			},
		},
		{
			Name:        "credit_below_floor",
			Phase:       PhaseHardStop,
			Description: fmt.Sprintf("Credit score below %d", t.RejectCredit),
			When:        func(in Input) bool { return in.CreditScore < t.RejectCredit },
			Reason: func(in Input) string {
				return fmt.Sprintf("Credit score below minimum threshold (%d/100 < %d/100). High default risk.", in.CreditScore, t.RejectCredit)
			},
		},
	}
}

// softTriggers route to a human reviewer.
func softTriggers(t Thresholds) []Rule {
	return []Rule{
		{
			Name:        "edd_required",
			Phase:       PhaseSoftTrigger,
			Description: "Enhanced due diligence required",
			When:        func(in Input) bool { return in.EDDRequired },
			Reason:      fixed("Enhanced Due Diligence (EDD) required due to risk profile. Manual review mandatory."),
			RiskFactor:  fixed("EDD requirement triggered"),
		},
		{
			Name:  "borderline_scores",
			Phase: PhaseSoftTrigger,
			Description: fmt.Sprintf("Credit in [%d,%d] or compliance in [%d,%d]",
				t.BorderlineCreditMin, t.BorderlineCreditMax, t.BorderlineComplianceMin, t.BorderlineComplianceMax),
			When: func(in Input) bool {
				return (in.CreditScore >= t.BorderlineCreditMin && in.CreditScore <= t.BorderlineCreditMax) ||
					(in.ComplianceScore >= t.BorderlineComplianceMin && in.ComplianceScore <= t.BorderlineComplianceMax)
			},
			Reason: func(in Input) string {
				return fmt.Sprintf("Borderline risk scores require manual review. Credit: %d/100, Compliance: %d/100", in.CreditScore, in.ComplianceScore)
			},
			RiskFactor: fixed("Scores in manual review threshold range"),
		},
		{
			Name:        "high_risk_level",
			Phase:       PhaseSoftTrigger,
			Description: "KYC risk HIGH/CRITICAL or credit risk HIGH/VERY_HIGH",
			When:        func(in Input) bool { return isHigh(in.KYCRiskLevel) || isHigh(in.CreditRiskLevel) },
			Reason: func(in Input) string {
				return fmt.Sprintf("High risk classification requires senior review. KYC Risk: %s, Credit Risk: %s", in.KYCRiskLevel, in.CreditRiskLevel)
			},
			RiskFactor: fixed("High risk classification from risk assessment"),
		},
		{
			Name:        "pep_flagged",
			Phase:       PhaseSoftTrigger,
			Description: "Politically exposed person flagged",
			When:        func(in Input) bool { return in.PEPFlagged },
			Reason:      fixed("Politically Exposed Person (PEP) detected. Enhanced scrutiny required per BSA/AML guidelines."),
			RiskFactor:  fixed("PEP status requires enhanced due diligence"),
		},
		{
			Name:        "adverse_media",
			Phase:       PhaseSoftTrigger,
			Description: "Adverse media found",
			When:        func(in Input) bool { return in.AdverseMedia },
			Reason:      fixed("Negative news/adverse media found. Reputation risk assessment required."),
			RiskFactor:  fixed("Adverse media requires investigation"),
		},
		{
			Name:        "high_risk_industry",
			Phase:       PhaseSoftTrigger,
			Description: "High-risk industry classification",
			When:        func(in Input) bool { return in.HighRiskIndustry },
			Reason:      fixed("High-risk industry classification. Enhanced monitoring protocols required."),
			Conditions:  []string{"Enhanced transaction monitoring", "Quarterly account review"},
		},
		{
			Name:        "large_credit_limit",
			Phase:       PhaseSoftTrigger,
			Description: "Credit limit above " + money(t.AutoApproveLimit),
			When:        func(in Input) bool { return in.CreditLimit > t.AutoApproveLimit },
			Reason: func(in Input) string {
				return fmt.Sprintf("Credit limit exceeds auto-approval authority (%s). Senior approval required.", money(in.CreditLimit))
			},
		},
		{
			Name:        "conditional_credit",
			Phase:       PhaseSoftTrigger,
			Description: "Credit assessment approved conditionally",
			When:        func(in Input) bool { return in.CreditDecision == assessment.CreditConditionalApprove },
			Reason:      fixed("Credit assessment returned conditional approval. Review of conditions required."),
			Conditions:  []string{"Credit monitoring required"},
		},
	}
}

func autoApprove(t Thresholds) Rule {
	return Rule{
		Name:  "auto_approve",
		Phase: PhaseAutoApprove,
		Description: fmt.Sprintf("Credit >= %d, compliance >= %d and KYC risk LOW",
			t.ApproveCredit, t.ApproveCompliance),
		When: func(in Input) bool {
			return in.CreditScore >= t.ApproveCredit &&
				in.ComplianceScore >= t.ApproveCompliance &&
				in.KYCRiskLevel == assessment.RiskLow
		},
		Reason: func(in Input) string {
			return fmt.Sprintf("Strong application metrics exceed auto-approval thresholds. Credit: %d/100, Compliance: %d/100, Risk: %s",
				in.CreditScore, in.ComplianceScore, in.KYCRiskLevel)
		},
		Conditions: []string{"Standard account monitoring", "Annual financial review"},
	}
}

func manualAssessment() Rule {
	return Rule{
		Name:        "manual_assessment",
		Phase:       PhaseDefault,
		Description: "Anything not matched above",
		When:        func(Input) bool { return true },
		Reason: func(in Input) string {
			return fmt.Sprintf("Application requires manual assessment. Credit: %d/100, Compliance: %d/100", in.CreditScore, in.ComplianceScore)
		},
		RiskFactor: fixed("Does not meet auto-approval criteria"),
	}
}
