// Package review prepares the reviewer-facing packet for applications routed
// to human review, and models the reviewer's override.
package review

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
	"github.com/Strob0t/OnboardForge/internal/domain/decision"
)

// Priority classifies how quickly a case must be reviewed.
type Priority string

const (
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityStandard Priority = "STANDARD"
)

// SLA describes the review deadline for the priority.
func (p Priority) SLA() string {
	switch p {
	case PriorityHigh:
		return "Immediate Review Required"
	case PriorityMedium:
		return "Review within 24 hours"
	}
	return "Review within 48 hours"
}

// ReviewRequiredBy names the role that must sign off on a review.
const ReviewRequiredBy = "Banking Officer or Senior Underwriter"

// Summary is the executive summary at the top of the packet.
type Summary struct {
	KYCStatus       string               `json:"kyc"`
	CreditScore     int                  `json:"credit"`
	ComplianceScore int                  `json:"compliance"`
	Documents       string               `json:"documents"`
	KYCRiskLevel    assessment.RiskLevel `json:"kyc_risk_level"`
	CreditRiskLevel assessment.RiskLevel `json:"credit_risk_level"`
	Recommendation  decision.Outcome     `json:"recommendation"`
	CreditLimit     float64              `json:"credit_limit"`
}

// Packet is a read-only projection of an assessment and its decision for
// the human reviewer.
type Packet struct {
	Summary            Summary  `json:"summary"`
	KeyConcerns        []string `json:"key_concerns"`
	Priority           Priority `json:"priority"`
	PrioritySLA        string   `json:"priority_sla"`
	RecommendedAction  Action   `json:"recommended_action"`
	Rationale          string   `json:"recommendation_rationale"`
	ReviewerNotes      string   `json:"reviewer_notes"`
	Options            []Action `json:"options"`
	SuggestedDocuments []string `json:"suggested_additional_docs"`
	ReviewRequiredBy   string   `json:"review_required_by"`
	EscalationRequired bool     `json:"escalation_required"`
}

// facts is the defaulted view of the record the packet rules read.
type facts struct {
	in         decision.Input
	documents  string
	aml        assessment.AMLChecks
	ratios     assessment.FinancialRatios
	pepFlagged bool
}

func factsFrom(rec *assessment.Record) facts {
	f := facts{
		in:        decision.FromRecord(rec),
		documents: "UNKNOWN",
		aml: assessment.AMLChecks{
			IdentityVerification: "N/A",
			PEPScreening:         "N/A",
			SanctionsScreening:   "N/A",
			AdverseMedia:         "N/A",
			IndustryRisk:         "N/A",
		},
	}
	if rec == nil {
		return f
	}
	if rec.Documents != nil {
		f.documents = rec.Documents.Status
	}
	if rec.KYC != nil {
		f.aml = rec.KYC.AML
	}
	if rec.Credit != nil {
		f.ratios = rec.Credit.Ratios
	}
	f.pepFlagged = f.in.PEPFlagged
	return f
}

func (f facts) critical() bool {
	return f.in.KYCRiskLevel == assessment.RiskCritical
}

func (f facts) highRisk() bool {
	k, c := f.in.KYCRiskLevel, f.in.CreditRiskLevel
	return k == assessment.RiskHigh || k == assessment.RiskCritical ||
		c == assessment.RiskHigh || c == assessment.RiskVeryHigh
}

func (f facts) acceptableRisk() bool {
	ok := func(l assessment.RiskLevel) bool { return l == assessment.RiskLow || l == assessment.RiskMedium }
	return ok(f.in.KYCRiskLevel) && ok(f.in.CreditRiskLevel)
}

// Prepare builds the review packet. It never fails; missing stages render
// as defaults.
func Prepare(rec *assessment.Record, d decision.Decision) Packet {
	f := factsFrom(rec)
	in := f.in

	p := Packet{
		Summary: Summary{
			KYCStatus:       in.KYCStatus,
			CreditScore:     in.CreditScore,
			ComplianceScore: in.ComplianceScore,
			Documents:       f.documents,
			KYCRiskLevel:    in.KYCRiskLevel,
			CreditRiskLevel: in.CreditRiskLevel,
			Recommendation:  d.Outcome,
			CreditLimit:     in.CreditLimit,
		},
		KeyConcerns:        keyConcerns(f, d.RiskFactors),
		Priority:           priority(f),
		Options:            slices.Clone(Actions),
		SuggestedDocuments: suggestedDocuments(f),
		ReviewRequiredBy:   ReviewRequiredBy,
		EscalationRequired: in.EDDRequired || f.critical(),
	}
	p.PrioritySLA = p.Priority.SLA()
	p.RecommendedAction, p.Rationale = recommend(f)
	p.ReviewerNotes = reviewerNotes(f, d, p.RecommendedAction, p.Rationale)
	return p
}

func keyConcerns(f facts, factors []string) []string {
	in := f.in
	concerns := []string{}
	if in.ComplianceScore < 70 {
		concerns = append(concerns, fmt.Sprintf("LOW COMPLIANCE SCORE: %d/100", in.ComplianceScore))
	}
	if in.CreditScore < 60 {
		concerns = append(concerns, fmt.Sprintf("LOW CREDIT SCORE: %d/100", in.CreditScore))
	}
	if in.EDDRequired {
		concerns = append(concerns, "ENHANCED DUE DILIGENCE REQUIRED")
	}
	if f.pepFlagged {
		concerns = append(concerns, "PEP (POLITICALLY EXPOSED PERSON) DETECTED")
	}
	if in.AdverseMedia {
		concerns = append(concerns, "ADVERSE MEDIA FOUND")
	}
	if f.highRisk() {
		concerns = append(concerns, fmt.Sprintf("HIGH RISK CLASSIFICATION: KYC %s, credit %s", in.KYCRiskLevel, in.CreditRiskLevel))
	}

	headline := strings.Join(concerns, "\n")
	for i, factor := range factors {
		if i == 5 {
			break
		}
		if strings.Contains(headline, factor) {
			continue
		}
		concerns = append(concerns, factor)
	}
	return concerns
}

func priority(f facts) Priority {
	switch {
	case f.pepFlagged || f.in.EDDRequired || f.critical():
		return PriorityHigh
	case f.in.CreditScore < 60 || f.in.ComplianceScore < 65:
		return PriorityMedium
	}
	return PriorityStandard
}

func recommend(f facts) (Action, string) {
	in := f.in
	switch {
	case in.ComplianceScore >= 70 && in.CreditScore >= 65 && f.acceptableRisk():
		return ActionApprove, "Scores meet approval thresholds. Acceptable risk profile."
	case in.ComplianceScore < 60 || in.CreditScore < 50 || f.critical():
		return ActionReject, "Significant risk factors present. Does not meet minimum standards."
	}
	return ActionRequestMoreInfo, "Additional information needed to make informed decision."
}

func suggestedDocuments(f facts) []string {
	docs := []string{}
	if f.in.CreditScore < 65 {
		docs = append(docs, "Updated Financial Statements", "Cash Flow Projections")
	}
	if f.in.EDDRequired {
		docs = append(docs, "Source of Funds Documentation", "Beneficial Ownership Information")
	}
	if f.pepFlagged {
		docs = append(docs, "PEP Risk Assessment Form", "Enhanced Background Check")
	}
	return docs
}

// ScoreRating converts a 0-100 score into a descriptive band.
func ScoreRating(score int) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 60:
		return "Fair"
	case score >= 50:
		return "Poor"
	}
	return "Very Poor"
}

func reviewerNotes(f facts, d decision.Decision, action Action, rationale string) string {
	in := f.in
	var b strings.Builder
	b.WriteString("APPLICATION REVIEW SUMMARY\n")
	b.WriteString("==========================\n\n")
	fmt.Fprintf(&b, "OVERALL ASSESSMENT:\n%s\n\n", d.Reasoning)

	b.WriteString("KEY METRICS:\n")
	fmt.Fprintf(&b, "- Credit Score: %d/100 [%s]\n", in.CreditScore, ScoreRating(in.CreditScore))
	fmt.Fprintf(&b, "- Compliance Score: %d/100 [%s]\n", in.ComplianceScore, ScoreRating(in.ComplianceScore))
	fmt.Fprintf(&b, "- KYC Risk Level: %s\n", in.KYCRiskLevel)
	fmt.Fprintf(&b, "- Credit Risk Level: %s\n", in.CreditRiskLevel)
	fmt.Fprintf(&b, "- Proposed Credit Limit: $%s\n\n", humanize.Comma(int64(in.CreditLimit)))

	b.WriteString("AML/KYC CHECKS:\n")
	fmt.Fprintf(&b, "- Identity Verification: %s\n", f.aml.IdentityVerification)
	fmt.Fprintf(&b, "- PEP Screening: %s\n", f.aml.PEPScreening)
	fmt.Fprintf(&b, "- Sanctions Screening: %s\n", f.aml.SanctionsScreening)
	fmt.Fprintf(&b, "- Adverse Media: %s\n", f.aml.AdverseMedia)
	fmt.Fprintf(&b, "- Industry Risk: %s\n\n", f.aml.IndustryRisk)

	b.WriteString("FINANCIAL ANALYSIS:\n")
	fmt.Fprintf(&b, "- Debt-to-Income: %.3f\n", f.ratios.DebtToIncome)
	fmt.Fprintf(&b, "- Revenue/Employee: $%s\n\n", humanize.Comma(int64(f.ratios.RevenuePerEmployee)))

	b.WriteString("RISK FACTORS:\n")
	if len(d.RiskFactors) == 0 {
		b.WriteString("- None identified\n")
	}
	for _, rf := range d.RiskFactors {
		fmt.Fprintf(&b, "- %s\n", rf)
	}

	fmt.Fprintf(&b, "\nSUGGESTED ACTION: %s\nRationale: %s\n", action, rationale)
	return b.String()
}
