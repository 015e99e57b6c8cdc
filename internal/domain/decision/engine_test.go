package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
)

func newEngine(t *testing.T, extra ...Rule) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultThresholds(), extra...)
	require.NoError(t, err)
	return e
}

// passing returns an input that clears every hard stop and soft trigger.
func passing() Input {
	return Input{
		CreditScore:       80,
		ComplianceScore:   85,
		DocumentsComplete: true,
		KYCStatus:         string(assessment.KYCPassed),
		KYCRiskLevel:      assessment.RiskLow,
		CreditRiskLevel:   assessment.RiskLow,
		CreditDecision:    assessment.CreditApprove,
		CreditLimit:       100_000,
	}
}

func TestEvaluateComplianceFloorRejects(t *testing.T) {
	in := passing()
	in.ComplianceScore = 45

	d := newEngine(t).Evaluate(in)
	assert.Equal(t, OutcomeReject, d.Outcome)
	assert.Equal(t, "compliance_below_floor", d.Rule)
	assert.Contains(t, d.Reasoning, "45/100 < 50/100")
	assert.Equal(t, ConfidenceHigh, d.Confidence)
	assert.False(t, d.RequiresReview)
}

func TestEvaluateAutoApprove(t *testing.T) {
	d := newEngine(t).Evaluate(passing())
	assert.Equal(t, OutcomeApprove, d.Outcome)
	assert.Equal(t, []string{"Standard account monitoring", "Annual financial review"}, d.ApprovalConditions)
	assert.Equal(t, ConfidenceHigh, d.Confidence)
	assert.Contains(t, d.Reasoning, "Credit: 80/100, Compliance: 85/100, Risk: LOW")
}

func TestEvaluateBorderlineScores(t *testing.T) {
	in := passing()
	in.ComplianceScore = 72
	in.CreditScore = 65

	d := newEngine(t).Evaluate(in)
	assert.Equal(t, OutcomeHumanReview, d.Outcome)
	assert.Equal(t, "borderline_scores", d.Rule)
	assert.Contains(t, d.Reasoning, "Borderline")
	assert.Contains(t, d.RiskFactors, "Scores in manual review threshold range")
	assert.True(t, d.RequiresReview)
	assert.Equal(t, ConfidenceMedium, d.Confidence)
}

func TestEvaluatePEPBeforeAutoApprove(t *testing.T) {
	in := passing()
	in.PEPFlagged = true

	d := newEngine(t).Evaluate(in)
	assert.Equal(t, OutcomeHumanReview, d.Outcome)
	assert.Equal(t, "pep_flagged", d.Rule)
}

func TestHardStopBeatsSoftTrigger(t *testing.T) {
	in := passing()
	in.EDDRequired = true
	in.PEPFlagged = true
	in.SanctionsFlagged = true

	d := newEngine(t).Evaluate(in)
	assert.Equal(t, OutcomeReject, d.Outcome)
	assert.Equal(t, "sanctions_match", d.Rule)
	assert.Contains(t, d.RiskFactors, "OFAC/Sanctions hit - account opening prohibited by law")
}

func TestEvaluateRuleTable(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Input)
		rule    string
		outcome Outcome
	}{
		{"kyc failed", func(in *Input) { in.KYCStatus = "FAILED" }, "kyc_failed", OutcomeReject},
		{"documents", func(in *Input) { in.DocumentsComplete = false }, "documents_incomplete", OutcomeReject},
		{"credit floor", func(in *Input) { in.CreditScore = 44 }, "credit_below_floor", OutcomeReject},
		{"credit at floor", func(in *Input) { in.CreditScore = 45 }, "manual_assessment", OutcomeHumanReview},
		{"edd", func(in *Input) { in.EDDRequired = true }, "edd_required", OutcomeHumanReview},
		{"borderline credit upper", func(in *Input) { in.CreditScore = 70 }, "borderline_scores", OutcomeHumanReview},
		{"kyc high", func(in *Input) { in.KYCRiskLevel = assessment.RiskHigh }, "high_risk_level", OutcomeHumanReview},
		{"credit very high", func(in *Input) { in.CreditRiskLevel = assessment.RiskVeryHigh }, "high_risk_level", OutcomeHumanReview},
		{"adverse media", func(in *Input) { in.AdverseMedia = true }, "adverse_media", OutcomeHumanReview},
		{"industry", func(in *Input) { in.HighRiskIndustry = true }, "high_risk_industry", OutcomeHumanReview},
		{"limit at ceiling", func(in *Input) { in.CreditLimit = 5_000_000 }, "auto_approve", OutcomeApprove},
		{"limit above ceiling", func(in *Input) { in.CreditLimit = 6_000_000 }, "large_credit_limit", OutcomeHumanReview},
		{"conditional", func(in *Input) { in.CreditDecision = assessment.CreditConditionalApprove }, "conditional_credit", OutcomeHumanReview},
		{"kyc medium", func(in *Input) { in.KYCRiskLevel = assessment.RiskMedium }, "manual_assessment", OutcomeHumanReview},
		{"compliance just below approve", func(in *Input) { in.ComplianceScore = 79 }, "manual_assessment", OutcomeHumanReview},
	}
	e := newEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := passing()
			tt.modify(&in)
			d := e.Evaluate(in)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.outcome, d.Outcome)
		})
	}
}

func TestEvaluateLargeLimitReason(t *testing.T) {
	in := passing()
	in.CreditLimit = 6_000_000

	d := newEngine(t).Evaluate(in)
	assert.Contains(t, d.Reasoning, "$6,000,000")
}

func TestEvaluateIndustryConditions(t *testing.T) {
	in := passing()
	in.HighRiskIndustry = true

	d := newEngine(t).Evaluate(in)
	assert.Equal(t, []string{"Enhanced transaction monitoring", "Quarterly account review"}, d.ApprovalConditions)
}

func TestEvaluateDefaultAddsFactor(t *testing.T) {
	in := passing()
	in.KYCRiskLevel = assessment.RiskMedium

	d := newEngine(t).Evaluate(in)
	assert.Equal(t, PhaseDefault, d.Phase)
	assert.Contains(t, d.RiskFactors, "Does not meet auto-approval criteria")
}

func TestEvaluateDeduplicatesRiskFactors(t *testing.T) {
	in := passing()
	in.EDDRequired = true
	in.RiskFactors = []string{"b", "a", "b", "EDD requirement triggered"}

	d := newEngine(t).Evaluate(in)
	assert.Equal(t, []string{"b", "a", "EDD requirement triggered"}, d.RiskFactors)
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	factors := make([]string, 1, 10)
	factors[0] = "x"
	in := passing()
	in.EDDRequired = true
	in.RiskFactors = factors

	newEngine(t).Evaluate(in)
	assert.Equal(t, []string{"x"}, in.RiskFactors)
	assert.Equal(t, "", factors[:2][1])
}

func TestEvaluateAlwaysTerminates(t *testing.T) {
	e := newEngine(t)
	scores := []int{0, 44, 45, 50, 60, 70, 75, 80, 100}
	levels := []assessment.RiskLevel{assessment.RiskLow, assessment.RiskMedium, assessment.RiskHigh, assessment.RiskCritical, assessment.RiskVeryHigh, assessment.RiskUnknown}
	statuses := []string{"PASSED", "FAILED", "REVIEW_REQUIRED", "UNKNOWN"}

	for _, credit := range scores {
		for _, compliance := range scores {
			for _, level := range levels {
				for _, status := range statuses {
					for _, flag := range []bool{true, false} {
						in := Input{
							CreditScore:       credit,
							ComplianceScore:   compliance,
							DocumentsComplete: flag,
							KYCStatus:         status,
							KYCRiskLevel:      level,
							CreditRiskLevel:   level,
							PEPFlagged:        !flag,
						}
						d := e.Evaluate(in)
						require.True(t, d.Outcome.Valid())
						require.GreaterOrEqual(t, d.RuleIndex, 0)
						require.Equal(t, d.Outcome == OutcomeHumanReview, d.RequiresReview)
					}
				}
			}
		}
	}
}

func TestFromRecordDefaults(t *testing.T) {
	in := FromRecord(nil)
	assert.Equal(t, 0, in.CreditScore)
	assert.Equal(t, "UNKNOWN", in.KYCStatus)
	assert.Equal(t, assessment.RiskUnknown, in.KYCRiskLevel)
	assert.Equal(t, assessment.RiskUnknown, in.CreditRiskLevel)

	d := newEngine(t).Evaluate(in)
	assert.Equal(t, OutcomeReject, d.Outcome)
	assert.Equal(t, "documents_incomplete", d.Rule)
}

func TestFromRecordKeepsRiskLevelsDistinct(t *testing.T) {
	rec, err := assessment.Assemble(
		assessment.DocumentResult{Complete: true},
		assessment.KYCResult{ComplianceScore: 90, Status: assessment.KYCPassed, RiskLevel: assessment.RiskLow, RiskFactors: []string{"k"}},
		assessment.CreditResult{Score: 55, RiskLevel: assessment.RiskHigh, RiskFactors: []string{"c"}},
	)
	require.NoError(t, err)

	in := FromRecord(rec)
	assert.Equal(t, assessment.RiskLow, in.KYCRiskLevel)
	assert.Equal(t, assessment.RiskHigh, in.CreditRiskLevel)
	assert.Equal(t, []string{"k", "c"}, in.RiskFactors)
	assert.Equal(t, FromMetrics(rec.Metrics), in)
}

func TestFromMetricsTolerantOfTypes(t *testing.T) {
	in := FromMetrics(map[string]any{
		"credit_score":       float64(72),
		"compliance_score":   int64(65),
		"documents_complete": true,
		"kyc_risk_factors":   []any{"a", 3, "b"},
		"credit_limit":       250000,
	})
	assert.Equal(t, 72, in.CreditScore)
	assert.Equal(t, 65, in.ComplianceScore)
	assert.Equal(t, []string{"a", "b"}, in.RiskFactors)
	assert.Equal(t, 250000.0, in.CreditLimit)
	assert.Equal(t, "UNKNOWN", in.KYCStatus)
}

func TestNewEngineExtraRulesOrder(t *testing.T) {
	extra := Rule{
		Name:  "shell_company",
		Phase: PhaseHardStop,
		When:  func(in Input) bool { return in.CreditLimit == 42 },
		Reason: func(Input) string {
			return "shell"
		},
	}
	e := newEngine(t, extra)

	rules := e.Rules()
	idx := -1
	for _, r := range rules {
		if r.Name == "shell_company" {
			idx = r.Index
		}
	}
	assert.Equal(t, 5, idx)
	assert.Equal(t, "manual_assessment", rules[len(rules)-1].Name)

	in := passing()
	in.CreditLimit = 42
	in.EDDRequired = true
	assert.Equal(t, "shell_company", e.Evaluate(in).Rule)

	in.SanctionsFlagged = true
	assert.Equal(t, "sanctions_match", e.Evaluate(in).Rule)
}

func TestNewEngineRejectsBadRules(t *testing.T) {
	when := func(Input) bool { return false }
	reason := func(Input) string { return "" }

	_, err := NewEngine(DefaultThresholds(), Rule{Name: "x", Phase: PhaseAutoApprove, When: when, Reason: reason})
	assert.ErrorContains(t, err, "extra rules must be")

	_, err = NewEngine(DefaultThresholds(), Rule{Name: "pep_flagged", Phase: PhaseSoftTrigger, When: when, Reason: reason})
	assert.ErrorContains(t, err, "duplicate rule name")

	_, err = NewEngine(DefaultThresholds(), Rule{Name: "y", Phase: PhaseSoftTrigger, Reason: reason})
	assert.ErrorContains(t, err, "predicate is required")
}

func TestThresholdsValidate(t *testing.T) {
	th := DefaultThresholds()
	require.NoError(t, th.Validate())

	th.RejectCredit = 90
	assert.ErrorContains(t, th.Validate(), "reject_credit")

	th = DefaultThresholds()
	th.BorderlineComplianceMin = 80
	assert.ErrorContains(t, th.Validate(), "inverted")

	th = DefaultThresholds()
	th.ApproveCompliance = 120
	assert.ErrorContains(t, th.Validate(), "within [0,100]")
}
