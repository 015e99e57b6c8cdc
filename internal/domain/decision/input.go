package decision

import (
	"slices"

	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
)

// Input is the view of an assessment the rules evaluate. Missing stages
// default to 0 / false / "UNKNOWN"; building an Input never fails.
type Input struct {
	CreditScore       int                       `json:"credit_score"`
	ComplianceScore   int                       `json:"compliance_score"`
	DocumentsComplete bool                      `json:"documents_complete"`
	MissingDocuments  []string                  `json:"missing_documents"`
	KYCStatus         string                    `json:"kyc_status"`
	KYCRiskLevel      assessment.RiskLevel      `json:"kyc_risk_level"`
	CreditRiskLevel   assessment.RiskLevel      `json:"credit_risk_level"`
	SanctionsFlagged  bool                      `json:"sanctions_flagged"`
	PEPFlagged        bool                      `json:"pep_flagged"`
	AdverseMedia      bool                      `json:"adverse_media"`
	HighRiskIndustry  bool                      `json:"high_risk_industry"`
	EDDRequired       bool                      `json:"edd_required"`
	CreditDecision    assessment.CreditDecision `json:"credit_decision"`
	CreditLimit       float64                   `json:"credit_limit"`
	RiskFactors       []string                  `json:"risk_factors"`
}

// FromRecord projects an assembled record onto the rule input.
func FromRecord(rec *assessment.Record) Input {
	in := Input{
		KYCStatus:       string(assessment.RiskUnknown),
		KYCRiskLevel:    assessment.RiskUnknown,
		CreditRiskLevel: assessment.RiskUnknown,
	}
	if rec == nil {
		return in
	}
	if d := rec.Documents; d != nil {
		in.DocumentsComplete = d.Complete
		in.MissingDocuments = d.Missing
	}
	if k := rec.KYC; k != nil {
		in.ComplianceScore = k.ComplianceScore
		in.KYCStatus = orUnknown(string(k.Status))
		in.KYCRiskLevel = assessment.RiskLevel(orUnknown(string(k.RiskLevel)))
		in.SanctionsFlagged = k.AML.SanctionsScreening == assessment.CheckFlagged
		in.PEPFlagged = k.AML.PEPScreening == assessment.CheckFlagged
		in.AdverseMedia = k.AML.AdverseMedia == assessment.CheckFlagged
		in.HighRiskIndustry = k.AML.IndustryRisk == string(assessment.RiskHigh)
		in.EDDRequired = k.EDDRequired
	}
	if c := rec.Credit; c != nil {
		in.CreditScore = c.Score
		in.CreditRiskLevel = assessment.RiskLevel(orUnknown(string(c.RiskLevel)))
		in.CreditDecision = c.Decision
		in.CreditLimit = c.Limit
	}
	in.RiskFactors = rec.RiskFactors()
	return in
}

// FromMetrics builds an Input from a flat metric map as produced by
// assessment.Record.Metrics. Absent or mistyped keys take their defaults.
func FromMetrics(m map[string]any) Input {
	return Input{
		CreditScore:       intOf(m["credit_score"]),
		ComplianceScore:   intOf(m["compliance_score"]),
		DocumentsComplete: boolOf(m["documents_complete"]),
		MissingDocuments:  stringsOf(m["missing_documents"]),
		KYCStatus:         orUnknown(stringOf(m["kyc_status"])),
		KYCRiskLevel:      assessment.RiskLevel(orUnknown(stringOf(m["kyc_risk_level"]))),
		CreditRiskLevel:   assessment.RiskLevel(orUnknown(stringOf(m["credit_risk_level"]))),
		SanctionsFlagged:  stringOf(m["aml_sanctions_screening"]) == assessment.CheckFlagged,
		PEPFlagged:        stringOf(m["aml_pep_screening"]) == assessment.CheckFlagged,
		AdverseMedia:      stringOf(m["aml_adverse_media"]) == assessment.CheckFlagged,
		HighRiskIndustry:  stringOf(m["aml_industry_risk"]) == string(assessment.RiskHigh),
		EDDRequired:       boolOf(m["edd_required"]),
		CreditDecision:    assessment.CreditDecision(stringOf(m["credit_decision"])),
		CreditLimit:       floatOf(m["credit_limit"]),
		RiskFactors:       slices.Concat(stringsOf(m["kyc_risk_factors"]), stringsOf(m["credit_risk_factors"])),
	}
}

// Vars exposes the input to rule expressions under snake_case names.
func (in Input) Vars() map[string]any {
	return map[string]any{
		"credit_score":       int64(in.CreditScore),
		"compliance_score":   int64(in.ComplianceScore),
		"documents_complete": in.DocumentsComplete,
		"missing_documents":  nonNil(in.MissingDocuments),
		"kyc_status":         in.KYCStatus,
		"kyc_risk_level":     string(in.KYCRiskLevel),
		"credit_risk_level":  string(in.CreditRiskLevel),
		"sanctions_flagged":  in.SanctionsFlagged,
		"pep_flagged":        in.PEPFlagged,
		"adverse_media":      in.AdverseMedia,
		"high_risk_industry": in.HighRiskIndustry,
		"edd_required":       in.EDDRequired,
		"credit_decision":    string(in.CreditDecision),
		"credit_limit":       in.CreditLimit,
		"risk_factors":       nonNil(in.RiskFactors),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return string(assessment.RiskUnknown)
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func intOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func floatOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func boolOf(v any) bool {
	b, _ := v.(bool)
	return b
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}

func stringsOf(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
