// Package assessment defines the typed outputs of the scoring stages and
// the record they are assembled into before a decision is made.
package assessment

// Stage identifies the scoring stage that produced a result.
type Stage string

const (
	StageDocuments Stage = "documents"
	StageKYC       Stage = "kyc"
	StageCredit    Stage = "credit"
	StageProducts  Stage = "products"
)

// RiskLevel is a discrete risk tier. KYC uses LOW..CRITICAL, credit uses
// LOW..VERY_HIGH.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
	RiskUnknown  RiskLevel = "UNKNOWN"
)

// KYCStatus is the verdict of the KYC/AML stage.
type KYCStatus string

const (
	KYCPassed         KYCStatus = "PASSED"
	KYCFailed         KYCStatus = "FAILED"
	KYCReviewRequired KYCStatus = "REVIEW_REQUIRED"
)

// CreditDecision is the verdict of the credit stage.
type CreditDecision string

const (
	CreditApprove            CreditDecision = "APPROVE"
	CreditConditionalApprove CreditDecision = "CONDITIONAL_APPROVE"
	CreditReject             CreditDecision = "REJECT"
)

// Check values reported by the AML sub-checks.
const (
	CheckPass    = "PASS"
	CheckFail    = "FAIL"
	CheckClear   = "CLEAR"
	CheckFlagged = "FLAGGED"
	CheckPending = "PENDING"
)

// StageResult is the output of exactly one scoring stage.
type StageResult interface {
	Stage() Stage
	// Metrics flattens the result into named values. Key names must be
	// unique across all stages.
	Metrics() map[string]any
}

// DocumentResult is produced by the document check.
type DocumentResult struct {
	Provided map[string]bool `json:"provided"`
	Missing  []string        `json:"missing_fields"`
	Complete bool            `json:"complete"`
	Status   string          `json:"status"`
	Score    int             `json:"score"`
}

func (r DocumentResult) Stage() Stage { return StageDocuments }

func (r DocumentResult) Metrics() map[string]any {
	return map[string]any{
		"documents_complete": r.Complete,
		"documents_status":   r.Status,
		"documents_score":    r.Score,
		"missing_documents":  r.Missing,
	}
}

// AMLChecks holds the individual anti-money-laundering sub-check verdicts.
type AMLChecks struct {
	IdentityVerification string `json:"identity_verification"`
	PEPScreening         string `json:"pep_screening"`
	SanctionsScreening   string `json:"sanctions_screening"`
	AdverseMedia         string `json:"adverse_media"`
	IndustryRisk         string `json:"industry_risk"`
	TransactionRisk      string `json:"transaction_risk"`
}

// KYCResult is produced by the KYC/AML check.
type KYCResult struct {
	ComplianceScore int       `json:"compliance_score"`
	Status          KYCStatus `json:"kyc_status"`
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskFactors     []string  `json:"risk_factors"`
	AML             AMLChecks `json:"aml_checks"`
	EDDRequired     bool      `json:"edd_required"`
	IndustryRisk    RiskLevel `json:"industry_risk"`
	Recommendation  string    `json:"recommendation"`
}

func (r KYCResult) Stage() Stage { return StageKYC }

func (r KYCResult) Metrics() map[string]any {
	return map[string]any{
		"compliance_score":          r.ComplianceScore,
		"kyc_status":                string(r.Status),
		"kyc_risk_level":            string(r.RiskLevel),
		"kyc_risk_factors":          r.RiskFactors,
		"aml_identity_verification": r.AML.IdentityVerification,
		"aml_pep_screening":         r.AML.PEPScreening,
		"aml_sanctions_screening":   r.AML.SanctionsScreening,
		"aml_adverse_media":         r.AML.AdverseMedia,
		"aml_industry_risk":         r.AML.IndustryRisk,
		"aml_transaction_risk":      r.AML.TransactionRisk,
		"edd_required":              r.EDDRequired,
		"kyc_recommendation":        r.Recommendation,
	}
}

// FinancialRatios are derived from the self-reported financials.
type FinancialRatios struct {
	DebtToIncome       float64 `json:"debt_to_income_ratio"`
	RevenuePerEmployee float64 `json:"revenue_per_employee"`
	DebtToRevenuePct   float64 `json:"debt_to_revenue_pct"`
}

// CreditResult is produced by the credit check.
type CreditResult struct {
	Score              int             `json:"credit_score"`
	RiskLevel          RiskLevel       `json:"risk_level"`
	Limit              float64         `json:"credit_limit"`
	InterestRate       float64         `json:"interest_rate"`
	Decision           CreditDecision  `json:"credit_decision"`
	Ratios             FinancialRatios `json:"financial_ratios"`
	RiskFactors        []string        `json:"risk_factors"`
	RevenueTier        string          `json:"revenue_tier"`
	DebtRating         string          `json:"debt_rating"`
	MaturityRating     string          `json:"maturity_rating"`
	IndustryRisk       string          `json:"industry_risk"`
	LoanProducts       []string        `json:"loan_products"`
	MonitoringRequired bool            `json:"monitoring_required"`
}

func (r CreditResult) Stage() Stage { return StageCredit }

func (r CreditResult) Metrics() map[string]any {
	return map[string]any{
		"credit_score":         r.Score,
		"credit_risk_level":    string(r.RiskLevel),
		"credit_limit":         r.Limit,
		"interest_rate":        r.InterestRate,
		"credit_decision":      string(r.Decision),
		"debt_to_income_ratio": r.Ratios.DebtToIncome,
		"revenue_per_employee": r.Ratios.RevenuePerEmployee,
		"debt_to_revenue_pct":  r.Ratios.DebtToRevenuePct,
		"credit_risk_factors":  r.RiskFactors,
		"revenue_tier":         r.RevenueTier,
		"debt_rating":          r.DebtRating,
		"maturity_rating":      r.MaturityRating,
		"credit_industry_risk": r.IndustryRisk,
		"loan_products":        r.LoanProducts,
		"monitoring_required":  r.MonitoringRequired,
	}
}

// ProductResult is produced by the product matcher.
type ProductResult struct {
	AccountType            string   `json:"account_type"`
	PricingTier            string   `json:"pricing_tier"`
	CreditTier             string   `json:"credit_tier"`
	CreditProducts         []string `json:"credit_products"`
	CreditCard             string   `json:"credit_card"`
	CardLimit              float64  `json:"card_limit"`
	AdditionalServices     []string `json:"additional_services"`
	SpecialPrograms        []string `json:"special_programs"`
	ValueProposition       string   `json:"value_proposition"`
	RecommendedCreditLimit float64  `json:"recommended_credit_limit"`
}

func (r ProductResult) Stage() Stage { return StageProducts }

func (r ProductResult) Metrics() map[string]any {
	return map[string]any{
		"account_type":             r.AccountType,
		"pricing_tier":             r.PricingTier,
		"credit_tier":              r.CreditTier,
		"credit_products":          r.CreditProducts,
		"credit_card":              r.CreditCard,
		"card_limit":               r.CardLimit,
		"additional_services":      r.AdditionalServices,
		"special_programs":         r.SpecialPrograms,
		"value_proposition":        r.ValueProposition,
		"recommended_credit_limit": r.RecommendedCreditLimit,
	}
}
