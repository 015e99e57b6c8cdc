package scoring

import (
	"fmt"

	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
)

// Industry risk tables used by the KYC/AML stage.
var (
	kycHighRiskIndustries   = []string{"crypto", "gambling", "cannabis", "money services", "jewelry"}
	kycMediumRiskIndustries = []string{"real estate", "construction", "import/export"}
	kycLowRiskIndustries    = []string{"saas", "healthcare", "education", "consulting"}
)

const (
	largeTransactionThreshold = 50_000
	highVolumeThreshold       = 500
)

// EDDRiskFactor is appended whenever enhanced due diligence is required.
const EDDRiskFactor = "Enhanced Due Diligence (EDD) required"

// AssessKYC scores identity verification, screening results, industry and
// transaction profile into a compliance score. A sanctions match forces the
// score to 0 and the status to FAILED.
func AssessKYC(app *application.Application) assessment.KYCResult {
	id := app.Identity
	score := 0
	factors := []string{}

	if id.IDVerified {
		score += 30
	} else {
		factors = append(factors, "Identity verification incomplete")
	}

	switch id.PEPCheck {
	case application.ScreeningClear:
		score += 15
	case application.ScreeningFlagged:
		score -= 20
		factors = append(factors, "PEP (Politically Exposed Person) flagged")
	}

	sanctioned := id.SanctionsCheck == application.ScreeningFlagged
	switch {
	case id.SanctionsCheck == application.ScreeningClear:
		score += 10
	case sanctioned:
		factors = append(factors, "OFAC/Sanctions list match - CRITICAL")
	}

	if !id.AdverseMedia {
		score += 10
	} else {
		factors = append(factors, "Negative news/adverse media found")
	}

	switch n := app.Documents.Count(); {
	case n >= 4:
		score += 15
	case n == 3:
		score += 10
	case n == 2:
		score += 5
	default:
		factors = append(factors, "Insufficient documentation for identity verification")
	}

	industry := app.IndustryKey()
	var industryRisk assessment.RiskLevel
	switch {
	case oneOf(industry, kycHighRiskIndustries):
		score -= 30
		factors = append(factors, fmt.Sprintf("High-risk industry: %s", industry))
		industryRisk = assessment.RiskHigh
	case oneOf(industry, kycMediumRiskIndustries):
		score -= 10
		factors = append(factors, fmt.Sprintf("Medium-risk industry: %s", industry))
		industryRisk = assessment.RiskMedium
	case oneOf(industry, kycLowRiskIndustries):
		score += 20
		industryRisk = assessment.RiskLow
	default:
		score += 10
		industryRisk = assessment.RiskMedium
	}

	p := app.Profile
	if p.AvgTransaction > largeTransactionThreshold {
		score -= 5
		factors = append(factors, "Large average transaction size - enhanced monitoring required")
	}
	if p.MonthlyVolume > highVolumeThreshold {
		score -= 5
		factors = append(factors, "High transaction volume - requires enhanced due diligence")
	}
	if p.International {
		score -= 5
		factors = append(factors, "International transactions - additional scrutiny required")
	}
	if p.HighRiskCountries {
		score -= 25
		factors = append(factors, "Transactions with high-risk jurisdictions - CRITICAL")
	}

	switch app.Age() {
	case application.AgeFivePlusYears:
		score += 10
	case application.AgeThreeToFiveYears:
		score += 5
	case application.AgeUnderOneYear:
		score -= 5
		factors = append(factors, "New business - limited operating history")
	}

	score = clamp(score)
	if sanctioned {
		score = 0
	}

	risk := kycRiskLevel(score)

	var status assessment.KYCStatus
	switch {
	case sanctioned:
		status = assessment.KYCFailed
	case score >= 70 && (risk == assessment.RiskLow || risk == assessment.RiskMedium):
		status = assessment.KYCPassed
	case score >= 50:
		status = assessment.KYCReviewRequired
	default:
		status = assessment.KYCFailed
	}

	edd := risk == assessment.RiskHigh || risk == assessment.RiskCritical || status == assessment.KYCReviewRequired
	if edd {
		factors = append(factors, EDDRiskFactor)
	}

	return assessment.KYCResult{
		ComplianceScore: score,
		Status:          status,
		RiskLevel:       risk,
		RiskFactors:     factors,
		AML: assessment.AMLChecks{
			IdentityVerification: passFail(id.IDVerified),
			PEPScreening:         screeningCheck(id.PEPCheck),
			SanctionsScreening:   screeningCheck(id.SanctionsCheck),
			AdverseMedia:         flagged(id.AdverseMedia),
			IndustryRisk:         string(industryRisk),
			TransactionRisk:      string(transactionRisk(p)),
		},
		EDDRequired:    edd,
		IndustryRisk:   industryRisk,
		Recommendation: kycRecommendation(status),
	}
}

func kycRiskLevel(score int) assessment.RiskLevel {
	switch {
	case score >= 80:
		return assessment.RiskLow
	case score >= 60:
		return assessment.RiskMedium
	case score >= 40:
		return assessment.RiskHigh
	}
	return assessment.RiskCritical
}

func transactionRisk(p application.BusinessProfile) assessment.RiskLevel {
	switch {
	case p.AvgTransaction > largeTransactionThreshold || p.HighRiskCountries:
		return assessment.RiskHigh
	case p.International:
		return assessment.RiskMedium
	}
	return assessment.RiskLow
}

func kycRecommendation(s assessment.KYCStatus) string {
	switch s {
	case assessment.KYCPassed:
		return "Approve"
	case assessment.KYCFailed:
		return "Reject"
	}
	return "Human Review"
}

func passFail(ok bool) string {
	if ok {
		return assessment.CheckPass
	}
	return assessment.CheckFail
}

func flagged(hit bool) string {
	if hit {
		return assessment.CheckFlagged
	}
	return assessment.CheckClear
}

func screeningCheck(s application.Screening) string {
	switch s {
	case application.ScreeningClear:
		return assessment.CheckClear
	case application.ScreeningFlagged:
		return assessment.CheckFlagged
	}
	return assessment.CheckPending
}
