package scoring

import (
	"fmt"

	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
)

var (
	creditStableIndustries   = []string{"healthcare", "education", "saas", "consulting"}
	creditVolatileIndustries = []string{"restaurant", "retail", "construction"}
	creditHighRiskIndustries = []string{"crypto", "gambling", "cannabis"}
)

// ConditionalApprovalFactor is appended when the credit stage approves
// conditionally.
const ConditionalApprovalFactor = "Conditional approval - requires monitoring"

type creditTerms struct {
	multiplier float64
	rate       float64
}

var termsByRisk = map[assessment.RiskLevel]creditTerms{
	assessment.RiskLow:      {1.5, 6.5},
	assessment.RiskMedium:   {1.0, 8.5},
	assessment.RiskHigh:     {0.5, 12.0},
	assessment.RiskVeryHigh: {0.25, 15.0},
}

// AssessCredit scores revenue, leverage, cash flow, maturity, industry and
// documentation into a credit score, and derives a recommended limit and
// interest rate from the resulting risk tier.
func AssessCredit(app *application.Application) assessment.CreditResult {
	fin := app.Financials
	revenue, debt := fin.Revenue, fin.Debt
	score := 0
	factors := []string{}
	res := assessment.CreditResult{}

	switch {
	case revenue >= 10_000_000:
		score += 30
		res.RevenueTier = "Tier 1 - Large Enterprise"
	case revenue >= 5_000_000:
		score += 25
		res.RevenueTier = "Tier 2 - Mid-Market"
	case revenue >= 1_000_000:
		score += 20
		res.RevenueTier = "Tier 3 - Small Business"
	case revenue >= 500_000:
		score += 15
		res.RevenueTier = "Tier 4 - Micro Business"
	case revenue >= 100_000:
		score += 10
		res.RevenueTier = "Tier 5 - Startup"
	default:
		score += 5
		res.RevenueTier = "Tier 6 - Early Stage"
		factors = append(factors, "Very low revenue - high credit risk")
	}

	dti := fin.DebtToIncome
	if dti == 0 && revenue > 0 {
		dti = debt / revenue
	}
	switch {
	case dti <= 0.2:
		score += 25
		res.DebtRating = "Excellent"
	case dti <= 0.4:
		score += 20
		res.DebtRating = "Good"
	case dti <= 0.6:
		score += 15
		res.DebtRating = "Fair"
		factors = append(factors, "Moderate debt burden")
	case dti <= 0.8:
		score += 8
		res.DebtRating = "Poor"
		factors = append(factors, "High debt-to-income ratio")
	default:
		res.DebtRating = "Very Poor"
		factors = append(factors, "Excessive debt burden - major concern")
	}

	if fin.CashFlowPositive {
		score += 20
	} else {
		factors = append(factors, "Negative cash flow - unable to meet obligations")
	}

	age := app.Age()
	switch age {
	case application.AgeFivePlusYears:
		score += 15
		res.MaturityRating = "Mature"
	case application.AgeThreeToFiveYears:
		score += 12
		res.MaturityRating = "Established"
	case application.AgeOneToTwoYears:
		score += 7
		res.MaturityRating = "Growing"
		factors = append(factors, "Limited operating history")
	default:
		score += 3
		res.MaturityRating = "New"
		factors = append(factors, "New business - insufficient track record")
	}

	industry := app.IndustryKey()
	switch {
	case oneOf(industry, creditStableIndustries):
		score += 10
		res.IndustryRisk = "Low"
	case oneOf(industry, creditVolatileIndustries):
		score += 5
		res.IndustryRisk = "Medium"
		factors = append(factors, fmt.Sprintf("Volatile industry: %s", industry))
	case oneOf(industry, creditHighRiskIndustries):
		res.IndustryRisk = "High"
		factors = append(factors, fmt.Sprintf("High-risk industry: %s - requires enhanced monitoring", industry))
	default:
		score += 7
		res.IndustryRisk = "Medium"
	}

	docs := app.Documents
	switch {
	case docs.FinancialStatement && docs.BankStatement:
		score += 5
	case !docs.BankStatement:
		factors = append(factors, "No bank statements - limited financial visibility")
	}

	switch {
	case app.Employees >= 50:
		score += 5
	case app.Employees < 5:
		factors = append(factors, "Very small team - operational risk")
	}

	res.Ratios = assessment.FinancialRatios{
		DebtToIncome: round(dti, 3),
	}
	if app.Employees > 0 {
		res.Ratios.RevenuePerEmployee = round(revenue/float64(app.Employees), 0)
	}
	if revenue > 0 {
		res.Ratios.DebtToRevenuePct = round(debt/revenue*100, 1)
	}

	score = clamp(score)
	res.Score = score
	res.RiskLevel = creditRiskLevel(score)

	terms := termsByRisk[res.RiskLevel]
	limit := revenue * 0.1 * terms.multiplier
	switch age {
	case application.AgeUnderOneYear:
		limit = min(limit, 50_000)
	case application.AgeOneToTwoYears:
		limit = min(limit, 150_000)
	}
	res.Limit = roundTo(limit, 1000)
	res.InterestRate = terms.rate

	switch {
	case score >= 70:
		res.Decision = assessment.CreditApprove
	case score >= 50:
		res.Decision = assessment.CreditConditionalApprove
		factors = append(factors, ConditionalApprovalFactor)
	default:
		res.Decision = assessment.CreditReject
	}

	switch {
	case score >= 75:
		res.LoanProducts = []string{"Business Line of Credit", "Term Loan", "Equipment Financing"}
	case score >= 60:
		res.LoanProducts = []string{"Secured Line of Credit", "Invoice Financing"}
	case score >= 50:
		res.LoanProducts = []string{"Merchant Cash Advance (Higher Rate)"}
	default:
		res.LoanProducts = []string{"Not Eligible"}
	}

	res.RiskFactors = factors
	res.MonitoringRequired = res.RiskLevel == assessment.RiskHigh || res.RiskLevel == assessment.RiskVeryHigh
	return res
}

func creditRiskLevel(score int) assessment.RiskLevel {
	switch {
	case score >= 80:
		return assessment.RiskLow
	case score >= 65:
		return assessment.RiskMedium
	case score >= 50:
		return assessment.RiskHigh
	}
	return assessment.RiskVeryHigh
}
