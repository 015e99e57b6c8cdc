package scoring

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
)

// Account products.
const (
	AccountPremium  = "Premium Business Banking"
	AccountStandard = "Standard Business Account"
	AccountBasic    = "Basic Business Checking"
	AccountStartup  = "Startup Business Account"
)

// Card products.
const (
	CardPlatinum = "Platinum Business Card (3% cashback)"
	CardGold     = "Gold Business Card (2% cashback)"
	CardStandard = "Standard Business Card (1% cashback)"
	CardSecured  = "Secured Business Card"
)

var creditProducts = map[string][]string{
	"tier1": {"Business Line of Credit ($250K+)", "Term Loan", "Equipment Financing", "Commercial Real Estate Loan"},
	"tier2": {"Business Line of Credit ($100K)", "Term Loan", "Invoice Financing"},
	"tier3": {"Secured Line of Credit ($50K)", "Invoice Financing", "Equipment Loan"},
	"tier4": {"Secured Credit Card", "Merchant Cash Advance"},
	"none":  {"Not Eligible - Build Business History"},
}

// cardTier describes one card offer: the share of the recommended credit
// limit granted and its ceiling. A zero share means a fixed limit.
type cardTier struct {
	name  string
	share float64
	cap   float64
}

var (
	platinumCard = cardTier{CardPlatinum, 0.30, 100_000}
	goldCard     = cardTier{CardGold, 0.25, 50_000}
	standardCard = cardTier{CardStandard, 0.20, 25_000}
	securedCard  = cardTier{CardSecured, 0, 5_000}
)

func (c cardTier) limit(creditLimit float64) float64 {
	if c.share == 0 {
		return roundTo(c.cap, 1000)
	}
	return roundTo(min(creditLimit*c.share, c.cap), 1000)
}

type serviceBundle struct {
	industries []string
	services   []string
}

var industryServices = []serviceBundle{
	{
		industries: []string{"saas", "tech", "software"},
		services:   []string{"ACH/Wire Transfer Services", "International Payment Gateway", "API Banking Integration", "Treasury Management"},
	},
	{
		industries: []string{"retail", "e-commerce", "restaurant"},
		services:   []string{"Merchant Services (2.5% processing)", "Point of Sale Financing", "Same-Day Deposits", "Inventory Financing"},
	},
	{
		industries: []string{"manufacturing", "construction"},
		services:   []string{"Equipment Financing", "Payroll Services", "Fleet Card Services", "Supply Chain Financing"},
	},
	{
		industries: []string{"healthcare", "professional services"},
		services:   []string{"Lockbox Services", "ACH Collections", "Professional Liability Insurance", "Retirement Plan Services"},
	},
}

var (
	universalServices = []string{"Mobile Banking", "Bill Pay Services", "Remote Deposit Capture"}
	premiumServices   = []string{"Dedicated Relationship Manager", "Foreign Exchange Services", "Cash Management Services", "Commercial Insurance Brokerage"}
)

// MatchProducts selects the account, credit products and card for an
// application from its KYC and credit results. Either result may be nil,
// in which case its scores are treated as 0.
func MatchProducts(app *application.Application, kyc *assessment.KYCResult, credit *assessment.CreditResult) assessment.ProductResult {
	industry := app.IndustryKey()
	revenue := app.Financials.Revenue
	age := app.Age()

	var creditScore, complianceScore int
	var creditLimit float64
	creditRisk := assessment.RiskUnknown
	if credit != nil {
		creditScore = credit.Score
		creditLimit = credit.Limit
		creditRisk = credit.RiskLevel
	}
	if kyc != nil {
		complianceScore = kyc.ComplianceScore
	}

	res := assessment.ProductResult{RecommendedCreditLimit: creditLimit}

	switch {
	case revenue >= 5_000_000 && creditScore >= 75:
		res.AccountType, res.PricingTier = AccountPremium, "Tier 1 - Premium (Fees waived)"
	case revenue >= 1_000_000 && creditScore >= 60:
		res.AccountType, res.PricingTier = AccountStandard, "Tier 2 - Standard ($25/month)"
	case revenue >= 500_000 || age == application.AgeThreeToFiveYears || age == application.AgeFivePlusYears:
		res.AccountType, res.PricingTier = AccountStandard, "Tier 3 - Standard ($25/month)"
	default:
		res.AccountType, res.PricingTier = AccountBasic, "Tier 4 - Basic ($15/month)"
	}
	if age == application.AgeUnderOneYear && oneOf(industry, []string{"saas", "tech", "consulting"}) {
		res.AccountType, res.PricingTier = AccountStartup, "Startup Program (Fees waived 1st year)"
	}

	switch {
	case creditScore >= 80 && complianceScore >= 80 && revenue >= 2_000_000:
		res.CreditTier = "tier1"
	case creditScore >= 70 && complianceScore >= 70 && revenue >= 1_000_000:
		res.CreditTier = "tier2"
	case creditScore >= 60 && complianceScore >= 60 && revenue >= 500_000:
		res.CreditTier = "tier3"
	case creditScore >= 50 && complianceScore >= 60:
		res.CreditTier = "tier4"
	default:
		res.CreditTier = "none"
	}
	res.CreditProducts = slices.Clone(creditProducts[res.CreditTier])

	var card cardTier
	switch {
	case creditScore >= 80 && creditRisk == assessment.RiskLow:
		card = platinumCard
	case creditScore >= 70:
		card = goldCard
	case creditScore >= 60:
		card = standardCard
	default:
		card = securedCard
	}
	res.CreditCard = card.name
	res.CardLimit = card.limit(creditLimit)

	services := []string{}
	for _, b := range industryServices {
		if oneOf(industry, b.industries) {
			services = append(services, b.services...)
		}
	}
	services = append(services, universalServices...)
	if revenue >= 5_000_000 {
		services = append(services, premiumServices...)
	}
	res.AdditionalServices = services

	programs := []string{}
	if age == application.AgeUnderOneYear {
		programs = append(programs, "New Business Support Program")
	}
	if app.Employees >= 50 {
		programs = append(programs, "Large Employer Program - Payroll & Benefits")
	}
	if oneOf(industry, []string{"saas", "tech"}) {
		programs = append(programs, "Innovation Banking - VC/PE Connections")
	}
	if revenue >= 10_000_000 {
		programs = append(programs, "Corporate Banking Services")
	}
	res.SpecialPrograms = programs

	res.ValueProposition = valueProposition(res.AccountType, industry)
	return res
}

func valueProposition(account, industry string) string {
	switch {
	case strings.Contains(account, "Premium"):
		return fmt.Sprintf("Premium banking designed for established %s businesses. Waived fees, dedicated support, and exclusive financing.", industry)
	case strings.Contains(account, "Startup"):
		return fmt.Sprintf("Specialized banking for growing %s startups. First year free, mentorship access, and flexible credit.", industry)
	}
	return fmt.Sprintf("Comprehensive banking solutions for %s businesses. Competitive rates and full-service support.", industry)
}
