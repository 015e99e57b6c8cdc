// Package application defines the business account application submitted
// through the onboarding form. An Application is immutable once created.
package application

import (
	"strings"
	"time"
)

// Screening is the outcome of an identity screening check (PEP, sanctions).
type Screening string

const (
	ScreeningPending Screening = ""
	ScreeningClear   Screening = "clear"
	ScreeningFlagged Screening = "flagged"
)

// Normalize lower-cases s so "Clear" and "FLAGGED" compare equal to the
// canonical values.
func (s Screening) Normalize() Screening {
	return Screening(strings.ToLower(strings.TrimSpace(string(s))))
}

// Documents records which supporting documents were provided.
type Documents struct {
	TaxID              bool `json:"tax_id" yaml:"tax_id"`
	License            bool `json:"license" yaml:"license"`
	BankStatement      bool `json:"bank_statement" yaml:"bank_statement"`
	FinancialStatement bool `json:"financial_statement" yaml:"financial_statement"`
}

// Count returns the number of documents provided.
func (d Documents) Count() int {
	n := 0
	for _, ok := range []bool{d.TaxID, d.License, d.BankStatement, d.FinancialStatement} {
		if ok {
			n++
		}
	}
	return n
}

// Identity holds the owner identity verification and screening flags.
type Identity struct {
	IDVerified     bool      `json:"id_verified"`
	PEPCheck       Screening `json:"pep_check"`
	SanctionsCheck Screening `json:"sanctions_check"`
	AdverseMedia   bool      `json:"adverse_media"`
}

// Financials holds the self-reported financial position.
// DebtToIncome of 0 means "not provided"; it is derived from Debt/Revenue.
type Financials struct {
	Revenue          float64 `json:"revenue"`
	Debt             float64 `json:"debt"`
	DebtToIncome     float64 `json:"debt_to_income,omitempty"`
	CashFlowPositive bool    `json:"cash_flow_positive"`
}

// BusinessProfile describes the expected transaction pattern.
type BusinessProfile struct {
	AvgTransaction    float64 `json:"avg_transaction"`
	MonthlyVolume     int     `json:"monthly_volume"`
	International     bool    `json:"international"`
	HighRiskCountries bool    `json:"high_risk_countries"`
}

// Application is a submitted business account application.
type Application struct {
	ID             string          `json:"id"`
	BusinessName   string          `json:"business_name"`
	Industry       string          `json:"industry"`
	RevenueBracket string          `json:"revenue_bracket,omitempty"`
	Employees      int             `json:"employees"`
	OwnerName      string          `json:"owner_name"`
	OwnerEmail     string          `json:"owner_email"`
	BusinessAge    string          `json:"business_age"`
	Documents      Documents       `json:"documents"`
	Identity       Identity        `json:"identity"`
	Financials     Financials      `json:"financials"`
	Profile        BusinessProfile `json:"business_profile"`
	SubmittedAt    time.Time       `json:"submitted_at"`
}

// IndustryKey returns the normalized industry used for risk table lookups.
func (a *Application) IndustryKey() string {
	return strings.ToLower(strings.TrimSpace(a.Industry))
}

// Age returns the parsed business age band.
func (a *Application) Age() AgeBand {
	return ParseAge(a.BusinessAge)
}

func (id Identity) normalized() Identity {
	id.PEPCheck = id.PEPCheck.Normalize()
	id.SanctionsCheck = id.SanctionsCheck.Normalize()
	return id
}

// New builds an Application from a validated request. The revenue bracket
// is used as an estimate when no explicit revenue figure is given, and
// screening values are stored lower-cased.
func New(req CreateRequest, id string, now time.Time) Application {
	fin := req.Financials
	if fin.Revenue == 0 && req.RevenueBracket != "" {
		fin.Revenue = BracketRevenue(req.RevenueBracket)
	}
	return Application{
		ID:             id,
		BusinessName:   strings.TrimSpace(req.BusinessName),
		Industry:       strings.TrimSpace(req.Industry),
		RevenueBracket: req.RevenueBracket,
		Employees:      req.Employees,
		OwnerName:      strings.TrimSpace(req.OwnerName),
		OwnerEmail:     strings.TrimSpace(req.OwnerEmail),
		BusinessAge:    req.BusinessAge,
		Documents:      req.Documents,
		Identity:       req.Identity.normalized(),
		Financials:     fin,
		Profile:        req.Profile,
		SubmittedAt:    now.UTC(),
	}
}
