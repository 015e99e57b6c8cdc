package application

import (
	"fmt"
	"strings"

	"github.com/Strob0t/OnboardForge/internal/domain"
)

// CreateRequest is the onboarding form payload.
type CreateRequest struct {
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
}

// Validate checks the required form fields and value ranges. All errors
// wrap domain.ErrValidation and carry a message fit for the applicant.
func (r *CreateRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.BusinessName) == "" {
		missing = append(missing, "business_name")
	}
	if strings.TrimSpace(r.Industry) == "" {
		missing = append(missing, "industry")
	}
	if r.RevenueBracket == "" && r.Financials.Revenue <= 0 {
		missing = append(missing, "revenue")
	}
	if r.Employees == 0 {
		missing = append(missing, "employees")
	}
	if strings.TrimSpace(r.OwnerName) == "" {
		missing = append(missing, "owner_name")
	}
	if strings.TrimSpace(r.OwnerEmail) == "" {
		missing = append(missing, "owner_email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: please fill in all required fields (%s)", domain.ErrValidation, strings.Join(missing, ", "))
	}

	if r.Employees < 1 {
		return fmt.Errorf("%w: employees must be at least 1", domain.ErrValidation)
	}
	if !strings.Contains(r.OwnerEmail, "@") {
		return fmt.Errorf("%w: owner_email %q is not a valid address", domain.ErrValidation, r.OwnerEmail)
	}
	if r.RevenueBracket != "" && !isKnownBracket(r.RevenueBracket) {
		return fmt.Errorf("%w: unknown revenue bracket %q", domain.ErrValidation, r.RevenueBracket)
	}
	if r.BusinessAge != "" && ParseAge(r.BusinessAge) == AgeUnknown {
		return fmt.Errorf("%w: unknown business age %q", domain.ErrValidation, r.BusinessAge)
	}
	if r.Financials.Revenue < 0 || r.Financials.Debt < 0 || r.Financials.DebtToIncome < 0 {
		return fmt.Errorf("%w: financial figures must not be negative", domain.ErrValidation)
	}
	if r.Profile.AvgTransaction < 0 || r.Profile.MonthlyVolume < 0 {
		return fmt.Errorf("%w: transaction profile figures must not be negative", domain.ErrValidation)
	}
	if !validScreening(r.Identity.PEPCheck) {
		return fmt.Errorf("%w: invalid pep_check %q", domain.ErrValidation, r.Identity.PEPCheck)
	}
	if !validScreening(r.Identity.SanctionsCheck) {
		return fmt.Errorf("%w: invalid sanctions_check %q", domain.ErrValidation, r.Identity.SanctionsCheck)
	}
	return nil
}

func validScreening(s Screening) bool {
	switch s.Normalize() {
	case ScreeningPending, ScreeningClear, ScreeningFlagged:
		return true
	}
	return false
}

// Demo returns the walkthrough application used by the demo endpoint. All
// identity screenings are filled in and clear.
func Demo() CreateRequest {
	return CreateRequest{
		BusinessName:   "StableTech Solutions",
		Industry:       "Healthcare",
		RevenueBracket: "Over $5M",
		Employees:      25,
		OwnerName:      "Dr. Sarah Johnson",
		OwnerEmail:     "sarah@stabletech.com",
		BusinessAge:    AgeLabelFivePlus,
		Documents: Documents{
			TaxID:         true,
			License:       true,
			BankStatement: true,
		},
		Identity: Identity{
			IDVerified:     true,
			PEPCheck:       ScreeningClear,
			SanctionsCheck: ScreeningClear,
		},
		Financials: Financials{
			Revenue: 8_000_000,
			Debt:    50_000,
		},
	}
}
