package application

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Strob0t/OnboardForge/internal/domain"
)

func validRequest() CreateRequest {
	return Demo()
}

func TestCreateRequestValidateValid(t *testing.T) {
	req := validRequest()
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateRequestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*CreateRequest)
		errStr string
	}{
		{
			name:   "missing business name",
			modify: func(r *CreateRequest) { r.BusinessName = "  " },
			errStr: "business_name",
		},
		{
			name:   "missing owner fields",
			modify: func(r *CreateRequest) { r.OwnerName = ""; r.OwnerEmail = "" },
			errStr: "owner_name, owner_email",
		},
		{
			name: "missing revenue",
			modify: func(r *CreateRequest) {
				r.RevenueBracket = ""
				r.Financials.Revenue = 0
			},
			errStr: "revenue",
		},
		{
			name:   "negative employees",
			modify: func(r *CreateRequest) { r.Employees = -3 },
			errStr: "employees must be at least 1",
		},
		{
			name:   "bad email",
			modify: func(r *CreateRequest) { r.OwnerEmail = "sarah" },
			errStr: "not a valid address",
		},
		{
			name:   "unknown bracket",
			modify: func(r *CreateRequest) { r.RevenueBracket = "$5M-$10M" },
			errStr: "unknown revenue bracket",
		},
		{
			name:   "unknown age",
			modify: func(r *CreateRequest) { r.BusinessAge = "ancient" },
			errStr: "unknown business age",
		},
		{
			name:   "negative debt",
			modify: func(r *CreateRequest) { r.Financials.Debt = -1 },
			errStr: "must not be negative",
		},
		{
			name:   "bad screening value",
			modify: func(r *CreateRequest) { r.Identity.SanctionsCheck = "maybe" },
			errStr: "invalid sanctions_check",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)
			err := req.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errStr) {
				t.Errorf("error %q does not contain %q", err, tt.errStr)
			}
		})
	}
}

func TestNewUsesBracketEstimate(t *testing.T) {
	req := validRequest()
	req.Financials.Revenue = 0
	req.RevenueBracket = "$500K-$1M"

	app := New(req, "APP-1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if app.Financials.Revenue != 750_000 {
		t.Errorf("expected bracket estimate 750000, got %v", app.Financials.Revenue)
	}
	if app.ID != "APP-1" {
		t.Errorf("expected id APP-1, got %q", app.ID)
	}
}

func TestNewKeepsExplicitRevenue(t *testing.T) {
	app := New(validRequest(), "APP-2", time.Now())
	if app.Financials.Revenue != 8_000_000 {
		t.Errorf("expected explicit revenue, got %v", app.Financials.Revenue)
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		label string
		want  AgeBand
	}{
		{"5+ years", AgeFivePlusYears},
		{"3-5 years", AgeThreeToFiveYears},
		{"1-2 years", AgeOneToTwoYears},
		{"Less than 1 year", AgeUnderOneYear},
		{"less than 1 year", AgeUnderOneYear},
		{"", AgeUnknown},
		{"decades", AgeUnknown},
	}
	for _, tt := range tests {
		if got := ParseAge(tt.label); got != tt.want {
			t.Errorf("ParseAge(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestDocumentsCount(t *testing.T) {
	d := Documents{TaxID: true, BankStatement: true}
	if d.Count() != 2 {
		t.Errorf("expected 2, got %d", d.Count())
	}
}

func TestIndustryKey(t *testing.T) {
	a := Application{Industry: "  SaaS "}
	if a.IndustryKey() != "saas" {
		t.Errorf("expected saas, got %q", a.IndustryKey())
	}
}

func TestScreeningCaseInsensitive(t *testing.T) {
	req := validRequest()
	req.Identity.PEPCheck = "Clear"
	req.Identity.SanctionsCheck = " FLAGGED "
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	app := New(req, "APP-1", time.Now())
	if app.Identity.PEPCheck != ScreeningClear {
		t.Errorf("expected pep_check %q, got %q", ScreeningClear, app.Identity.PEPCheck)
	}
	if app.Identity.SanctionsCheck != ScreeningFlagged {
		t.Errorf("expected sanctions_check %q, got %q", ScreeningFlagged, app.Identity.SanctionsCheck)
	}
}

func TestDemoIsFullyScreened(t *testing.T) {
	id := Demo().Identity
	if !id.IDVerified || id.PEPCheck != ScreeningClear || id.SanctionsCheck != ScreeningClear || id.AdverseMedia {
		t.Fatalf("demo identity should be verified with clear screenings, got %+v", id)
	}
}
