package communication

import (
	"strings"
	"testing"
)

func newGen(t *testing.T) *Generator {
	t.Helper()
	g, err := NewGenerator(Bank{Name: "Acme Bank", SupportEmail: "help@acme.test"})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g
}

func TestComposeChannels(t *testing.T) {
	tests := []struct {
		status  Status
		channel string
	}{
		{StatusApprove, "Email + Welcome Package"},
		{StatusReject, "Email"},
		{StatusHumanReview, "Email + SMS Alert"},
		{StatusReceived, "Email Confirmation"},
		{"SOMETHING_ELSE", "Email Confirmation"},
	}
	g := newGen(t)
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			msg, err := g.Compose(Input{Status: tt.status, BusinessName: "Widgets Ltd"})
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			if msg.Channel != tt.channel {
				t.Errorf("expected channel %q, got %q", tt.channel, msg.Channel)
			}
			if !strings.HasPrefix(msg.Body, "Dear Widgets Ltd,") {
				t.Errorf("unexpected salutation: %q", msg.Body[:30])
			}
			if len(msg.NextSteps) == 0 {
				t.Error("expected next steps")
			}
		})
	}
}

func TestComposeRejectIncludesReasonAndSupport(t *testing.T) {
	msg, err := newGen(t).Compose(Input{
		Status:       StatusReject,
		BusinessName: "Widgets Ltd",
		Reasoning:    "Compliance score below minimum threshold (45/100 < 50/100)",
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(msg.Body, "Reason: Compliance score below minimum threshold (45/100 < 50/100)") {
		t.Errorf("reason missing from body:\n%s", msg.Body)
	}
	if !strings.Contains(msg.Body, "help@acme.test") {
		t.Error("support address missing from body")
	}
	if msg.Subject != "Update on your Acme Bank application" {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
}

func TestComposeApproveListsConditions(t *testing.T) {
	msg, err := newGen(t).Compose(Input{
		Status:     StatusApprove,
		Conditions: []string{"Standard account monitoring", "Annual financial review"},
	})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(msg.Body, "Dear Valued Customer,") {
		t.Error("expected default salutation")
	}
	if !strings.Contains(msg.Body, "- Annual financial review") {
		t.Errorf("conditions missing:\n%s", msg.Body)
	}
}

func TestComposeIsPure(t *testing.T) {
	g := newGen(t)
	in := Input{Status: StatusHumanReview, BusinessName: "A", Reasoning: "r"}
	a, _ := g.Compose(in)
	b, _ := g.Compose(in)
	a.NextSteps[0] = "mutated"
	if b.NextSteps[0] == "mutated" {
		t.Error("next steps share backing storage between calls")
	}
	if a.Body != b.Body {
		t.Error("expected identical bodies")
	}
}

func TestNewGeneratorDefaults(t *testing.T) {
	g, err := NewGenerator(Bank{})
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	msg, _ := g.Compose(Input{Status: StatusReject})
	if !strings.Contains(msg.Body, "TechVenture Bank") || !strings.Contains(msg.Body, "support@techventurebank.com") {
		t.Errorf("expected default bank identity:\n%s", msg.Body)
	}
}
