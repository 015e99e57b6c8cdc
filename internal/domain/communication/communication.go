// Package communication renders customer-facing messages for each
// application outcome. It has no decision authority.
package communication

import (
	"bytes"
	"fmt"
	"text/template"
)

// Status selects the template. The decision outcomes map one-to-one; any
// other value renders the "received" acknowledgement.
type Status string

const (
	StatusApprove     Status = "APPROVE"
	StatusReject      Status = "REJECT"
	StatusHumanReview Status = "HUMAN_REVIEW"
	StatusReceived    Status = "RECEIVED"
)

// Message is a rendered customer communication.
type Message struct {
	Status    Status   `json:"status"`
	Channel   string   `json:"communication_type"`
	Subject   string   `json:"subject"`
	Body      string   `json:"customer_message"`
	NextSteps []string `json:"next_steps"`
}

// Bank identifies the sender in rendered messages.
type Bank struct {
	Name         string
	SupportEmail string
}

type templateSpec struct {
	channel   string
	subject   string
	body      string
	nextSteps []string
}

var specs = map[Status]templateSpec{
	StatusApprove: {
		channel: "Email + Welcome Package",
		subject: "Your {{.Bank}} business account is approved",
		body: `Dear {{.Business}},

Congratulations! Your {{.Bank}} business account application has been APPROVED.

We're excited to welcome you to our banking family and support your business growth. Your application demonstrated strong financial health and compliance with our banking standards.
{{- if .Conditions}}

Your account is subject to the following conditions:
{{- range .Conditions}}
- {{.}}
{{- end}}
{{- end}}

Your account manager will contact you within 24 hours to complete the onboarding process and discuss the suite of services available to you.

Welcome to {{.Bank}}!

Best regards,
{{.Bank}} Onboarding Team`,
		nextSteps: []string{
			"Check your email for account setup instructions",
			"Complete online banking enrollment",
			"Schedule appointment with your relationship manager",
			"Review and sign account agreements",
			"Make initial deposit to activate account",
		},
	},
	StatusReject: {
		channel: "Email",
		subject: "Update on your {{.Bank}} application",
		body: `Dear {{.Business}},

Thank you for your interest in {{.Bank}}. After careful review, we regret to inform you that we are unable to approve your business account application at this time.

Reason: {{.Reasoning}}

We understand this may be disappointing. This decision was based on our current lending and risk criteria. We encourage you to consider reapplying after addressing the identified concerns.

If you have questions, please contact our support team at {{.Support}}.

Thank you for considering {{.Bank}}.

Sincerely,
{{.Bank}} Application Team`,
		nextSteps: []string{
			"Review the specific reasons for decline",
			"Address identified concerns (if possible)",
			"Consider reapplying after 6 months",
			"Contact us for alternative banking options",
			"Request detailed explanation if needed",
		},
	},
	StatusHumanReview: {
		channel: "Email + SMS Alert",
		subject: "Your {{.Bank}} application is under review",
		body: `Dear {{.Business}},

Thank you for submitting your business account application to {{.Bank}}.

Your application is currently under additional review by our specialized team. This is a standard process for certain applications to ensure we provide you with the best banking solutions.

Review Status: {{.Reasoning}}

We expect to complete our review within 2-3 business days. A member of our team may contact you if additional information is needed.

We appreciate your patience and look forward to serving your banking needs.

Best regards,
{{.Bank}} Review Team`,
		nextSteps: []string{
			"Our team is conducting additional review",
			"You may receive a call for clarification",
			"Decision expected within 2-3 business days",
			"No action required at this time",
			"Check application status online",
		},
	},
	StatusReceived: {
		channel: "Email Confirmation",
		subject: "We received your {{.Bank}} application",
		body: `Dear {{.Business}},

Thank you for choosing {{.Bank}}. We have received your business account application and our team is currently reviewing your submission.

We appreciate your interest and will provide an update within 1-2 business days.

Best regards,
{{.Bank}}`,
		nextSteps: []string{
			"Application received and under review",
			"Processing time: 1-2 business days",
			"Check email for updates",
			"Status available in online portal",
		},
	},
}

type compiled struct {
	spec    templateSpec
	subject *template.Template
	body    *template.Template
}

// Generator renders messages from the built-in templates.
type Generator struct {
	bank      Bank
	templates map[Status]compiled
}

// NewGenerator parses the templates for the given bank.
func NewGenerator(bank Bank) (*Generator, error) {
	if bank.Name == "" {
		bank.Name = "TechVenture Bank"
	}
	if bank.SupportEmail == "" {
		bank.SupportEmail = "support@techventurebank.com"
	}
	g := &Generator{bank: bank, templates: make(map[Status]compiled, len(specs))}
	for status, spec := range specs {
		subj, err := template.New(string(status) + "-subject").Parse(spec.subject)
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", status, err)
		}
		body, err := template.New(string(status)).Parse(spec.body)
		if err != nil {
			return nil, fmt.Errorf("parse %s body: %w", status, err)
		}
		g.templates[status] = compiled{spec: spec, subject: subj, body: body}
	}
	return g, nil
}

// Input carries the values substituted into a template.
type Input struct {
	Status       Status
	BusinessName string
	Reasoning    string
	Conditions   []string
}

type data struct {
	Bank       string
	Support    string
	Business   string
	Reasoning  string
	Conditions []string
}

// Compose renders the message for in.Status.
func (g *Generator) Compose(in Input) (Message, error) {
	c, ok := g.templates[in.Status]
	if !ok {
		c = g.templates[StatusReceived]
		in.Status = StatusReceived
	}
	business := in.BusinessName
	if business == "" {
		business = "Valued Customer"
	}
	d := data{
		Bank:       g.bank.Name,
		Support:    g.bank.SupportEmail,
		Business:   business,
		Reasoning:  in.Reasoning,
		Conditions: in.Conditions,
	}

	var subj, body bytes.Buffer
	if err := c.subject.Execute(&subj, d); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", in.Status, err)
	}
	if err := c.body.Execute(&body, d); err != nil {
		return Message{}, fmt.Errorf("render %s body: %w", in.Status, err)
	}
	return Message{
		Status:    in.Status,
		Channel:   c.spec.channel,
		Subject:   subj.String(),
		Body:      body.String(),
		NextSteps: append([]string(nil), c.spec.nextSteps...),
	}, nil
}
