// Package cel compiles operator-supplied CEL expressions into decision
// rules. Expressions see the decision input under snake_case names, for
// example `credit_score < 40 && adverse_media`.
package cel

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/Strob0t/OnboardForge/internal/domain/decision"
)

// RuleDef is one rule as written in the rules file.
type RuleDef struct {
	Name        string         `yaml:"name"`
	Phase       decision.Phase `yaml:"phase"`
	Description string         `yaml:"description"`
	Expression  string         `yaml:"expression"`
	Reason      string         `yaml:"reason"`
	RiskFactor  string         `yaml:"risk_factor"`
	Conditions  []string       `yaml:"conditions"`
}

// File is the rules file layout.
type File struct {
	Rules []RuleDef `yaml:"rules"`
}

// Compiler turns rule definitions into decision rules sharing one CEL
// environment.
type Compiler struct {
	env *cel.Env
}

// NewCompiler declares every decision input variable.
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("credit_score", cel.IntType),
		cel.Variable("compliance_score", cel.IntType),
		cel.Variable("documents_complete", cel.BoolType),
		cel.Variable("missing_documents", cel.ListType(cel.StringType)),
		cel.Variable("kyc_status", cel.StringType),
		cel.Variable("kyc_risk_level", cel.StringType),
		cel.Variable("credit_risk_level", cel.StringType),
		cel.Variable("sanctions_flagged", cel.BoolType),
		cel.Variable("pep_flagged", cel.BoolType),
		cel.Variable("adverse_media", cel.BoolType),
		cel.Variable("high_risk_industry", cel.BoolType),
		cel.Variable("edd_required", cel.BoolType),
		cel.Variable("credit_decision", cel.StringType),
		cel.Variable("credit_limit", cel.DoubleType),
		cel.Variable("risk_factors", cel.ListType(cel.StringType)),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	return &Compiler{env: env}, nil
}

// Compile checks the expression is boolean and builds the rule. An
// evaluation error at run time counts as "no match" and is logged.
func (c *Compiler) Compile(def RuleDef) (decision.Rule, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return decision.Rule{}, fmt.Errorf("cel rule: name is required")
	}
	if def.Phase != decision.PhaseHardStop && def.Phase != decision.PhaseSoftTrigger {
		return decision.Rule{}, fmt.Errorf("cel rule %s: phase must be %s or %s", name, decision.PhaseHardStop, decision.PhaseSoftTrigger)
	}
	if strings.TrimSpace(def.Reason) == "" {
		return decision.Rule{}, fmt.Errorf("cel rule %s: reason is required", name)
	}

	ast, iss := c.env.Compile(def.Expression)
	if iss.Err() != nil {
		return decision.Rule{}, fmt.Errorf("cel rule %s: %w", name, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return decision.Rule{}, fmt.Errorf("cel rule %s: expression must be boolean, got %s", name, ast.OutputType())
	}
	prg, err := c.env.Program(ast)
	if err != nil {
		return decision.Rule{}, fmt.Errorf("cel rule %s: %w", name, err)
	}

	desc := def.Description
	if desc == "" {
		desc = def.Expression
	}
	rule := decision.Rule{
		Name:        name,
		Phase:       def.Phase,
		Description: desc,
		Conditions:  def.Conditions,
		When: func(in decision.Input) bool {
			out, _, err := prg.Eval(in.Vars())
			if err != nil {
				slog.Warn("cel rule evaluation failed", "rule", name, "error", err)
				return false
			}
			matched, ok := out.Value().(bool)
			return ok && matched
		},
		Reason: func(decision.Input) string { return def.Reason },
	}
	if def.RiskFactor != "" {
		factor := def.RiskFactor
		rule.RiskFactor = func(decision.Input) string { return factor }
	}
	return rule, nil
}

// Parse compiles every rule in a YAML rules document.
func (c *Compiler) Parse(data []byte) ([]decision.Rule, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	rules := make([]decision.Rule, 0, len(f.Rules))
	for _, def := range f.Rules {
		r, err := c.Compile(def)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// LoadFile compiles the rules file at path. An empty path yields no rules;
// a missing or invalid file is an error.
func LoadFile(path string) ([]decision.Rule, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	c, err := NewCompiler()
	if err != nil {
		return nil, err
	}
	rules, err := c.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}
