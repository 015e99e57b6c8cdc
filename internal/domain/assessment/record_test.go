package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStage struct {
	stage   Stage
	metrics map[string]any
}

func (f fakeStage) Stage() Stage            { return f.stage }
func (f fakeStage) Metrics() map[string]any { return f.metrics }

func TestAssembleAllStages(t *testing.T) {
	rec, err := Assemble(
		DocumentResult{Complete: true, Status: "COMPLETE", Score: 100},
		KYCResult{ComplianceScore: 90, Status: KYCPassed, RiskLevel: RiskLow, RiskFactors: []string{"a"}},
		&CreditResult{Score: 80, RiskLevel: RiskMedium, RiskFactors: []string{"b"}},
		ProductResult{AccountType: "Standard Business Account"},
	)
	require.NoError(t, err)

	require.NotNil(t, rec.Documents)
	require.NotNil(t, rec.KYC)
	require.NotNil(t, rec.Credit)
	require.NotNil(t, rec.Products)

	assert.Equal(t, 90, rec.Metrics["compliance_score"])
	assert.Equal(t, 80, rec.Metrics["credit_score"])
	assert.Equal(t, "LOW", rec.Metrics["kyc_risk_level"])
	assert.Equal(t, "MEDIUM", rec.Metrics["credit_risk_level"])
	assert.Equal(t, StageCredit, rec.Sources["credit_score"])
	assert.Equal(t, []string{"a", "b"}, rec.RiskFactors())
}

func TestAssembleKeyCollision(t *testing.T) {
	rogue := fakeStage{stage: "rogue", metrics: map[string]any{"credit_score": 5}}

	_, err := Assemble(CreditResult{Score: 80}, rogue)
	require.ErrorIs(t, err, ErrKeyCollision)
	assert.Contains(t, err.Error(), `"credit_score" emitted by credit and rogue`)
}

func TestAssembleDuplicateStage(t *testing.T) {
	_, err := Assemble(KYCResult{ComplianceScore: 10}, KYCResult{ComplianceScore: 20})
	require.ErrorIs(t, err, ErrDuplicateStage)
}

func TestAddLeavesRecordUntouchedOnError(t *testing.T) {
	rec, err := Assemble(CreditResult{Score: 80})
	require.NoError(t, err)

	rogue := fakeStage{stage: "rogue", metrics: map[string]any{"fresh_key": 1, "credit_score": 5}}
	require.Error(t, rec.Add(rogue))
	_, ok := rec.Metrics["fresh_key"]
	assert.False(t, ok)
	assert.Equal(t, 80, rec.Metrics["credit_score"])
}

func TestStageMetricKeysAreDisjoint(t *testing.T) {
	seen := map[string]Stage{}
	for _, r := range []StageResult{DocumentResult{}, KYCResult{}, CreditResult{}, ProductResult{}} {
		for k := range r.Metrics() {
			prev, dup := seen[k]
			assert.Falsef(t, dup, "key %q emitted by %s and %s", k, prev, r.Stage())
			seen[k] = r.Stage()
		}
	}
}
