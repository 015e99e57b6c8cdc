package assessment

import (
	"errors"
	"fmt"
)

// ErrKeyCollision is returned when two stages emit the same metric key.
var ErrKeyCollision = errors.New("assessment: metric key collision")

// ErrDuplicateStage is returned when a stage contributes more than one result.
var ErrDuplicateStage = errors.New("assessment: duplicate stage result")

// Record is the assembled output of all scoring stages for one application.
// The typed fields are authoritative; Metrics is the flat projection used for
// rule expressions and display.
type Record struct {
	Documents *DocumentResult  `json:"documents,omitempty"`
	KYC       *KYCResult       `json:"kyc,omitempty"`
	Credit    *CreditResult    `json:"credit,omitempty"`
	Products  *ProductResult   `json:"products,omitempty"`
	Metrics   map[string]any   `json:"metrics"`
	Sources   map[string]Stage `json:"sources"`
}

// Assemble merges stage results into a Record. It fails if a stage appears
// twice or if two stages emit the same metric key.
func Assemble(results ...StageResult) (*Record, error) {
	rec := &Record{
		Metrics: make(map[string]any),
		Sources: make(map[string]Stage),
	}
	for _, r := range results {
		if err := rec.Add(r); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// Add merges a single stage result into the record. Nothing is merged
// when an error is returned.
func (rec *Record) Add(r StageResult) error {
	switch v := r.(type) {
	case *DocumentResult:
		return rec.Add(*v)
	case *KYCResult:
		return rec.Add(*v)
	case *CreditResult:
		return rec.Add(*v)
	case *ProductResult:
		return rec.Add(*v)
	}

	if rec.Metrics == nil {
		rec.Metrics = make(map[string]any)
	}
	if rec.Sources == nil {
		rec.Sources = make(map[string]Stage)
	}

	stage := r.Stage()
	if rec.has(stage) {
		return fmt.Errorf("%w: %s", ErrDuplicateStage, stage)
	}
	metrics := r.Metrics()
	for k := range metrics {
		if prev, ok := rec.Sources[k]; ok {
			return fmt.Errorf("%w: %q emitted by %s and %s", ErrKeyCollision, k, prev, stage)
		}
	}

	switch v := r.(type) {
	case DocumentResult:
		rec.Documents = &v
	case KYCResult:
		rec.KYC = &v
	case CreditResult:
		rec.Credit = &v
	case ProductResult:
		rec.Products = &v
	}
	for k, val := range metrics {
		rec.Metrics[k] = val
		rec.Sources[k] = stage
	}
	return nil
}

func (rec *Record) has(stage Stage) bool {
	for _, s := range rec.Sources {
		if s == stage {
			return true
		}
	}
	return false
}

// RiskFactors returns the upstream risk factors in stage order
// (KYC before credit), without de-duplication.
func (rec *Record) RiskFactors() []string {
	var out []string
	if rec.KYC != nil {
		out = append(out, rec.KYC.RiskFactors...)
	}
	if rec.Credit != nil {
		out = append(out, rec.Credit.RiskFactors...)
	}
	return out
}
