// Package scoring implements the deterministic scoring stages of the
// onboarding pipeline. Every function here is pure: the same Application
// always produces the same result.
package scoring

import (
	"math"
	"slices"
)

// clamp bounds a score to [0,100].
func clamp(score int) int {
	return max(0, min(100, score))
}

// roundTo rounds v to the nearest multiple of unit.
func roundTo(v, unit float64) float64 {
	return math.Round(v/unit) * unit
}

// round rounds v to the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func oneOf(industry string, set []string) bool {
	return slices.Contains(set, industry)
}
