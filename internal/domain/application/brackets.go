package application

import "strings"

// AgeBand is the operating-history bucket used by the scoring stages.
type AgeBand int

const (
	AgeUnknown AgeBand = iota
	AgeUnderOneYear
	AgeOneToTwoYears
	AgeThreeToFiveYears
	AgeFivePlusYears
)

// Business age labels offered by the form.
const (
	AgeLabelUnderOne    = "Less than 1 year"
	AgeLabelOneToTwo    = "1-2 years"
	AgeLabelThreeToFive = "3-5 years"
	AgeLabelFivePlus    = "5+ years"
)

// AgeLabels lists the business age options in display order.
var AgeLabels = []string{AgeLabelUnderOne, AgeLabelOneToTwo, AgeLabelThreeToFive, AgeLabelFivePlus}

// ParseAge maps a free-form business age label onto an AgeBand.
// Matching is by fragment so "5+ years" and "5+" are equivalent.
func ParseAge(label string) AgeBand {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(l, "5+"):
		return AgeFivePlusYears
	case strings.Contains(l, "3-5"):
		return AgeThreeToFiveYears
	case strings.Contains(l, "1-2"):
		return AgeOneToTwoYears
	case strings.Contains(l, "less than 1 year"):
		return AgeUnderOneYear
	}
	return AgeUnknown
}

func (b AgeBand) String() string {
	switch b {
	case AgeUnderOneYear:
		return AgeLabelUnderOne
	case AgeOneToTwoYears:
		return AgeLabelOneToTwo
	case AgeThreeToFiveYears:
		return AgeLabelThreeToFive
	case AgeFivePlusYears:
		return AgeLabelFivePlus
	}
	return "unknown"
}

type bracket struct {
	label    string
	estimate float64
}

// revenueBrackets are the annual revenue options offered by the form,
// each with the figure used when no exact revenue is supplied.
var revenueBrackets = []bracket{
	{"Under $100K", 50_000},
	{"$100K-$500K", 300_000},
	{"$500K-$1M", 750_000},
	{"$1M-$5M", 3_000_000},
	{"Over $5M", 8_000_000},
}

// RevenueBrackets lists the revenue bracket labels in display order.
func RevenueBrackets() []string {
	out := make([]string, len(revenueBrackets))
	for i, b := range revenueBrackets {
		out[i] = b.label
	}
	return out
}

// BracketRevenue returns the revenue estimate for a bracket label, or 0
// when the label is not recognized.
func BracketRevenue(label string) float64 {
	for _, b := range revenueBrackets {
		if strings.EqualFold(b.label, strings.TrimSpace(label)) {
			return b.estimate
		}
	}
	return 0
}

func isKnownBracket(label string) bool {
	return BracketRevenue(label) > 0
}
