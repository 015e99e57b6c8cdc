package scoring

import (
	"math"

	"github.com/Strob0t/OnboardForge/internal/domain/application"
	"github.com/Strob0t/OnboardForge/internal/domain/assessment"
)

// Document verdicts.
const (
	DocumentsComplete   = "COMPLETE"
	DocumentsIncomplete = "INCOMPLETE"
)

// requiredDocuments are checked in this order; the order is reflected in
// the missing list.
var requiredDocuments = []struct {
	name string
	has  func(application.Documents) bool
}{
	{"tax_id", func(d application.Documents) bool { return d.TaxID }},
	{"license", func(d application.Documents) bool { return d.License }},
	{"bank_statement", func(d application.Documents) bool { return d.BankStatement }},
}

// AssessDocuments checks the required documents for completeness. The
// score is the share of required documents present.
func AssessDocuments(app *application.Application) assessment.DocumentResult {
	res := assessment.DocumentResult{
		Provided: make(map[string]bool, len(requiredDocuments)),
		Missing:  []string{},
	}
	for _, rd := range requiredDocuments {
		ok := rd.has(app.Documents)
		res.Provided[rd.name] = ok
		if !ok {
			res.Missing = append(res.Missing, rd.name)
		}
	}

	present := len(requiredDocuments) - len(res.Missing)
	res.Score = clamp(int(math.Round(100 * float64(present) / float64(len(requiredDocuments)))))
	res.Complete = len(res.Missing) == 0
	res.Status = DocumentsIncomplete
	if res.Complete {
		res.Status = DocumentsComplete
	}
	return res
}
