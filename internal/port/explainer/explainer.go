// Package explainer defines the port for the advisory text generator.
package explainer

import "context"

// Explainer turns a prompt into narrative text. Implementations may fail or
// be slow; callers must treat the output as advisory only.
type Explainer interface {
	Explain(ctx context.Context, prompt string) (string, error)
}
