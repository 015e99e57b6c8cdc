// Package eventstore defines the port interface for the append-only case
// timeline.
package eventstore

import (
	"context"

	"github.com/Strob0t/OnboardForge/internal/domain/event"
)

// Store appends and loads case events.
type Store interface {
	// Append persists ev, assigning its ID and the next per-case Version.
	Append(ctx context.Context, ev *event.CaseEvent) error

	// LoadByCase returns the case's events ordered by version.
	LoadByCase(ctx context.Context, caseID string) ([]event.CaseEvent, error)
}
