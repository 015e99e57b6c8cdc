// Package database defines the case store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
)

// Store persists onboarding cases keyed by application id.
//
// UpdateCase uses optimistic locking: c.Version must equal the stored
// version, otherwise domain.ErrConflict is returned. On success the stored
// and passed-in versions are incremented.
type Store interface {
	CreateCase(ctx context.Context, c *onboarding.Case) error
	GetCase(ctx context.Context, id string) (*onboarding.Case, error)
	UpdateCase(ctx context.Context, c *onboarding.Case) error
	// ListCases returns cases newest first, narrowed by the filter.
	ListCases(ctx context.Context, f onboarding.ListFilter) ([]onboarding.Case, error)
}
