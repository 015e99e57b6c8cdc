// Package broadcast defines the port for pushing real-time events to
// connected reviewer dashboards.
package broadcast

import (
	"context"

	"github.com/Strob0t/OnboardForge/internal/domain/event"
)

// Event types pushed to dashboards. They mirror the case timeline.
const (
	EventApplicationSubmitted = string(event.TypeApplicationSubmitted)
	EventDecisionMade         = string(event.TypeDecisionMade)
	EventReviewPending        = string(event.TypeReviewPending)
	EventReviewResolved       = string(event.TypeReviewResolved)
)

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
