package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/Strob0t/OnboardForge/internal/domain/event"
)

// EventStore implements eventstore.Store in memory.
type EventStore struct {
	mu     sync.RWMutex
	nextID int64
	events map[string][]event.CaseEvent
}

// NewEventStore returns an empty timeline store.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string][]event.CaseEvent)}
}

func (s *EventStore) Append(_ context.Context, ev *event.CaseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	ev.ID = s.nextID
	ev.Version = len(s.events[ev.CaseID]) + 1
	stored := *ev
	stored.Payload = slices.Clone(ev.Payload)
	s.events[ev.CaseID] = append(s.events[ev.CaseID], stored)
	return nil
}

func (s *EventStore) LoadByCase(_ context.Context, caseID string) ([]event.CaseEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.events[caseID]
	out := make([]event.CaseEvent, len(src))
	for i, ev := range src {
		ev.Payload = slices.Clone(ev.Payload)
		out[i] = ev
	}
	return out, nil
}
