package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Strob0t/OnboardForge/internal/domain/event"
	"github.com/Strob0t/OnboardForge/internal/port/cache"
)

const eventsPrefix = "case-events:"

// EventStore keeps each case's timeline as one JSON array value.
type EventStore struct {
	kv     cache.Cache
	ttl    time.Duration
	mu     sync.Mutex
	nextID int64
}

// NewEventStore wraps kv with the same retention as the case store.
func NewEventStore(kv cache.Cache, ttl time.Duration) *EventStore {
	return &EventStore{kv: kv, ttl: ttl}
}

func (s *EventStore) Append(ctx context.Context, ev *event.CaseEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.LoadByCase(ctx, ev.CaseID)
	if err != nil {
		return err
	}
	s.nextID++
	ev.ID = s.nextID
	ev.Version = len(events) + 1
	events = append(events, *ev)

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events for %s: %w", ev.CaseID, err)
	}
	if err := s.kv.Set(ctx, eventsPrefix+ev.CaseID, data, s.ttl); err != nil {
		return fmt.Errorf("append event for %s: %w", ev.CaseID, err)
	}
	if w, ok := s.kv.(waiter); ok {
		w.Wait()
	}
	return nil
}

func (s *EventStore) LoadByCase(ctx context.Context, caseID string) ([]event.CaseEvent, error) {
	data, found, err := s.kv.Get(ctx, eventsPrefix+caseID)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", caseID, err)
	}
	events := []event.CaseEvent{}
	if !found {
		return events, nil
	}
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode events for %s: %w", caseID, err)
	}
	return events, nil
}
