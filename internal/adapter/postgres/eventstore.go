package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/event"
)

// EventStore implements eventstore.Store using PostgreSQL (append-only).
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append inserts ev with the next version for its case. Two writers racing
// on the same case surface as domain.ErrConflict.
func (s *EventStore) Append(ctx context.Context, ev *event.CaseEvent) error {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO case_events (case_id, event_type, payload, request_id, version, created_at)
		 SELECT $1, $2, $3, $4, COALESCE(MAX(version), 0) + 1, $5 FROM case_events WHERE case_id = $1
		 RETURNING id, version`,
		ev.CaseID, string(ev.Type), payload, ev.RequestID, ev.CreatedAt,
	).Scan(&ev.ID, &ev.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("append event for %s: %w", ev.CaseID, domain.ErrConflict)
		}
		return fmt.Errorf("append event for %s: %w", ev.CaseID, err)
	}
	return nil
}

// LoadByCase returns all events for the case, ordered by version ascending.
func (s *EventStore) LoadByCase(ctx context.Context, caseID string) ([]event.CaseEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, case_id, event_type, payload, request_id, version, created_at
		 FROM case_events WHERE case_id = $1 ORDER BY version ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", caseID, err)
	}
	defer rows.Close()

	var events []event.CaseEvent
	for rows.Next() {
		var ev event.CaseEvent
		if err := rows.Scan(&ev.ID, &ev.CaseID, &ev.Type, &ev.Payload, &ev.RequestID, &ev.Version, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	return orEmpty(events), rows.Err()
}
