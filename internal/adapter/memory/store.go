// Package memory provides the default in-process case store and case
// timeline. Cases are held as JSON snapshots so callers never share
// mutable state with the store.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
)

type snapshot struct {
	data []byte
	c    onboarding.Case // decoded header fields used for listing
}

// Store implements database.Store in memory.
type Store struct {
	mu    sync.RWMutex
	cases map[string]snapshot
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{cases: make(map[string]snapshot)}
}

func (s *Store) CreateCase(_ context.Context, c *onboarding.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.cases[c.ID]; exists {
		return fmt.Errorf("create case %s: %w", c.ID, domain.ErrConflict)
	}
	c.Version = 1
	snap, err := encode(c)
	if err != nil {
		c.Version = 0
		return err
	}
	s.cases[c.ID] = snap
	return nil
}

func (s *Store) GetCase(_ context.Context, id string) (*onboarding.Case, error) {
	s.mu.RLock()
	snap, ok := s.cases[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get case %s: %w", id, domain.ErrNotFound)
	}
	return decode(snap.data)
}

func (s *Store) UpdateCase(_ context.Context, c *onboarding.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.cases[c.ID]
	if !ok {
		return fmt.Errorf("update case %s: %w", c.ID, domain.ErrNotFound)
	}
	if cur.c.Version != c.Version {
		return fmt.Errorf("update case %s: %w", c.ID, domain.ErrConflict)
	}
	c.Version++
	snap, err := encode(c)
	if err != nil {
		c.Version--
		return err
	}
	s.cases[c.ID] = snap
	return nil
}

func (s *Store) ListCases(_ context.Context, f onboarding.ListFilter) ([]onboarding.Case, error) {
	s.mu.RLock()
	matched := make([]snapshot, 0, len(s.cases))
	for _, snap := range s.cases {
		if f.Status != "" && snap.c.Status != f.Status {
			continue
		}
		matched = append(matched, snap)
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b snapshot) int {
		if n := b.c.CreatedAt.Compare(a.c.CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(b.c.ID, a.c.ID)
	})
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	out := make([]onboarding.Case, 0, len(matched))
	for _, snap := range matched {
		c, err := decode(snap.data)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func encode(c *onboarding.Case) (snapshot, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return snapshot{}, fmt.Errorf("encode case %s: %w", c.ID, err)
	}
	return snapshot{
		data: data,
		c:    onboarding.Case{ID: c.ID, Status: c.Status, Version: c.Version, CreatedAt: c.CreatedAt},
	}, nil
}

func decode(data []byte) (*onboarding.Case, error) {
	var c onboarding.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode case: %w", err)
	}
	return &c, nil
}
