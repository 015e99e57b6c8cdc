// Package kvstore implements database.Store and eventstore.Store over any
// cache.Cache (ristretto, redis, NATS KV or the tiered combination).
//
// Each case is one JSON value under "case:<id>". A single index value lists
// every case id with its status, creation time and last write time so
// listings need no key scans. Writes are serialized by a process-local mutex, so the store
// assumes a single writer per backend.
package kvstore

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Strob0t/OnboardForge/internal/domain"
	"github.com/Strob0t/OnboardForge/internal/domain/onboarding"
	"github.com/Strob0t/OnboardForge/internal/port/cache"
)

const (
	casePrefix = "case:"
	indexKey   = "case-index"
)

// waiter is implemented by caches that apply writes asynchronously.
type waiter interface {
	Wait()
}

type indexEntry struct {
	ID        string            `json:"id"`
	Status    onboarding.Status `json:"status"`
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	// WrittenAt tracks the last Set of the case value, which restarts its ttl.
	WrittenAt time.Time `json:"written_at"`
}

// Store keeps cases in a key-value cache.
type Store struct {
	kv  cache.Cache
	ttl time.Duration
	mu  sync.Mutex
}

// NewStore wraps kv. ttl bounds how long a case is retained; zero keeps
// cases until the backend evicts them.
func NewStore(kv cache.Cache, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

func (s *Store) CreateCase(ctx context.Context, c *onboarding.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found, err := s.kv.Get(ctx, casePrefix+c.ID); err != nil {
		return fmt.Errorf("create case %s: %w", c.ID, err)
	} else if found {
		return fmt.Errorf("create case %s: %w", c.ID, domain.ErrConflict)
	}

	c.Version = 1
	if err := s.put(ctx, c, nil); err != nil {
		c.Version = 0
		return fmt.Errorf("create case %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) GetCase(ctx context.Context, id string) (*onboarding.Case, error) {
	data, found, err := s.kv.Get(ctx, casePrefix+id)
	if err != nil {
		return nil, fmt.Errorf("get case %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("get case %s: %w", id, domain.ErrNotFound)
	}
	var c onboarding.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode case %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) UpdateCase(ctx context.Context, c *onboarding.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, found, err := s.kv.Get(ctx, casePrefix+c.ID)
	if err != nil {
		return fmt.Errorf("update case %s: %w", c.ID, err)
	}
	if !found {
		return fmt.Errorf("update case %s: %w", c.ID, domain.ErrNotFound)
	}
	var cur onboarding.Case
	if err := json.Unmarshal(prev, &cur); err != nil {
		return fmt.Errorf("decode case %s: %w", c.ID, err)
	}
	if cur.Version != c.Version {
		return fmt.Errorf("update case %s: %w", c.ID, domain.ErrConflict)
	}

	c.Version++
	if err := s.put(ctx, c, prev); err != nil {
		c.Version--
		return fmt.Errorf("update case %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) ListCases(ctx context.Context, f onboarding.ListFilter) ([]onboarding.Case, error) {
	s.mu.Lock()
	idx, err := s.loadIndex(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}

	slices.SortFunc(idx, func(a, b indexEntry) int {
		if n := b.CreatedAt.Compare(a.CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(b.ID, a.ID)
	})

	out := make([]onboarding.Case, 0, len(idx))
	for _, e := range idx {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		c, err := s.GetCase(ctx, e.ID)
		if err != nil {
			// Expired or evicted entries drop out of listings.
			continue
		}
		out = append(out, *c)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// put writes the case and its index entry. prev holds the stored bytes the
// write replaces, nil for a new case; it is written back if the index update
// fails. Callers hold s.mu.
func (s *Store) put(ctx context.Context, c *onboarding.Case, prev []byte) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	idx, err := s.loadIndex(ctx)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, casePrefix+c.ID, data, s.ttl); err != nil {
		return err
	}
	s.settle()

	entry := indexEntry{ID: c.ID, Status: c.Status, Version: c.Version, CreatedAt: c.CreatedAt, WrittenAt: time.Now()}
	if i := slices.IndexFunc(idx, func(e indexEntry) bool { return e.ID == c.ID }); i >= 0 {
		idx[i] = entry
	} else {
		idx = append(idx, entry)
	}
	if err := s.saveIndex(ctx, idx); err != nil {
		s.restore(ctx, c.ID, prev)
		return err
	}
	return nil
}

// restore puts back the case bytes a failed put replaced.
func (s *Store) restore(ctx context.Context, id string, prev []byte) {
	key := casePrefix + id
	var err error
	if prev == nil {
		err = s.kv.Delete(ctx, key)
	} else {
		err = s.kv.Set(ctx, key, prev, s.ttl)
	}
	if err != nil {
		slog.WarnContext(ctx, "case rollback failed", "case_id", id, "error", err)
	}
	s.settle()
}

func (s *Store) loadIndex(ctx context.Context) ([]indexEntry, error) {
	data, found, err := s.kv.Get(ctx, indexKey)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if !found {
		return nil, nil
	}
	var idx []indexEntry
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return idx, nil
}

func (s *Store) saveIndex(ctx context.Context, idx []indexEntry) error {
	if s.ttl > 0 {
		cutoff := time.Now().Add(-s.ttl)
		idx = slices.DeleteFunc(idx, func(e indexEntry) bool {
			written := e.WrittenAt
			if written.IsZero() {
				written = e.CreatedAt
			}
			return written.Before(cutoff)
		})
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := s.kv.Set(ctx, indexKey, data, 0); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	s.settle()
	return nil
}

func (s *Store) settle() {
	if w, ok := s.kv.(waiter); ok {
		w.Wait()
	}
}
