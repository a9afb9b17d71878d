// Package storage keeps the last-request timestamps used by the rate limiter.
package storage

import (
	"context"
	"sync"
	"time"
)

// Store maps a client key to the time of its last accepted request.
type Store interface {
	Get(ctx context.Context, key string) (time.Time, bool, error)
	Set(ctx context.Context, key string, at time.Time, ttl time.Duration) error
}

type entry struct {
	at      time.Time
	expires time.Time
}

// MemoryStore is a process-local Store. Its state does not survive a restart and is not
// shared between instances.
type MemoryStore struct {
	entries map[string]entry
	mu      sync.RWMutex
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, exists := s.entries[key]
	if !exists || (!e.expires.IsZero() && !s.now().Before(e.expires)) {
		return time.Time{}, false, nil
	}
	return e.at, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, at time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}

	e := entry{at: at}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Len returns the number of live and not yet swept entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
