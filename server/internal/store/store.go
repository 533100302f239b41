package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/decisionstack/decisionstack/pkg/types"
)

// Entry is a report together with the time it was last received.
type Entry struct {
	Report    types.Report
	UpdatedAt time.Time
}

// Store is a thread-safe in-memory report store, keyed by source ID.
// A background goroutine (Run) periodically evicts entries that have not
// been updated within the configured TTL.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		data: make(map[string]*Entry),
		ttl:  ttl,
		now:  time.Now,
	}
}

// TTL returns the configured entry lifetime.
func (s *Store) TTL() time.Duration { return s.ttl }

// Put stores or replaces the report for r.SourceID.
func (s *Store) Put(r types.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[r.SourceID] = &Entry{
		Report:    r,
		UpdatedAt: s.now(),
	}
}

// Get returns a copy of the live entry for sourceID. Stale entries that have
// not yet been evicted are reported as missing.
func (s *Store) Get(sourceID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[sourceID]
	if !ok || !e.UpdatedAt.After(s.now().Add(-s.ttl)) {
		return Entry{}, false
	}
	return *e, true
}

// List returns copies of all live entries sorted by source ID.
// Stale entries that have not yet been evicted are excluded.
func (s *Store) List() []Entry {
	s.mu.RLock()
	cutoff := s.now().Add(-s.ttl)
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		if e.UpdatedAt.After(cutoff) {
			out = append(out, *e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Report.SourceID < out[j].Report.SourceID })
	return out
}

// Count returns the total number of entries currently held, including stale ones.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Evict removes entries whose UpdatedAt is older than now minus TTL.
// It returns the number of entries removed.
func (s *Store) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-s.ttl)
	removed := 0
	for id, e := range s.data {
		if !e.UpdatedAt.After(cutoff) {
			delete(s.data, id)
			removed++
		}
	}
	return removed
}

// Run starts the background TTL eviction loop. It ticks at half the TTL interval
// (minimum 1 second). Run blocks until ctx is cancelled.
func (s *Store) Run(ctx context.Context) {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := s.Evict(now); n > 0 {
				slog.Debug("store: evicted stale reports", "count", n)
			}
		}
	}
}
