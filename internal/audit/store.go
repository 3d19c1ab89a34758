package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the append-only persistence contract for audit records.
// Appends from concurrent requests must not lose writes; duplicates are
// tolerable, losses are not.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// ListByPrincipal returns records for a principal newer than since,
	// most recent first.
	ListByPrincipal(ctx context.Context, principalID int64, since time.Time) ([]Record, error)
	// ListByIP returns records from a source IP newer than since.
	ListByIP(ctx context.Context, ip string, since time.Time) ([]Record, error)
}

// MemoryStore is an in-memory Store used by tests and the scanner units.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append stores a copy of the record.
func (s *MemoryStore) Append(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// ListByPrincipal filters records by principal and window.
func (s *MemoryStore) ListByPrincipal(ctx context.Context, principalID int64, since time.Time) ([]Record, error) {
	return s.list(func(r Record) bool { return r.PrincipalID == principalID && r.At.After(since) })
}

// ListByIP filters records by source IP and window.
func (s *MemoryStore) ListByIP(ctx context.Context, ip string, since time.Time) ([]Record, error) {
	return s.list(func(r Record) bool { return r.SourceIP == ip && r.At.After(since) })
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns a snapshot of every stored record in append order.
func (s *MemoryStore) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MemoryStore) list(keep func(Record) bool) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
