package triplog

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory. It is the default for the serve
// command when no file backend is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []Record
	for _, r := range s.records {
		if q.full(len(res)) {
			break
		}
		if q.Matches(r) {
			res = append(res, r)
		}
	}
	return res, nil
}

func (s *MemoryStore) Close() error { return nil }
