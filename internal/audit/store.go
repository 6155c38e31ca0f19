package audit

import (
	"context"
	"sync"
)

// RecentStore keeps the last N events in a ring buffer for the admin API.
// When full, the oldest event is overwritten.
type RecentStore struct {
	mu       sync.RWMutex
	events   []Event
	head     int
	count    int
	dropped  int64
	capacity int
}

// NewRecentStore creates a store holding up to capacity events.
func NewRecentStore(capacity int) *RecentStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RecentStore{events: make([]Event, capacity), capacity: capacity}
}

func (s *RecentStore) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == s.capacity {
		s.dropped++
	} else {
		s.count++
	}
	s.events[s.head] = e
	s.head = (s.head + 1) % s.capacity
	return nil
}

// ListRecent returns up to limit events, newest first.
func (s *RecentStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > s.count {
		limit = s.count
	}
	out := make([]Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.head - i + s.capacity) % s.capacity
		out = append(out, s.events[idx])
	}
	return out, nil
}

// Dropped reports how many events were overwritten.
func (s *RecentStore) Dropped() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}
