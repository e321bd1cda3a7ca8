// dedup.go remembers which tweet ids have already been handled so a task
// restart within a tick, or the same tweet surfacing via two tasks, never
// produces a second reply.
package engine

import (
	"sync"
	"time"
)

// seenSet is a bounded-lifetime set of processed tweet ids. Each entry keeps
// the time it was first recorded; eviction keys on that recorded time, never
// on the id itself (tweet ids are not timestamps).
type seenSet struct {
	mu      sync.Mutex
	entries map[string]time.Time // id -> first seen
}

func newSeenSet() *seenSet {
	return &seenSet{entries: make(map[string]time.Time)}
}

// Add records id as processed at time now. Re-adding refreshes nothing:
// the original first-seen time is kept so retention measures from the
// first processing.
func (s *seenSet) Add(id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		s.entries[id] = now
	}
}

// Contains reports whether id is still held.
func (s *seenSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// Evict drops entries first seen at or before cutoff and returns how many
// were removed.
func (s *seenSet) Evict(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	dropped := 0
	for id, seen := range s.entries {
		if !seen.After(cutoff) {
			delete(s.entries, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of ids currently held.
func (s *seenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
