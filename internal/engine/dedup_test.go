package engine

import (
	"testing"
	"time"
)

func TestSeenSetAddContains(t *testing.T) {
	t.Parallel()
	s := newSeenSet()
	now := time.Now()

	if s.Contains("1") {
		t.Error("empty set reports Contains(\"1\") = true")
	}
	s.Add("1", now)
	if !s.Contains("1") {
		t.Error("Contains(\"1\") = false after Add")
	}
	if got := s.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestSeenSetEvictsOnlyExpired(t *testing.T) {
	t.Parallel()
	s := newSeenSet()
	now := time.Now()

	s.Add("old", now.Add(-2*time.Hour))
	s.Add("fresh", now)

	dropped := s.Evict(now.Add(-time.Hour))
	if dropped != 1 {
		t.Errorf("Evict dropped %d, want 1", dropped)
	}
	if s.Contains("old") {
		t.Error("expired id still present after eviction")
	}
	if !s.Contains("fresh") {
		t.Error("fresh id evicted")
	}
}

func TestSeenSetKeepsFirstSeenOnReAdd(t *testing.T) {
	t.Parallel()
	s := newSeenSet()
	now := time.Now()

	// Re-adding later must not extend retention past the first sighting.
	s.Add("1", now.Add(-2*time.Hour))
	s.Add("1", now)

	if dropped := s.Evict(now.Add(-time.Hour)); dropped != 1 {
		t.Errorf("Evict dropped %d, want 1 (first-seen time must win)", dropped)
	}
}
