package types

import (
	"testing"
	"time"
)

func TestTweetAge(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tw := Tweet{CreatedAt: now.Add(-90 * time.Minute)}
	if got := tw.Age(now); got != 90*time.Minute {
		t.Errorf("Age() = %v, want 90m", got)
	}

	future := Tweet{CreatedAt: now.Add(time.Minute)}
	if got := future.Age(now); got >= 0 {
		t.Errorf("Age() of a future timestamp = %v, want negative", got)
	}
}
