package engine

import (
	"context"
	"testing"
	"time"
)

func TestSlidingWindowAdmitsUpToCapacity(t *testing.T) {
	t.Parallel()
	sw := NewSlidingWindow(5, time.Minute)

	for i := 0; i < 5; i++ {
		start := time.Now()
		if err := sw.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() returned error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
			t.Errorf("Wait() took %v, expected immediate (admission %d)", elapsed, i)
		}
	}
	if got := sw.InFlight(); got != 5 {
		t.Errorf("InFlight() = %d, want 5", got)
	}
}

func TestSlidingWindowBlocksWhenFull(t *testing.T) {
	t.Parallel()
	sw := NewSlidingWindow(1, 100*time.Millisecond)

	if err := sw.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Second admission must wait for the first to leave the window.
	start := time.Now()
	if err := sw.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	elapsed := time.Since(start)

	if elapsed < 50*time.Millisecond {
		t.Errorf("expected blocking ~100ms, got %v", elapsed)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("blocked too long: %v", elapsed)
	}
}

// No window of the configured length may ever observe more admissions than
// the capacity, regardless of how many sequential callers stack up.
func TestSlidingWindowNeverExceedsCapacityPerWindow(t *testing.T) {
	t.Parallel()
	const (
		capacity = 2
		window   = 120 * time.Millisecond
	)
	sw := NewSlidingWindow(capacity, window)

	admits := make([]time.Time, 0, 6)
	for i := 0; i < 6; i++ {
		if err := sw.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
		admits = append(admits, time.Now())
	}

	for i := 0; i+capacity < len(admits); i++ {
		gap := admits[i+capacity].Sub(admits[i])
		if gap < window-time.Millisecond {
			t.Errorf("admissions %d and %d only %v apart, window is %v", i, i+capacity, gap, window)
		}
	}
}

func TestSlidingWindowContextCancelled(t *testing.T) {
	t.Parallel()
	sw := NewSlidingWindow(1, time.Hour)

	if err := sw.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := sw.Wait(ctx); err == nil {
		t.Error("expected context error, got nil")
	}
}

func TestSlidingWindowEvictsExpired(t *testing.T) {
	t.Parallel()
	sw := NewSlidingWindow(3, 50*time.Millisecond)

	for i := 0; i < 3; i++ {
		if err := sw.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(80 * time.Millisecond)

	if got := sw.InFlight(); got != 0 {
		t.Errorf("InFlight() after window elapsed = %d, want 0", got)
	}
}
