// ratelimit.go implements sliding-window rate limiting for the X API.
//
// The X API enforces per-endpoint limits measured in requests per 15-minute
// windows. A sliding-window log (rather than a token bucket) tracks the exact
// admission times, so no window of the configured length ever observes more
// admissions than the endpoint allows — the guarantee the API holds us to.
//
// The scheduler owns four windows:
//   - mentions:    5 per 15 min (GET /users/:id/mentions)
//   - user tweets: 10 per 15 min (GET /users/:id/tweets) — shared by the
//     accounts and hashtags tasks
//   - search:      5 per 15 min (GET /tweets/search/recent)
//   - retweet:     3 per 15 min (POST /users/:id/retweets)
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/joris1013/twitterbot-x/internal/config"
)

// SlidingWindow admits at most capacity events per trailing window.
// Callers block in Wait() until admission would not exceed the budget,
// or until the context is cancelled.
type SlidingWindow struct {
	mu       sync.Mutex
	capacity int           // max admissions per window
	window   time.Duration // trailing window length
	log      []time.Time   // admission times, oldest first
	now      func() time.Time
}

// NewSlidingWindow creates a limiter admitting capacity events per window.
func NewSlidingWindow(capacity int, window time.Duration) *SlidingWindow {
	return &SlidingWindow{
		capacity: capacity,
		window:   window,
		log:      make([]time.Time, 0, capacity),
		now:      time.Now,
	}
}

// Wait blocks until one more admission fits inside the trailing window,
// records the admission, and returns nil. Returns ctx.Err() on cancellation.
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for {
		sw.mu.Lock()
		now := sw.now()
		sw.evictLocked(now)

		if len(sw.log) < sw.capacity {
			sw.log = append(sw.log, now)
			sw.mu.Unlock()
			return nil
		}

		// Window is full: the next slot opens when the oldest admission
		// falls out of the trailing window. Re-evaluate after the wait so
		// stacked waiters each reclaim exactly one slot.
		wait := sw.log[0].Add(sw.window).Sub(now)
		sw.mu.Unlock()

		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// Capacity returns the per-window admission budget.
func (sw *SlidingWindow) Capacity() int { return sw.capacity }

// Window returns the trailing window length.
func (sw *SlidingWindow) Window() time.Duration { return sw.window }

// InFlight returns the number of admissions currently inside the window.
func (sw *SlidingWindow) InFlight() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.evictLocked(sw.now())
	return len(sw.log)
}

// evictLocked drops admissions older than now-window. Caller holds mu.
func (sw *SlidingWindow) evictLocked(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for i < len(sw.log) && !sw.log[i].After(cutoff) {
		i++
	}
	if i > 0 {
		sw.log = append(sw.log[:0], sw.log[i:]...)
	}
}

// Limiters groups the per-endpoint windows the scheduler hands to its tasks.
// Both the accounts and hashtags tasks draw on UserTweets, so one shared
// instance enforces the combined budget.
type Limiters struct {
	Mentions   *SlidingWindow // GET /users/:id/mentions
	UserTweets *SlidingWindow // GET /users/:id/tweets and /tweets/:id
	Search     *SlidingWindow // GET /tweets/search/recent
	Retweet    *SlidingWindow // POST /users/:id/retweets
}

// NewLimiters creates limiters for the given per-window budgets.
func NewLimiters(cfg config.LimitsConfig) *Limiters {
	return &Limiters{
		Mentions:   NewSlidingWindow(cfg.Mentions, cfg.Window),
		UserTweets: NewSlidingWindow(cfg.UserTweets, cfg.Window),
		Search:     NewSlidingWindow(cfg.Search, cfg.Window),
		Retweet:    NewSlidingWindow(cfg.Retweet, cfg.Window),
	}
}
