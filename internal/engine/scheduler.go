// Package engine is the central orchestrator of the bot.
//
// The scheduler runs one unending loop with a fixed sleep between passes
// (ticks). Each tick tries the three polling tasks in a fixed order —
// mentions, accounts, hashtags — entirely sequentially: a task runs to
// completion, including every rate-limit and pacing wait, before the next
// one is considered. A task only actually runs when its minimum interval
// since its last completed run has elapsed; otherwise the tick skips it.
//
// The scheduler owns all shared mutable state: the four sliding-window rate
// limiters (the accounts and hashtags tasks share the user-tweets budget),
// the per-task last-run times, and the dedup set of already-handled tweet
// ids. Tasks never fail the loop — every error is logged and degrades to
// "nothing this cycle". A panic inside a tick is recovered and answered
// with a longer cooldown sleep; only a shutdown signal ends the loop.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joris1013/twitterbot-x/internal/api"
	"github.com/joris1013/twitterbot-x/internal/config"
	"github.com/joris1013/twitterbot-x/pkg/types"
)

// Gateway is the slice of the social platform the scheduler's tasks consume.
type Gateway interface {
	Mentions(ctx context.Context) ([]types.Tweet, error)
	UserTweets(ctx context.Context, username string) ([]types.Tweet, error)
	SearchTweets(ctx context.Context, query string) ([]types.Tweet, error)
	TweetMetrics(ctx context.Context, tweetID string) (*types.TweetMetrics, error)
	Retweet(ctx context.Context, tweetID string) error
}

// Processor handles one matched tweet end to end.
type Processor interface {
	Process(ctx context.Context, tweet types.Tweet) error
}

// task names the three independent polling tasks.
type task string

const (
	taskMentions task = "mentions"
	taskAccounts task = "accounts"
	taskHashtags task = "hashtags"
)

// Per-run item caps, from the original bot's behavior.
const (
	maxMentionsPerRun  = 3 // unseen, recent mentions handled per mentions run
	maxItemsPerHashtag = 3 // candidates processed per hashtag per run
)

// Scheduler decides which task may run each tick and enforces the shared
// rate budgets. All state is in-memory and lost on restart.
type Scheduler struct {
	cfg      config.BotConfig
	gw       Gateway
	proc     Processor
	limiters *Limiters
	seen     *seenSet
	logger   *slog.Logger
	now      func() time.Time

	// Status surface. events carries activity to the status server; emit
	// never blocks the loop, a full channel just drops the event.
	events    chan api.Event
	summary   api.ConfigSummary
	startedAt time.Time

	mu       sync.Mutex // guards lastRun and counters
	lastRun  map[task]time.Time
	counters api.Counters
}

// New creates a scheduler owning fresh limiters and an empty dedup set.
func New(cfg config.Config, gw Gateway, proc Processor, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:       cfg.Bot,
		gw:        gw,
		proc:      proc,
		limiters:  NewLimiters(cfg.Limits),
		seen:      newSeenSet(),
		lastRun:   make(map[task]time.Time),
		logger:    logger.With("component", "scheduler"),
		now:       time.Now,
		events:    make(chan api.Event, 256),
		summary:   api.NewConfigSummary(cfg),
		startedAt: time.Now(),
	}
}

// Run executes the outer loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started",
		"tick_interval", s.cfg.TickInterval,
		"accounts", len(s.cfg.AccountsToMonitor)+len(s.cfg.AccountsToRetweet),
		"hashtags", len(s.cfg.Hashtags),
	)

	for {
		delay := s.cfg.TickInterval
		if err := s.tick(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("scheduler stopped")
				return
			}
			s.logger.Error("tick failed, cooling down", "error", err, "delay", s.cfg.ErrorDelay)
			s.mu.Lock()
			s.counters.Errors++
			s.mu.Unlock()
			s.emit(api.NewErrorEvent("tick", err))
			delay = s.cfg.ErrorDelay
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-time.After(delay):
		}
	}
}

// tick runs one pass: each task through its gate, then dedup eviction.
// A panic anywhere in a task surfaces as the returned error.
func (s *Scheduler) tick(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()

	s.runTask(ctx, taskMentions, s.cfg.MentionsInterval, s.checkMentions)
	s.runTask(ctx, taskAccounts, s.cfg.AccountsInterval, s.checkAccounts)
	s.runTask(ctx, taskHashtags, s.cfg.HashtagsInterval, s.checkHashtags)

	if dropped := s.seen.Evict(s.now().Add(-s.cfg.SeenRetention)); dropped > 0 {
		s.logger.Debug("evicted seen entries", "dropped", dropped, "remaining", s.seen.Len())
	}
	return ctx.Err()
}

// runTask runs body if the task's minimum interval has elapsed, recording
// the completion time afterwards. A gated task leaves last-run untouched.
func (s *Scheduler) runTask(ctx context.Context, t task, minInterval time.Duration, body func(context.Context)) {
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	last := s.lastRun[t]
	s.mu.Unlock()

	if since := s.now().Sub(last); !last.IsZero() && since < minInterval {
		s.logger.Info("task gated", "task", t, "next_in", (minInterval - since).Round(time.Second))
		return
	}

	s.logger.Info("task running", "task", t)
	started := s.now()
	body(ctx)

	// A body cut short by shutdown was not a run: recording it would gate
	// the task's next start for no reason.
	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.lastRun[t] = s.now()
	s.mu.Unlock()
	s.emit(api.NewTaskEvent(string(t), s.now().Sub(started)))
}

// Events exposes the activity stream for the status server.
func (s *Scheduler) Events() <-chan api.Event {
	return s.events
}

// Status assembles a point-in-time snapshot for the status server. Safe to
// call from any goroutine.
func (s *Scheduler) Status() api.Snapshot {
	s.mu.Lock()
	tasks := []api.TaskStatus{
		{Name: string(taskMentions), LastRun: s.lastRun[taskMentions], Interval: s.cfg.MentionsInterval.String()},
		{Name: string(taskAccounts), LastRun: s.lastRun[taskAccounts], Interval: s.cfg.AccountsInterval.String()},
		{Name: string(taskHashtags), LastRun: s.lastRun[taskHashtags], Interval: s.cfg.HashtagsInterval.String()},
	}
	counters := s.counters
	s.mu.Unlock()

	return api.Snapshot{
		Timestamp: s.now(),
		StartedAt: s.startedAt,
		DryRun:    s.summary.DryRun,
		Tasks:     tasks,
		Limiters: []api.LimiterStatus{
			limiterStatus("mentions", s.limiters.Mentions),
			limiterStatus("user_tweets", s.limiters.UserTweets),
			limiterStatus("search", s.limiters.Search),
			limiterStatus("retweet", s.limiters.Retweet),
		},
		SeenCount: s.seen.Len(),
		Counters:  counters,
		Config:    s.summary,
	}
}

func limiterStatus(name string, sw *SlidingWindow) api.LimiterStatus {
	return api.LimiterStatus{
		Name:     name,
		InFlight: sw.InFlight(),
		Capacity: sw.Capacity(),
		Window:   sw.Window().String(),
	}
}

// emit pushes an event to the status stream without ever blocking the loop.
func (s *Scheduler) emit(evt api.Event) {
	select {
	case s.events <- evt:
	default:
	}
}

func (s *Scheduler) recordProcessed(tw types.Tweet) {
	s.mu.Lock()
	s.counters.Processed++
	s.mu.Unlock()
	s.emit(api.NewProcessedEvent(tw.ID, tw.AuthorUsername, string(tw.Origin)))
}

func (s *Scheduler) recordRetweet(tweetID, account string) {
	s.mu.Lock()
	s.counters.Retweets++
	s.mu.Unlock()
	s.emit(api.NewRetweetEvent(tweetID, account))
}

// pause sleeps for d unless the context ends first. Returns false when the
// caller should abandon its task.
func (s *Scheduler) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
