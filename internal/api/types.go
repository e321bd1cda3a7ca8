package api

import (
	"time"

	"github.com/joris1013/twitterbot-x/internal/config"
)

// Snapshot is the complete bot state served at /api/snapshot and pushed to
// every stream client on connect.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp"`
	StartedAt time.Time `json:"started_at"`
	DryRun    bool      `json:"dry_run"`

	// Per-task scheduling state
	Tasks []TaskStatus `json:"tasks"`

	// Per-endpoint budget usage
	Limiters []LimiterStatus `json:"limiters"`

	// Dedup set
	SeenCount int `json:"seen_count"`

	// Lifetime activity counters
	Counters Counters `json:"counters"`

	// Watch configuration
	Config ConfigSummary `json:"config"`
}

// TaskStatus reports when a polling task last ran and how often it may run.
type TaskStatus struct {
	Name     string    `json:"name"`
	LastRun  time.Time `json:"last_run,omitempty"`
	Interval string    `json:"interval"`
}

// LimiterStatus reports one sliding window's current usage.
type LimiterStatus struct {
	Name     string `json:"name"`
	InFlight int    `json:"in_flight"`
	Capacity int    `json:"capacity"`
	Window   string `json:"window"`
}

// Counters are lifetime totals since the process started.
type Counters struct {
	Processed int64 `json:"processed"`
	Retweets  int64 `json:"retweets"`
	Errors    int64 `json:"errors"`
}

// ConfigSummary is the watch configuration, without credentials.
type ConfigSummary struct {
	TickInterval     string `json:"tick_interval"`
	MentionsInterval string `json:"mentions_interval"`
	AccountsInterval string `json:"accounts_interval"`
	HashtagsInterval string `json:"hashtags_interval"`

	AccountsToMonitor []string `json:"accounts_to_monitor"`
	AccountsToRetweet []string `json:"accounts_to_retweet"`
	Hashtags          []string `json:"hashtags"`

	MinLikes     int  `json:"min_likes"`
	VerifiedOnly bool `json:"verified_only"`
	DryRun       bool `json:"dry_run"`
}

// NewConfigSummary extracts the publishable parts of the bot configuration.
func NewConfigSummary(cfg config.Config) ConfigSummary {
	return ConfigSummary{
		TickInterval:     cfg.Bot.TickInterval.String(),
		MentionsInterval: cfg.Bot.MentionsInterval.String(),
		AccountsInterval: cfg.Bot.AccountsInterval.String(),
		HashtagsInterval: cfg.Bot.HashtagsInterval.String(),

		AccountsToMonitor: cfg.Bot.AccountsToMonitor,
		AccountsToRetweet: cfg.Bot.AccountsToRetweet,
		Hashtags:          cfg.Bot.Hashtags,

		MinLikes:     cfg.Bot.MinLikes,
		VerifiedOnly: cfg.Bot.VerifiedOnly,
		DryRun:       cfg.DryRun,
	}
}
