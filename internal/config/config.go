// Package config defines all configuration for the bot.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// sensitive fields overridable via XBOT_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	DryRun  bool          `mapstructure:"dry_run"`
	Twitter TwitterConfig `mapstructure:"twitter"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Bot     BotConfig     `mapstructure:"bot"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Status  StatusConfig  `mapstructure:"status"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StatusConfig configures the optional local status server (JSON snapshot
// plus a WebSocket activity stream). Off by default. With no explicit
// allowlist only local and same-host browser origins may open the stream.
type StatusConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// TwitterConfig holds the X API v2 endpoint and OAuth 1.0a user credentials.
// All four credential fields are required for user-context requests
// (mentions, posting, retweeting).
type TwitterConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	APIKey            string `mapstructure:"api_key"`
	APISecret         string `mapstructure:"api_secret"`
	AccessToken       string `mapstructure:"access_token"`
	AccessTokenSecret string `mapstructure:"access_token_secret"`
}

// OpenAIConfig holds credentials and polling settings for the Assistants API.
// PollInterval is how often a run's status is re-checked; PollTimeout bounds
// the total wait for one run to finish.
type OpenAIConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	AssistantID  string        `mapstructure:"assistant_id"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollTimeout  time.Duration `mapstructure:"poll_timeout"`
}

// BotConfig tunes the scheduler: what to watch, how often each task may run,
// and the pauses the bot inserts between items so it reads like a person,
// not a firehose.
//
//   - TickInterval: fixed sleep between outer loop passes.
//   - ErrorDelay: longer sleep after a tick that panicked.
//   - MentionsInterval / AccountsInterval / HashtagsInterval: minimum gap
//     between two runs of the same task.
//   - MentionAgeLimit: mentions older than this are ignored (CLI-overridable).
//   - AccountTweetMaxAge: account-task tweets older than this are ignored.
//   - SeenRetention: how long a processed tweet id stays in the dedup set.
//   - MinLikes: hashtag candidates below this like count are skipped.
type BotConfig struct {
	TickInterval       time.Duration `mapstructure:"tick_interval"`
	ErrorDelay         time.Duration `mapstructure:"error_delay"`
	MentionsInterval   time.Duration `mapstructure:"mentions_interval"`
	AccountsInterval   time.Duration `mapstructure:"accounts_interval"`
	HashtagsInterval   time.Duration `mapstructure:"hashtags_interval"`
	MentionAgeLimit    time.Duration `mapstructure:"mention_age_limit"`
	AccountTweetMaxAge time.Duration `mapstructure:"account_tweet_max_age"`
	SeenRetention      time.Duration `mapstructure:"seen_retention"`

	MentionItemPause time.Duration `mapstructure:"mention_item_pause"`
	AccountItemPause time.Duration `mapstructure:"account_item_pause"`
	AccountPause     time.Duration `mapstructure:"account_pause"`
	HashtagItemPause time.Duration `mapstructure:"hashtag_item_pause"`
	HashtagPause     time.Duration `mapstructure:"hashtag_pause"`

	AccountsToMonitor []string `mapstructure:"accounts_to_monitor"`
	AccountsToRetweet []string `mapstructure:"accounts_to_retweet"`
	Hashtags          []string `mapstructure:"hashtags"`

	MinLikes       int  `mapstructure:"min_likes"`
	VerifiedOnly   bool `mapstructure:"verified_only"`
	MaxRetries     int  `mapstructure:"max_retries"`
	ReplyMaxLength int  `mapstructure:"reply_max_length"`
}

// LimitsConfig sets the per-window request budgets for each endpoint
// category. Window is the trailing window all four budgets share.
type LimitsConfig struct {
	Window     time.Duration `mapstructure:"window"`
	Mentions   int           `mapstructure:"mentions"`
	UserTweets int           `mapstructure:"user_tweets"`
	Search     int           `mapstructure:"search"`
	Retweet    int           `mapstructure:"retweet"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides.
// Sensitive fields use env vars: XBOT_TWITTER_API_KEY, XBOT_TWITTER_API_SECRET,
// XBOT_TWITTER_ACCESS_TOKEN, XBOT_TWITTER_ACCESS_TOKEN_SECRET,
// XBOT_OPENAI_API_KEY, XBOT_OPENAI_ASSISTANT_ID.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("XBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Override sensitive fields from env
	if key := os.Getenv("XBOT_TWITTER_API_KEY"); key != "" {
		cfg.Twitter.APIKey = key
	}
	if secret := os.Getenv("XBOT_TWITTER_API_SECRET"); secret != "" {
		cfg.Twitter.APISecret = secret
	}
	if tok := os.Getenv("XBOT_TWITTER_ACCESS_TOKEN"); tok != "" {
		cfg.Twitter.AccessToken = tok
	}
	if secret := os.Getenv("XBOT_TWITTER_ACCESS_TOKEN_SECRET"); secret != "" {
		cfg.Twitter.AccessTokenSecret = secret
	}
	if key := os.Getenv("XBOT_OPENAI_API_KEY"); key != "" {
		cfg.OpenAI.APIKey = key
	}
	if id := os.Getenv("XBOT_OPENAI_ASSISTANT_ID"); id != "" {
		cfg.OpenAI.AssistantID = id
	}
	if os.Getenv("XBOT_DRY_RUN") == "true" || os.Getenv("XBOT_DRY_RUN") == "1" {
		cfg.DryRun = true
	}

	return &cfg, nil
}

// setDefaults installs the bot's baseline constants: X API budgets per
// 15-minute window, the original task cadence, and the human-ish pauses.
func setDefaults(v *viper.Viper) {
	v.SetDefault("twitter.base_url", "https://api.twitter.com/2")

	v.SetDefault("openai.poll_interval", 500*time.Millisecond)
	v.SetDefault("openai.poll_timeout", 2*time.Minute)

	v.SetDefault("bot.tick_interval", time.Minute)
	v.SetDefault("bot.error_delay", 5*time.Minute)
	v.SetDefault("bot.mentions_interval", 3*time.Minute)
	v.SetDefault("bot.accounts_interval", 15*time.Minute)
	v.SetDefault("bot.hashtags_interval", 15*time.Minute)
	v.SetDefault("bot.mention_age_limit", 180*time.Minute)
	v.SetDefault("bot.account_tweet_max_age", 2*time.Hour)
	v.SetDefault("bot.seen_retention", time.Hour)
	v.SetDefault("bot.mention_item_pause", 5*time.Second)
	v.SetDefault("bot.account_item_pause", 15*time.Second)
	v.SetDefault("bot.account_pause", 30*time.Second)
	v.SetDefault("bot.hashtag_item_pause", 10*time.Second)
	v.SetDefault("bot.hashtag_pause", 10*time.Second)
	v.SetDefault("bot.min_likes", 25)
	v.SetDefault("bot.max_retries", 3)
	v.SetDefault("bot.reply_max_length", 280)

	v.SetDefault("limits.window", 15*time.Minute)
	v.SetDefault("limits.mentions", 5)
	v.SetDefault("limits.user_tweets", 10)
	v.SetDefault("limits.search", 5)
	v.SetDefault("limits.retweet", 3)

	v.SetDefault("status.enabled", false)
	v.SetDefault("status.port", 8088)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Twitter.APIKey == "" {
		return fmt.Errorf("twitter.api_key is required (set XBOT_TWITTER_API_KEY)")
	}
	if c.Twitter.APISecret == "" {
		return fmt.Errorf("twitter.api_secret is required (set XBOT_TWITTER_API_SECRET)")
	}
	if c.Twitter.AccessToken == "" {
		return fmt.Errorf("twitter.access_token is required (set XBOT_TWITTER_ACCESS_TOKEN)")
	}
	if c.Twitter.AccessTokenSecret == "" {
		return fmt.Errorf("twitter.access_token_secret is required (set XBOT_TWITTER_ACCESS_TOKEN_SECRET)")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required (set XBOT_OPENAI_API_KEY)")
	}
	if c.OpenAI.AssistantID == "" {
		return fmt.Errorf("openai.assistant_id is required (set XBOT_OPENAI_ASSISTANT_ID)")
	}
	if c.Bot.TickInterval <= 0 {
		return fmt.Errorf("bot.tick_interval must be > 0")
	}
	if c.Bot.MaxRetries < 0 {
		return fmt.Errorf("bot.max_retries must be >= 0")
	}
	if c.Bot.ReplyMaxLength <= 3 {
		return fmt.Errorf("bot.reply_max_length must be > 3")
	}
	if c.Limits.Window <= 0 {
		return fmt.Errorf("limits.window must be > 0")
	}
	for _, n := range []struct {
		name  string
		value int
	}{
		{"limits.mentions", c.Limits.Mentions},
		{"limits.user_tweets", c.Limits.UserTweets},
		{"limits.search", c.Limits.Search},
		{"limits.retweet", c.Limits.Retweet},
	} {
		if n.value <= 0 {
			return fmt.Errorf("%s must be > 0", n.name)
		}
	}
	if c.Status.Enabled && (c.Status.Port <= 0 || c.Status.Port > 65535) {
		return fmt.Errorf("status.port must be a valid port, got %d", c.Status.Port)
	}
	if len(c.Bot.AccountsToMonitor)+len(c.Bot.AccountsToRetweet)+len(c.Bot.Hashtags) == 0 {
		return fmt.Errorf("nothing to watch: configure bot.accounts_to_monitor, bot.accounts_to_retweet, or bot.hashtags")
	}
	return nil
}
