// Package types defines shared data structures used across all packages.
//
// This package is the common vocabulary for the bot — matched tweets,
// engagement metrics, and the origin tags that say which polling task
// surfaced an item. It has no dependencies on internal packages, so it can
// be imported by any layer.
package types

import "time"

// Origin identifies which polling task surfaced a tweet.
type Origin string

const (
	OriginMention          Origin = "mention"           // a post referencing the bot's account
	OriginMonitoredAccount Origin = "monitored_account" // a post from a watched account
	OriginHashtagSearch    Origin = "hashtag_search"    // a recent-search hit for a watched hashtag
)

// Tweet is one matched item flowing from a polling task to the processor.
// AuthorUsername and AuthorVerified come from the API's user expansion and
// may be zero when the expansion did not include this author.
type Tweet struct {
	ID             string
	AuthorID       string
	AuthorUsername string
	AuthorVerified bool
	Text           string
	CreatedAt      time.Time
	ConversationID string
	Origin         Origin
}

// Age returns how old the tweet is relative to now.
func (t Tweet) Age(now time.Time) time.Duration {
	return now.Sub(t.CreatedAt)
}

// TweetMetrics holds public engagement counts for one tweet.
type TweetMetrics struct {
	LikeCount    int `json:"like_count"`
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	QuoteCount   int `json:"quote_count"`
}
