package api

import (
	"time"
)

// Event is the wrapper for everything pushed over the activity stream.
type Event struct {
	Type      string    `json:"type"` // "snapshot", "processed", "retweet", "task", "error"
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// ProcessedEvent is emitted after a matched tweet went through the
// processor, whether it was answered or deliberately skipped.
type ProcessedEvent struct {
	TweetID string `json:"tweet_id"`
	Author  string `json:"author"`
	Origin  string `json:"origin"` // which task surfaced the tweet
}

// RetweetEvent is emitted after a watched account's tweet is retweeted.
type RetweetEvent struct {
	TweetID string `json:"tweet_id"`
	Account string `json:"account"`
}

// TaskEvent is emitted when a polling task finishes a run.
type TaskEvent struct {
	Task     string `json:"task"`
	Duration string `json:"duration"`
}

// ErrorEvent is emitted when a tick fails and the bot enters its cooldown.
type ErrorEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// NewProcessedEvent wraps a handled tweet.
func NewProcessedEvent(tweetID, author, origin string) Event {
	return Event{
		Type:      "processed",
		Timestamp: time.Now(),
		Data:      ProcessedEvent{TweetID: tweetID, Author: author, Origin: origin},
	}
}

// NewRetweetEvent wraps a completed retweet.
func NewRetweetEvent(tweetID, account string) Event {
	return Event{
		Type:      "retweet",
		Timestamp: time.Now(),
		Data:      RetweetEvent{TweetID: tweetID, Account: account},
	}
}

// NewTaskEvent wraps a finished task run.
func NewTaskEvent(task string, d time.Duration) Event {
	return Event{
		Type:      "task",
		Timestamp: time.Now(),
		Data:      TaskEvent{Task: task, Duration: d.Round(time.Millisecond).String()},
	}
}

// NewErrorEvent wraps a failure worth showing on the stream.
func NewErrorEvent(stage string, err error) Event {
	return Event{
		Type:      "error",
		Timestamp: time.Now(),
		Data:      ErrorEvent{Stage: stage, Message: err.Error()},
	}
}
