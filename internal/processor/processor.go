// Package processor turns one matched tweet into a published reply.
//
// The processor is the bridge between a polling task and the outside world:
// it asks the AI responder for a reply to the tweet's text and posts that
// reply through the gateway. It holds no state between calls; all pacing,
// budgets, and dedup live in the scheduler.
package processor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joris1013/twitterbot-x/internal/config"
	"github.com/joris1013/twitterbot-x/pkg/types"
)

// Responder produces a reply for a tweet's text.
type Responder interface {
	Respond(ctx context.Context, author, text string) (string, error)
}

// Publisher posts replies and answers author lookups.
type Publisher interface {
	CreateTweet(ctx context.Context, text, replyToID string) error
	IsVerified(ctx context.Context, userID string) (bool, error)
}

// Processor generates and publishes a reply for one matched tweet.
type Processor struct {
	responder    Responder
	publisher    Publisher
	verifiedOnly bool // only reply to verified authors
	logger       *slog.Logger
}

// New creates a processor.
func New(cfg config.Config, responder Responder, publisher Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		responder:    responder,
		publisher:    publisher,
		verifiedOnly: cfg.Bot.VerifiedOnly,
		logger:       logger.With("component", "processor"),
	}
}

// Process produces a reply for the tweet and posts it as an answer.
// A returned error means "this item yielded nothing this cycle"; the caller
// logs it and moves on.
func (p *Processor) Process(ctx context.Context, tweet types.Tweet) error {
	log := p.logger.With(
		"reply_id", uuid.NewString(),
		"tweet_id", tweet.ID,
		"author", tweet.AuthorUsername,
		"origin", tweet.Origin,
	)

	if p.verifiedOnly {
		ok, err := p.authorVerified(ctx, tweet)
		if err != nil {
			return fmt.Errorf("verify author: %w", err)
		}
		if !ok {
			log.Info("skipping unverified author")
			return nil
		}
	}

	log.Info("generating reply", "text", snippet(tweet.Text, 50))

	reply, err := p.responder.Respond(ctx, tweet.AuthorUsername, tweet.Text)
	if err != nil {
		return fmt.Errorf("generate reply: %w", err)
	}

	if err := p.publisher.CreateTweet(ctx, reply, tweet.ID); err != nil {
		return fmt.Errorf("publish reply: %w", err)
	}

	log.Info("replied", "length", len(reply))
	return nil
}

// authorVerified prefers the verified flag already joined from the search/
// mention expansion and falls back to a user lookup when it is absent.
func (p *Processor) authorVerified(ctx context.Context, tweet types.Tweet) (bool, error) {
	if tweet.AuthorVerified {
		return true, nil
	}
	if tweet.AuthorID == "" {
		return false, nil
	}
	return p.publisher.IsVerified(ctx, tweet.AuthorID)
}

func snippet(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
