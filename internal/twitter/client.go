// Package twitter implements the X API v2 client.
//
// The client talks to the v2 REST endpoints the bot needs:
//   - UserID:           GET  /users/me                       — cached after first call
//   - UserIDByUsername: GET  /users/by/username/:name
//   - IsVerified:       GET  /users/:id?user.fields=verified
//   - Mentions:         GET  /users/:id/mentions
//   - UserTweets:       GET  /users/:id/tweets               — recency-filtered client side
//   - SearchTweets:     GET  /tweets/search/recent
//   - TweetMetrics:     GET  /tweets/:id?tweet.fields=public_metrics
//   - ConversationID:   GET  /tweets/:id?tweet.fields=conversation_id
//   - CreateTweet:      POST /tweets                          — optionally as a reply
//   - Retweet/Unretweet, LikeTweet/UnlikeTweet
//
// Every request is OAuth 1.0a signed (user context) and goes through the
// requester in request.go for 429 compliance and bounded retry. Rate-budget
// admission is NOT done here: the scheduler owns the sliding windows and
// acquires them before calling in, since several tasks share one budget.
package twitter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/go-resty/resty/v2"

	"github.com/joris1013/twitterbot-x/internal/config"
	"github.com/joris1013/twitterbot-x/pkg/types"
)

// userObject is the X API v2 user shape (from includes.users or a user lookup).
type userObject struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Verified bool   `json:"verified"`
}

// tweetObject is the X API v2 tweet shape.
type tweetObject struct {
	ID             string              `json:"id"`
	Text           string              `json:"text"`
	AuthorID       string              `json:"author_id"`
	CreatedAt      time.Time           `json:"created_at"`
	ConversationID string              `json:"conversation_id"`
	PublicMetrics  *types.TweetMetrics `json:"public_metrics"`
}

type userEnvelope struct {
	Data userObject `json:"data"`
}

type tweetEnvelope struct {
	Data tweetObject `json:"data"`
}

type tweetListEnvelope struct {
	Data     []tweetObject `json:"data"`
	Includes struct {
		Users []userObject `json:"users"`
	} `json:"includes"`
}

type postEnvelope struct {
	Data struct {
		ID        string `json:"id"`
		Retweeted bool   `json:"retweeted"`
		Liked     bool   `json:"liked"`
	} `json:"data"`
}

// Client is the X API v2 REST client.
// It wraps a resty HTTP client with OAuth 1.0a signing and retry.
type Client struct {
	http            *resty.Client
	req             *requester
	userTweetMaxAge time.Duration // client-side recency filter for UserTweets
	dryRun          bool          // when true, mutating methods log and return success without HTTP calls
	logger          *slog.Logger

	mu     sync.Mutex
	userID string // authenticated user id, fetched once
	now    func() time.Time
}

// NewClient creates an X API client signed with the configured user context.
func NewClient(cfg config.Config, logger *slog.Logger) *Client {
	oauthCfg := oauth1.NewConfig(cfg.Twitter.APIKey, cfg.Twitter.APISecret)
	token := oauth1.NewToken(cfg.Twitter.AccessToken, cfg.Twitter.AccessTokenSecret)

	httpClient := resty.NewWithClient(oauthCfg.Client(oauth1.NoContext, token)).
		SetBaseURL(cfg.Twitter.BaseURL).
		SetTimeout(15*time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:            httpClient,
		req:             newRequester(cfg.Bot.MaxRetries, logger.With("component", "twitter")),
		userTweetMaxAge: cfg.Bot.AccountTweetMaxAge,
		dryRun:          cfg.DryRun,
		logger:          logger.With("component", "twitter"),
		now:             time.Now,
	}
}

// UserID returns the authenticated user's id, fetching it on first use.
func (c *Client) UserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	cached := c.userID
	c.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	var env userEnvelope
	_, err := c.req.do(ctx, "get me", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetResult(&env).Get("/users/me")
	})
	if err != nil {
		return "", err
	}
	if env.Data.ID == "" {
		return "", fmt.Errorf("get me: response missing user id")
	}

	c.mu.Lock()
	c.userID = env.Data.ID
	c.mu.Unlock()
	return env.Data.ID, nil
}

// UserIDByUsername resolves a username (without @) to a user id.
func (c *Client) UserIDByUsername(ctx context.Context, username string) (string, error) {
	var env userEnvelope
	_, err := c.req.do(ctx, "get user by username", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetResult(&env).Get("/users/by/username/" + username)
	})
	if err != nil {
		return "", err
	}
	if env.Data.ID == "" {
		return "", fmt.Errorf("get user by username: no user %q", username)
	}
	return env.Data.ID, nil
}

// IsVerified reports whether the given user carries a verified badge.
func (c *Client) IsVerified(ctx context.Context, userID string) (bool, error) {
	var env userEnvelope
	_, err := c.req.do(ctx, "get user", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParam("user.fields", "verified").
			SetResult(&env).
			Get("/users/" + userID)
	})
	if err != nil {
		return false, err
	}
	return env.Data.Verified, nil
}

// Mentions fetches the newest mentions of the authenticated user, with the
// author expansion joined into each tweet.
func (c *Client) Mentions(ctx context.Context) ([]types.Tweet, error) {
	userID, err := c.UserID(ctx)
	if err != nil {
		return nil, err
	}

	var env tweetListEnvelope
	_, err = c.req.do(ctx, "get mentions", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"max_results":  "5",
				"tweet.fields": "author_id,created_at,text,conversation_id",
				"expansions":   "author_id",
				"user.fields":  "username,verified",
			}).
			SetResult(&env).
			Get("/users/" + userID + "/mentions")
	})
	if err != nil {
		return nil, err
	}

	tweets := env.toTweets(types.OriginMention)
	c.logger.Info("fetched mentions", "count", len(tweets))
	return tweets, nil
}

// UserTweets fetches a user's recent original tweets (no retweets or
// replies), dropping anything older than the configured recency window.
// The endpoint has no lower time bound at this page size, so the filter
// runs client side.
func (c *Client) UserTweets(ctx context.Context, username string) ([]types.Tweet, error) {
	userID, err := c.UserIDByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	var env tweetListEnvelope
	_, err = c.req.do(ctx, "get user tweets", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"max_results":  "5",
				"tweet.fields": "public_metrics,created_at,conversation_id",
				"exclude":      "retweets,replies",
			}).
			SetResult(&env).
			Get("/users/" + userID + "/tweets")
	})
	if err != nil {
		return nil, err
	}

	cutoff := c.now().Add(-c.userTweetMaxAge)
	var recent []types.Tweet
	for _, tw := range env.Data {
		if !tw.CreatedAt.After(cutoff) {
			continue
		}
		recent = append(recent, types.Tweet{
			ID:             tw.ID,
			AuthorID:       userID,
			AuthorUsername: username,
			Text:           tw.Text,
			CreatedAt:      tw.CreatedAt,
			ConversationID: tw.ConversationID,
			Origin:         types.OriginMonitoredAccount,
		})
	}
	return recent, nil
}

// SearchTweets runs a recent-search query and joins the author expansion.
func (c *Client) SearchTweets(ctx context.Context, query string) ([]types.Tweet, error) {
	var env tweetListEnvelope
	_, err := c.req.do(ctx, "search tweets", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"query":        query,
				"max_results":  "50",
				"tweet.fields": "public_metrics,created_at,author_id,conversation_id",
				"expansions":   "author_id",
				"user.fields":  "username,verified",
			}).
			SetResult(&env).
			Get("/tweets/search/recent")
	})
	if err != nil {
		return nil, err
	}
	return env.toTweets(types.OriginHashtagSearch), nil
}

// TweetMetrics fetches live engagement counts for one tweet.
func (c *Client) TweetMetrics(ctx context.Context, tweetID string) (*types.TweetMetrics, error) {
	var env tweetEnvelope
	_, err := c.req.do(ctx, "get tweet metrics", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParam("tweet.fields", "public_metrics").
			SetResult(&env).
			Get("/tweets/" + tweetID)
	})
	if err != nil {
		return nil, err
	}
	if env.Data.PublicMetrics == nil {
		return nil, fmt.Errorf("get tweet metrics: response missing public_metrics")
	}
	return env.Data.PublicMetrics, nil
}

// ConversationID returns the conversation (thread) id a tweet belongs to.
func (c *Client) ConversationID(ctx context.Context, tweetID string) (string, error) {
	var env tweetEnvelope
	_, err := c.req.do(ctx, "get conversation id", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParam("tweet.fields", "conversation_id").
			SetResult(&env).
			Get("/tweets/" + tweetID)
	})
	if err != nil {
		return "", err
	}
	return env.Data.ConversationID, nil
}

// createTweetPayload is the POST /tweets body. Reply is set only when the
// tweet answers another one.
type createTweetPayload struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

// CreateTweet posts a tweet, optionally as a reply to replyToID.
func (c *Client) CreateTweet(ctx context.Context, text, replyToID string) error {
	if c.dryRun {
		c.logger.Info("DRY-RUN: would post tweet", "reply_to", replyToID, "text", text)
		return nil
	}

	payload := createTweetPayload{Text: text}
	if replyToID != "" {
		payload.Reply = &struct {
			InReplyToTweetID string `json:"in_reply_to_tweet_id"`
		}{InReplyToTweetID: replyToID}
	}

	var env postEnvelope
	_, err := c.req.do(ctx, "create tweet", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetBody(payload).SetResult(&env).Post("/tweets")
	})
	if err != nil {
		return err
	}
	if env.Data.ID == "" {
		return fmt.Errorf("create tweet: response missing tweet id")
	}
	c.logger.Info("tweet posted", "id", env.Data.ID, "reply_to", replyToID)
	return nil
}

// Retweet retweets the given tweet as the authenticated user.
func (c *Client) Retweet(ctx context.Context, tweetID string) error {
	if c.dryRun {
		c.logger.Info("DRY-RUN: would retweet", "tweet_id", tweetID)
		return nil
	}

	userID, err := c.UserID(ctx)
	if err != nil {
		return err
	}

	var env postEnvelope
	_, err = c.req.do(ctx, "retweet", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(map[string]string{"tweet_id": tweetID}).
			SetResult(&env).
			Post("/users/" + userID + "/retweets")
	})
	if err != nil {
		return err
	}
	if !env.Data.Retweeted {
		return fmt.Errorf("retweet %s: not confirmed", tweetID)
	}
	c.logger.Info("retweeted", "tweet_id", tweetID)
	return nil
}

// Unretweet removes a retweet.
func (c *Client) Unretweet(ctx context.Context, tweetID string) error {
	if c.dryRun {
		c.logger.Info("DRY-RUN: would unretweet", "tweet_id", tweetID)
		return nil
	}

	userID, err := c.UserID(ctx)
	if err != nil {
		return err
	}
	_, err = c.req.do(ctx, "unretweet", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).Delete("/users/" + userID + "/retweets/" + tweetID)
	})
	return err
}

// LikeTweet likes the given tweet.
func (c *Client) LikeTweet(ctx context.Context, tweetID string) error {
	if c.dryRun {
		c.logger.Info("DRY-RUN: would like", "tweet_id", tweetID)
		return nil
	}

	userID, err := c.UserID(ctx)
	if err != nil {
		return err
	}

	var env postEnvelope
	_, err = c.req.do(ctx, "like tweet", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetBody(map[string]string{"tweet_id": tweetID}).
			SetResult(&env).
			Post("/users/" + userID + "/likes")
	})
	return err
}

// UnlikeTweet removes a like.
func (c *Client) UnlikeTweet(ctx context.Context, tweetID string) error {
	if c.dryRun {
		c.logger.Info("DRY-RUN: would unlike", "tweet_id", tweetID)
		return nil
	}

	userID, err := c.UserID(ctx)
	if err != nil {
		return err
	}
	_, err = c.req.do(ctx, "unlike tweet", func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).Delete("/users/" + userID + "/likes/" + tweetID)
	})
	return err
}

// toTweets joins includes.users onto the tweet list and tags each tweet
// with its origin.
func (env *tweetListEnvelope) toTweets(origin types.Origin) []types.Tweet {
	users := make(map[string]userObject, len(env.Includes.Users))
	for _, u := range env.Includes.Users {
		users[u.ID] = u
	}

	tweets := make([]types.Tweet, 0, len(env.Data))
	for _, tw := range env.Data {
		u := users[tw.AuthorID]
		tweets = append(tweets, types.Tweet{
			ID:             tw.ID,
			AuthorID:       tw.AuthorID,
			AuthorUsername: u.Username,
			AuthorVerified: u.Verified,
			Text:           tw.Text,
			CreatedAt:      tw.CreatedAt,
			ConversationID: tw.ConversationID,
			Origin:         origin,
		})
	}
	return tweets
}
