package processor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/joris1013/twitterbot-x/internal/config"
	"github.com/joris1013/twitterbot-x/pkg/types"
)

type fakeResponder struct {
	reply string
	err   error

	gotAuthor string
	gotText   string
}

func (r *fakeResponder) Respond(ctx context.Context, author, text string) (string, error) {
	r.gotAuthor, r.gotText = author, text
	return r.reply, r.err
}

type fakePublisher struct {
	createErr error

	posted  []string // "text|replyTo" pairs
	lookups []string // user ids checked for verification

	verified map[string]bool
}

func (p *fakePublisher) CreateTweet(ctx context.Context, text, replyToID string) error {
	if p.createErr != nil {
		return p.createErr
	}
	p.posted = append(p.posted, text+"|"+replyToID)
	return nil
}

func (p *fakePublisher) IsVerified(ctx context.Context, userID string) (bool, error) {
	p.lookups = append(p.lookups, userID)
	return p.verified[userID], nil
}

func newTestProcessor(verifiedOnly bool, r Responder, pub Publisher) *Processor {
	cfg := config.Config{Bot: config.BotConfig{VerifiedOnly: verifiedOnly}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, r, pub, logger)
}

func testTweet() types.Tweet {
	return types.Tweet{
		ID:             "100",
		AuthorID:       "7",
		AuthorUsername: "alice",
		Text:           "what do you think about this?",
		Origin:         types.OriginMention,
	}
}

func TestProcessPostsReply(t *testing.T) {
	t.Parallel()
	resp := &fakeResponder{reply: "here is my take"}
	pub := &fakePublisher{}
	p := newTestProcessor(false, resp, pub)

	if err := p.Process(context.Background(), testTweet()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if resp.gotAuthor != "alice" || resp.gotText != "what do you think about this?" {
		t.Errorf("responder called with (%q, %q)", resp.gotAuthor, resp.gotText)
	}
	if len(pub.posted) != 1 || pub.posted[0] != "here is my take|100" {
		t.Errorf("posted %v, want one reply targeting tweet 100", pub.posted)
	}
}

func TestProcessVerifiedOnlySkipsUnverified(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{verified: map[string]bool{"7": false}}
	p := newTestProcessor(true, &fakeResponder{reply: "x"}, pub)

	// Skipping is not a failure: the item is simply not replied to.
	if err := p.Process(context.Background(), testTweet()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(pub.posted) != 0 {
		t.Errorf("posted %v, want nothing for an unverified author", pub.posted)
	}
}

func TestProcessVerifiedFlagSkipsLookup(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{}
	p := newTestProcessor(true, &fakeResponder{reply: "x"}, pub)

	tw := testTweet()
	tw.AuthorVerified = true // already joined from the expansion

	if err := p.Process(context.Background(), tw); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(pub.lookups) != 0 {
		t.Errorf("looked up %v, want no lookup when the flag is present", pub.lookups)
	}
	if len(pub.posted) != 1 {
		t.Errorf("posted %v, want one reply", pub.posted)
	}
}

func TestProcessVerifiedOnlyFallsBackToLookup(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{verified: map[string]bool{"7": true}}
	p := newTestProcessor(true, &fakeResponder{reply: "x"}, pub)

	if err := p.Process(context.Background(), testTweet()); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(pub.lookups) != 1 || pub.lookups[0] != "7" {
		t.Errorf("lookups = %v, want one lookup of author 7", pub.lookups)
	}
	if len(pub.posted) != 1 {
		t.Errorf("posted %v, want one reply after the lookup passes", pub.posted)
	}
}

func TestProcessResponderErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("assistant unavailable")
	pub := &fakePublisher{}
	p := newTestProcessor(false, &fakeResponder{err: boom}, pub)

	err := p.Process(context.Background(), testTweet())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the responder error", err)
	}
	if len(pub.posted) != 0 {
		t.Errorf("posted %v, want nothing when generation fails", pub.posted)
	}
}

func TestProcessPublishErrorPropagates(t *testing.T) {
	t.Parallel()
	boom := errors.New("duplicate content")
	pub := &fakePublisher{createErr: boom}
	p := newTestProcessor(false, &fakeResponder{reply: "x"}, pub)

	if err := p.Process(context.Background(), testTweet()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the publish error", err)
	}
}
