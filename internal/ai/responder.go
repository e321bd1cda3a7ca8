// Package ai turns raw tweet text into a cleaned, length-bounded reply
// using an OpenAI assistant (Assistants API v2).
//
// One Respond call is one thread: the tweet text goes in as a user message,
// a run is started for the configured assistant, and the run is polled at a
// fixed interval until it reaches a terminal state. Polling carries a hard
// deadline so a stuck run can never suspend the scheduler indefinitely.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/joris1013/twitterbot-x/internal/config"
)

// Responder produces assistant replies for matched tweets. Stateless across
// calls; every tweet gets a fresh thread.
type Responder struct {
	client       openai.Client
	assistantID  string
	pollInterval time.Duration // run status re-check cadence
	pollTimeout  time.Duration // hard bound on one run's total wait
	maxLength    int           // reply length cap in runes
	logger       *slog.Logger
}

// NewResponder creates a responder for the configured assistant.
func NewResponder(cfg config.Config, logger *slog.Logger) *Responder {
	return &Responder{
		client:       openai.NewClient(option.WithAPIKey(cfg.OpenAI.APIKey)),
		assistantID:  cfg.OpenAI.AssistantID,
		pollInterval: cfg.OpenAI.PollInterval,
		pollTimeout:  cfg.OpenAI.PollTimeout,
		maxLength:    cfg.Bot.ReplyMaxLength,
		logger:       logger.With("component", "ai"),
	}
}

// Respond submits text as a conversational turn and returns the assistant's
// reply, cleaned and truncated to the configured length. Any terminal
// failure state or transport error is returned as an error; callers treat
// that as "no reply this cycle".
func (r *Responder) Respond(ctx context.Context, author, text string) (string, error) {
	thread, err := r.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{
		Messages: []openai.BetaThreadNewParamsMessage{{
			Role: "user",
			Content: openai.BetaThreadNewParamsMessageContentUnion{
				OfString: openai.String(text),
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}

	run, err := r.client.Beta.Threads.Runs.New(ctx, thread.ID, openai.BetaThreadRunNewParams{
		AssistantID: r.assistantID,
	})
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}

	if err := r.waitForRun(ctx, thread.ID, run.ID); err != nil {
		return "", err
	}

	reply, err := r.latestAssistantText(ctx, thread.ID)
	if err != nil {
		return "", err
	}

	cleaned := Truncate(CleanResponse(reply), r.maxLength)
	if cleaned == "" {
		return "", fmt.Errorf("assistant reply for @%s was empty after cleanup", author)
	}
	return cleaned, nil
}

// waitForRun polls the run until it completes, fails, or the poll deadline
// expires. requires_action is treated as failure: the bot's assistants do
// not use tools.
func (r *Responder) waitForRun(ctx context.Context, threadID, runID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.pollTimeout)
	defer cancel()

	for {
		run, err := r.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("poll run: %w", err)
		}

		switch run.Status {
		case "completed":
			return nil
		case "failed", "expired", "cancelled", "incomplete":
			return fmt.Errorf("run ended with status %s", run.Status)
		case "requires_action":
			return fmt.Errorf("run requires tool action, not supported")
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("poll run: %w", ctx.Err())
		case <-time.After(r.pollInterval):
		}
	}
}

// latestAssistantText fetches the newest message on the thread and
// concatenates its text blocks.
func (r *Responder) latestAssistantText(ctx context.Context, threadID string) (string, error) {
	msgs, err := r.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: "desc",
		Limit: openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	for _, msg := range msgs.Data {
		if msg.Role != "assistant" {
			continue
		}
		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text.Value)
			}
		}
		if sb.Len() > 0 {
			return sb.String(), nil
		}
	}
	return "", fmt.Errorf("thread %s has no assistant text reply", threadID)
}
