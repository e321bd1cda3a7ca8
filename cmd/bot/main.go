// X Mention Bot — polls X for mentions, watched accounts, and hashtag
// matches, asks an OpenAI assistant for a reply, and posts it back.
//
// Architecture:
//
//	main.go                — entry point: flags, config, logger, signal handling
//	engine/scheduler.go    — the core loop: task gating, tick cadence, panic cooldown
//	engine/tasks.go        — the mentions / accounts / hashtags task bodies
//	engine/ratelimit.go    — sliding-window budgets shared across tasks
//	engine/dedup.go        — bounded-lifetime set of already-handled tweet ids
//	processor/processor.go — one matched tweet → AI reply → posted answer
//	ai/responder.go        — OpenAI Assistants run lifecycle + reply cleanup
//	twitter/client.go      — X API v2 REST client (OAuth 1.0a user context)
//	twitter/request.go     — 429 compliance waits + bounded retry backoff
//	api/server.go          — optional local status endpoint + activity stream
//
// The bot runs until interrupted. A task failure never exits the process;
// only SIGINT/SIGTERM (clean, exit 0) or a startup error (exit 1) does.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joris1013/twitterbot-x/internal/ai"
	"github.com/joris1013/twitterbot-x/internal/api"
	"github.com/joris1013/twitterbot-x/internal/config"
	"github.com/joris1013/twitterbot-x/internal/engine"
	"github.com/joris1013/twitterbot-x/internal/processor"
	"github.com/joris1013/twitterbot-x/internal/twitter"
)

func main() {
	var (
		cfgPath  string
		ageLimit int
	)

	rootCmd := &cobra.Command{
		Use:          "bot",
		Short:        "X mention bot with AI-generated replies",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, cfgPath, ageLimit)
		},
	}
	rootCmd.Flags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to config file")
	rootCmd.Flags().IntVar(&ageLimit, "age-limit", 0, "mention age limit in minutes (overrides config)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfgPath string, ageLimit int) error {
	// Secrets may live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("age-limit") {
		if ageLimit <= 0 {
			return fmt.Errorf("--age-limit must be a positive number of minutes")
		}
		cfg.Bot.MentionAgeLimit = time.Duration(ageLimit) * time.Minute
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	client := twitter.NewClient(*cfg, logger)
	responder := ai.NewResponder(*cfg, logger)
	proc := processor.New(*cfg, responder, client, logger)
	sched := engine.New(*cfg, client, proc, logger)

	if cfg.DryRun {
		logger.Warn("DRY-RUN MODE — no tweets will be posted")
	}
	logger.Info("x mention bot started",
		"mention_age_limit", cfg.Bot.MentionAgeLimit,
		"monitor", cfg.Bot.AccountsToMonitor,
		"retweet", cfg.Bot.AccountsToRetweet,
		"hashtags", cfg.Bot.Hashtags,
		"dry_run", cfg.DryRun,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Status.Enabled {
		statusSrv := api.NewServer(cfg.Status, sched, logger)
		go func() {
			if err := statusSrv.Start(); err != nil {
				logger.Error("status server failed", "error", err)
			}
		}()
		defer func() {
			if err := statusSrv.Stop(); err != nil {
				logger.Error("status server shutdown failed", "error", err)
			}
		}()
	}

	sched.Run(ctx)

	logger.Info("shutdown complete")
	return nil
}

func defaultConfigPath() string {
	if p := os.Getenv("XBOT_CONFIG"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
