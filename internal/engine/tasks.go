// tasks.go holds the three polling task bodies. Each body degrades every
// failure to "skip this item or account for this cycle" — nothing here
// aborts the tick, and only context cancellation stops a task early.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// checkMentions fetches the newest mentions and replies to at most
// maxMentionsPerRun unseen, recent ones, pausing between items.
func (s *Scheduler) checkMentions(ctx context.Context) {
	if err := s.limiters.Mentions.Wait(ctx); err != nil {
		return
	}

	mentions, err := s.gw.Mentions(ctx)
	if err != nil {
		s.logger.Error("fetch mentions failed", "error", err)
		return
	}

	processed := 0
	for _, m := range mentions {
		if processed >= maxMentionsPerRun {
			break
		}
		if s.seen.Contains(m.ID) {
			continue
		}
		if age := m.Age(s.now()); age > s.cfg.MentionAgeLimit {
			s.logger.Info("skipping old mention", "tweet_id", m.ID, "age", age.Round(time.Second))
			continue
		}

		if err := s.proc.Process(ctx, m); err != nil {
			s.logger.Error("process mention failed", "tweet_id", m.ID, "error", err)
		} else {
			s.recordProcessed(m)
		}
		s.seen.Add(m.ID, s.now())
		processed++

		if !s.pause(ctx, s.cfg.MentionItemPause) {
			return
		}
	}
}

// checkAccounts walks every watched account. Tweets from monitor accounts go
// to the processor; tweets from retweet accounts are retweeted under the
// retweet budget. One account's failure never aborts the rest.
func (s *Scheduler) checkAccounts(ctx context.Context) {
	monitor := roleSet(s.cfg.AccountsToMonitor)
	retweet := roleSet(s.cfg.AccountsToRetweet)

	for _, username := range unionOrdered(s.cfg.AccountsToMonitor, s.cfg.AccountsToRetweet) {
		if ctx.Err() != nil {
			return
		}
		log := s.logger.With("account", username)

		if err := s.limiters.UserTweets.Wait(ctx); err != nil {
			return
		}
		tweets, err := s.gw.UserTweets(ctx, username)
		if err != nil {
			log.Error("fetch user tweets failed", "error", err)
			if !s.pause(ctx, s.cfg.AccountPause) {
				return
			}
			continue
		}
		if len(tweets) == 0 {
			log.Info("no recent tweets")
			continue
		}

		key := strings.ToLower(username)
		for _, tw := range tweets {
			if s.seen.Contains(tw.ID) {
				continue
			}

			if monitor[key] {
				if err := s.proc.Process(ctx, tw); err != nil {
					log.Error("process account tweet failed", "tweet_id", tw.ID, "error", err)
				} else {
					s.recordProcessed(tw)
				}
			}
			if retweet[key] {
				if err := s.limiters.Retweet.Wait(ctx); err != nil {
					return
				}
				if err := s.gw.Retweet(ctx, tw.ID); err != nil {
					log.Warn("retweet failed", "tweet_id", tw.ID, "error", err)
				} else {
					s.recordRetweet(tw.ID, username)
				}
			}
			s.seen.Add(tw.ID, s.now())

			if !s.pause(ctx, s.cfg.AccountItemPause) {
				return
			}
		}

		if !s.pause(ctx, s.cfg.AccountPause) {
			return
		}
	}
}

// checkHashtags searches each watched hashtag for recent English original
// posts, checks live engagement under the shared user-tweets budget, and
// processes up to maxItemsPerHashtag candidates that clear the like
// threshold. Authors already covered by the accounts task are skipped.
func (s *Scheduler) checkHashtags(ctx context.Context) {
	monitored := roleSet(s.cfg.AccountsToMonitor)

	for _, hashtag := range s.cfg.Hashtags {
		if ctx.Err() != nil {
			return
		}
		log := s.logger.With("hashtag", hashtag)

		if err := s.limiters.Search.Wait(ctx); err != nil {
			return
		}
		query := fmt.Sprintf("%s -is:retweet -is:reply lang:en", hashtag)
		tweets, err := s.gw.SearchTweets(ctx, query)
		if err != nil {
			log.Error("search failed", "error", err)
			continue
		}
		log.Info("search results", "count", len(tweets))

		processed := 0
		for _, tw := range tweets {
			if processed >= maxItemsPerHashtag {
				break
			}
			if s.seen.Contains(tw.ID) {
				continue
			}
			if monitored[strings.ToLower(tw.AuthorUsername)] {
				continue
			}

			if err := s.limiters.UserTweets.Wait(ctx); err != nil {
				return
			}
			metrics, err := s.gw.TweetMetrics(ctx, tw.ID)
			if err != nil {
				log.Warn("metrics fetch failed", "tweet_id", tw.ID, "error", err)
				if !s.pause(ctx, s.cfg.HashtagItemPause) {
					return
				}
				continue
			}

			if metrics.LikeCount >= s.cfg.MinLikes {
				log.Info("candidate meets like threshold",
					"tweet_id", tw.ID, "author", tw.AuthorUsername, "likes", metrics.LikeCount)
				if err := s.proc.Process(ctx, tw); err != nil {
					log.Error("process hashtag tweet failed", "tweet_id", tw.ID, "error", err)
				} else {
					s.recordProcessed(tw)
				}
				s.seen.Add(tw.ID, s.now())
				processed++
			} else {
				log.Info("below like threshold",
					"tweet_id", tw.ID, "likes", metrics.LikeCount, "needed", s.cfg.MinLikes)
			}

			if !s.pause(ctx, s.cfg.HashtagItemPause) {
				return
			}
		}

		if !s.pause(ctx, s.cfg.HashtagPause) {
			return
		}
	}
}

// roleSet lowers a username list into a membership set.
func roleSet(usernames []string) map[string]bool {
	set := make(map[string]bool, len(usernames))
	for _, u := range usernames {
		set[strings.ToLower(strings.TrimSpace(u))] = true
	}
	return set
}

// unionOrdered merges two username lists, keeping first-appearance order and
// dropping duplicates, so an account in both roles is visited once.
func unionOrdered(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, u := range append(append([]string{}, a...), b...) {
		key := strings.ToLower(strings.TrimSpace(u))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
	}
	return out
}
