// request.go wraps every outbound X API call with the two recovery policies
// the API demands:
//
//   - 429 Too Many Requests: a compliance wait, never a failure. The bot
//     sleeps until the window resets (x-rate-limit-reset, floored at 60s)
//     and retries. These waits are unbounded and never consume the retry
//     budget — skipping one would get the app key suspended.
//   - Anything else (transport error, non-2xx, undecodable payload): a
//     bounded retry with exponential backoff. After MAX_RETRIES the call
//     degrades to ErrUnavailable so one bad endpoint cannot stall the
//     scheduler; callers treat that as "no data this cycle".
package twitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUnavailable reports that a call kept failing after its full retry
// budget. Callers must treat it as "try again next cycle", never as fatal.
var ErrUnavailable = errors.New("twitter: no result after retries")

const (
	defaultRateLimitFloor = 60 * time.Second
	defaultBackoffBase    = time.Second
)

// requester executes one logical API call with 429 compliance and bounded
// retry. Fields are tunable so tests can shrink the waits.
type requester struct {
	maxRetries     int           // transient-failure retries after the first attempt
	backoffBase    time.Duration // first retry wait, doubled each attempt
	rateLimitFloor time.Duration // minimum wait after a 429
	logger         *slog.Logger
	now            func() time.Time
}

func newRequester(maxRetries int, logger *slog.Logger) *requester {
	return &requester{
		maxRetries:     maxRetries,
		backoffBase:    defaultBackoffBase,
		rateLimitFloor: defaultRateLimitFloor,
		logger:         logger,
		now:            time.Now,
	}
}

// do runs call until it yields a 2xx response, a rate-limit wait is
// interrupted by ctx, or the retry budget is exhausted.
func (r *requester) do(ctx context.Context, op string, call func(ctx context.Context) (*resty.Response, error)) (*resty.Response, error) {
	attempt := 0
	for {
		resp, err := call(ctx)

		if err == nil && resp.StatusCode() == http.StatusTooManyRequests {
			wait := r.resetWait(resp)
			r.logger.Warn("rate limit exceeded, honoring reset", "op", op, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}
		if err == nil && resp.IsSuccess() {
			return resp, nil
		}

		if err != nil {
			r.logger.Error("request failed", "op", op, "attempt", attempt, "error", err)
		} else {
			r.logger.Error("request failed", "op", op, "attempt", attempt,
				"status", resp.StatusCode(), "body", resp.String())
		}

		if attempt >= r.maxRetries {
			return nil, fmt.Errorf("%s: %w", op, ErrUnavailable)
		}
		backoff := r.backoffBase << attempt
		r.logger.Info("retrying", "op", op, "backoff", backoff)
		if err := sleep(ctx, backoff); err != nil {
			return nil, err
		}
		attempt++
	}
}

// resetWait derives the compliance wait from the x-rate-limit-reset header
// (unix seconds), floored so a clock-skewed or missing header never produces
// a hot retry loop.
func (r *requester) resetWait(resp *resty.Response) time.Duration {
	wait := r.rateLimitFloor
	if h := resp.Header().Get("x-rate-limit-reset"); h != "" {
		if reset, err := strconv.ParseInt(h, 10, 64); err == nil {
			if until := time.Unix(reset, 0).Sub(r.now()); until > wait {
				wait = until
			}
		}
	}
	return wait
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
