package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// newTestResponder fakes the Assistants v2 endpoints Respond touches. Each
// poll of the run reports runStatus(); a completed run's thread holds one
// assistant message with replyText.
func newTestResponder(t *testing.T, runStatus func() string, replyText string) *Responder {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/threads", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"thread_1","object":"thread"}`)
	})
	mux.HandleFunc("/threads/thread_1/runs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"run_1","object":"thread.run","thread_id":"thread_1","status":"queued"}`)
	})
	mux.HandleFunc("/threads/thread_1/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"run_1","object":"thread.run","thread_id":"thread_1","status":%q}`, runStatus())
	})
	mux.HandleFunc("/threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{
			"object":"list",
			"data":[{
				"id":"msg_1","object":"thread.message","role":"assistant",
				"content":[{"type":"text","text":{"value":%q,"annotations":[]}}]
			}],
			"first_id":"msg_1","last_id":"msg_1","has_more":false
		}`, replyText)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &Responder{
		client:       openai.NewClient(option.WithAPIKey("test"), option.WithBaseURL(srv.URL)),
		assistantID:  "asst_1",
		pollInterval: time.Millisecond,
		pollTimeout:  100 * time.Millisecond,
		maxLength:    280,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRespondReturnsCleanedReply(t *testing.T) {
	t.Parallel()
	r := newTestResponder(t, func() string { return "completed" }, "**Hi** there【4:0†note.txt】")

	reply, err := r.Respond(context.Background(), "alice", "hello bot")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply != "Hi there" {
		t.Errorf("reply = %q, want the cleaned text", reply)
	}
}

func TestRespondRunFailureStates(t *testing.T) {
	t.Parallel()
	tests := []struct {
		status  string
		wantErr string
	}{
		{"failed", "run ended with status failed"},
		{"expired", "run ended with status expired"},
		{"requires_action", "requires tool action"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.status, func(t *testing.T) {
			t.Parallel()
			r := newTestResponder(t, func() string { return tt.status }, "unused")

			_, err := r.Respond(context.Background(), "alice", "hello bot")
			if err == nil {
				t.Fatalf("status %s did not surface an error", tt.status)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

// A run that never leaves in_progress must be abandoned at the poll deadline
// rather than suspending the caller forever.
func TestRespondPollDeadline(t *testing.T) {
	t.Parallel()
	r := newTestResponder(t, func() string { return "in_progress" }, "unused")
	r.pollTimeout = 50 * time.Millisecond

	start := time.Now()
	_, err := r.Respond(context.Background(), "alice", "hello bot")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected a deadline error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) && !strings.Contains(err.Error(), "deadline") {
		t.Errorf("err = %v, want the poll deadline to surface", err)
	}
	if elapsed > 5*time.Second {
		t.Errorf("Respond blocked %v, want it bounded near the 50ms deadline", elapsed)
	}
}
