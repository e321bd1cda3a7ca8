package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/joris1013/twitterbot-x/internal/config"
)

func TestIsOriginAllowed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origin  string
		cfg     config.StatusConfig
		reqHost string
		want    bool
	}{
		{
			name:    "empty origin is allowed",
			origin:  "",
			cfg:     config.StatusConfig{},
			reqHost: "localhost:8088",
			want:    true,
		},
		{
			name:    "localhost origin allowed by default",
			origin:  "http://localhost:8088",
			cfg:     config.StatusConfig{},
			reqHost: "localhost:8088",
			want:    true,
		},
		{
			name:    "non-local origin denied by default",
			origin:  "https://evil.example",
			cfg:     config.StatusConfig{},
			reqHost: "localhost:8088",
			want:    false,
		},
		{
			name:    "allowlist permits exact origin",
			origin:  "https://status.example.com",
			cfg:     config.StatusConfig{AllowedOrigins: []string{"https://status.example.com"}},
			reqHost: "0.0.0.0:8088",
			want:    true,
		},
		{
			name:    "allowlist denies everything else",
			origin:  "https://evil.example",
			cfg:     config.StatusConfig{AllowedOrigins: []string{"https://status.example.com"}},
			reqHost: "0.0.0.0:8088",
			want:    false,
		},
		{
			name:    "same host allowed when no allowlist",
			origin:  "https://bot.internal:8088",
			cfg:     config.StatusConfig{},
			reqHost: "bot.internal:8088",
			want:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isOriginAllowed(tt.origin, tt.cfg, tt.reqHost); got != tt.want {
				t.Fatalf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

// stubProvider serves a fixed snapshot and a pre-filled event channel.
type stubProvider struct {
	snapshot Snapshot
	events   chan Event
}

func (p *stubProvider) Status() Snapshot     { return p.snapshot }
func (p *stubProvider) Events() <-chan Event { return p.events }

func TestHandleSnapshot(t *testing.T) {
	t.Parallel()
	provider := &stubProvider{
		snapshot: Snapshot{
			Timestamp: time.Now(),
			SeenCount: 7,
			Tasks:     []TaskStatus{{Name: "mentions", Interval: "3m0s"}},
			Counters:  Counters{Processed: 2},
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlers(provider, config.StatusConfig{}, NewHub(logger), logger)

	rec := httptest.NewRecorder()
	h.HandleSnapshot(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.SeenCount != 7 || got.Counters.Processed != 2 {
		t.Errorf("snapshot = %+v, want the provider's state", got)
	}
	if len(got.Tasks) != 1 || got.Tasks[0].Name != "mentions" {
		t.Errorf("tasks = %+v, want the mentions entry", got.Tasks)
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlers(&stubProvider{}, config.StatusConfig{}, NewHub(logger), logger)

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status ok", body)
	}
}
