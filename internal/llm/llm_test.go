package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain text \n", "plain text"},
		{"```\nfenced\n```", "fenced"},
		{"```markdown\n1. Intro\n2. Plan\n```", "1. Intro\n2. Plan"},
	}
	for _, tt := range tests {
		if got := CleanResponse(tt.in); got != tt.want {
			t.Errorf("CleanResponse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMistralClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		if req.Model != "mistral-tiny" || len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected request %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  1. Intro  "}}]}`))
	}))
	defer srv.Close()

	c := NewMistralClient("secret", "mistral-tiny", WithURL(srv.URL))
	got, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if got != "1. Intro" {
		t.Errorf("expected trimmed content, got %q", got)
	}
}

func TestMistralClientRetryableStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewMistralClient("", "m", WithURL(srv.URL)).Complete(context.Background(), "x")
	if !IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestClaudeClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"Résumé court."}]}`))
	}))
	defer srv.Close()

	c := NewClaudeClient("k", "claude-test").WithBaseURL(srv.URL)
	got, err := c.Complete(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Résumé court." {
		t.Errorf("unexpected completion %q", got)
	}
	if c.Model() != "claude-test" {
		t.Errorf("unexpected model %q", c.Model())
	}
}

func TestClaudeClientPermanentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad"}}`))
	}))
	defer srv.Close()

	_, err := NewClaudeClient("k", "m").WithBaseURL(srv.URL).Complete(context.Background(), "p")
	if err == nil || IsRetryable(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestRetryingRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	r := NewRetrying(CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "", &RetryableError{StatusCode: 503}
		}
		return "done", nil
	}), nil)
	r.backoff = func(int) time.Duration { return time.Millisecond }

	got, err := r.Complete(context.Background(), "p")
	if err != nil || got != "done" {
		t.Fatalf("expected success after retries, got %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryingStopsOnPermanentError(t *testing.T) {
	calls := 0
	perm := errors.New("bad request")
	r := NewRetrying(CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", perm
	}), nil)

	if _, err := r.Complete(context.Background(), "p"); !errors.Is(err, perm) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single call, got %d", calls)
	}
}

func TestRetryingGivesUp(t *testing.T) {
	calls := 0
	r := NewRetrying(CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", &RetryableError{StatusCode: 500}
	}), nil)
	r.backoff = func(int) time.Duration { return 0 }

	if _, err := r.Complete(context.Background(), "p"); !IsRetryable(err) {
		t.Fatalf("expected the last retryable error, got %v", err)
	}
	if calls != MaxRetries+1 {
		t.Errorf("expected %d calls, got %d", MaxRetries+1, calls)
	}
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		d := Backoff(attempt)
		if d < time.Second || d > 45*time.Second {
			t.Errorf("attempt %d: backoff %v out of range", attempt, d)
		}
	}
}
