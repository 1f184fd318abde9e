package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
)

type fakeSummarizer struct {
	calls   atomic.Int32
	failFor int32
	block   bool
	reply   string
}

func (f *fakeSummarizer) Summarize(ctx context.Context, text, instruction string) (string, error) {
	n := f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if n <= f.failFor {
		return "", errors.New("boom")
	}
	return f.reply, nil
}

func TestBoundedRetriesThenSucceeds(t *testing.T) {
	fake := &fakeSummarizer{failFor: 1, reply: "  short summary "}
	b := Bounded{Summarizer: fake, Provider: "fake", MaxAttempts: 3, Backoff: time.Millisecond}

	got, err := b.Summarize(context.Background(), "text", "instruction")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "short summary" {
		t.Fatalf("unexpected summary %q", got)
	}
	if fake.calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", fake.calls.Load())
	}
}

func TestBoundedFallbackAfterAttempts(t *testing.T) {
	fake := &fakeSummarizer{failFor: 10}
	b := Bounded{Summarizer: fake, Provider: "fake", MaxAttempts: 2, Backoff: time.Millisecond}

	_, err := b.Summarize(context.Background(), "text", "instruction")
	var enrichErr *EnrichmentError
	if !errors.As(err, &enrichErr) {
		t.Fatalf("expected EnrichmentError, got %v", err)
	}
	if got := b.SummarizeOrFallback(context.Background(), "text", "instruction"); got != FallbackSummary {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestBoundedTimeout(t *testing.T) {
	fake := &fakeSummarizer{block: true}
	b := Bounded{Summarizer: fake, Provider: "fake", Timeout: 20 * time.Millisecond, MaxAttempts: 1}

	start := time.Now()
	got := b.SummarizeOrFallback(context.Background(), "text", "instruction")
	if got != FallbackSummary {
		t.Fatalf("expected fallback on timeout, got %q", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestBoundedWithoutSummarizer(t *testing.T) {
	if got := (Bounded{}).SummarizeOrFallback(context.Background(), "x", "y"); got != FallbackSummary {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestSummarizeCategories(t *testing.T) {
	fake := &fakeSummarizer{reply: "Invoices are duplicated."}
	b := Bounded{Summarizer: fake, MaxAttempts: 1}
	got := b.SummarizeCategories(context.Background(), map[string][]string{
		"Billing": {"invoice twice", "charged double"},
		"Empty":   nil,
	})
	if got["Billing"] != "Invoices are duplicated." {
		t.Fatalf("unexpected summaries: %v", got)
	}
	if _, ok := got["Empty"]; ok {
		t.Fatalf("categories without excerpts should be skipped")
	}
}

func TestOpenAISummarizer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req openAIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "ticket text" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"OpenAI summary"}}],"usage":{"prompt_tokens":3,"completion_tokens":2}}`))
	}))
	defer server.Close()

	s := NewOpenAISummarizer("sk-test", "")
	s.endpoint = server.URL
	s.client = server.Client()

	got, err := s.Summarize(context.Background(), "ticket text", "summarize")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "OpenAI summary" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestOpenAISummarizerAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	s := NewOpenAISummarizer("sk-bad", "gpt-test")
	s.endpoint = server.URL
	s.client = server.Client()

	if _, err := s.Summarize(context.Background(), "x", "y"); err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestAnthropicSummarizer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_test",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "Anthropic summary"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 4}
		}`))
	}))
	defer server.Close()

	s := NewAnthropicSummarizer("sk-ant-test", "claude-test", option.WithBaseURL(server.URL+"/"), option.WithHTTPClient(server.Client()))
	got, err := s.Summarize(context.Background(), "ticket text", "summarize")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "Anthropic summary" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestNew(t *testing.T) {
	if s, err := New("", "", "", ""); s != nil || err != nil {
		t.Fatalf("expected disabled summarizer, got %v %v", s, err)
	}
	if s, err := New("anthropic", "", "key", ""); err != nil || s == nil {
		t.Fatalf("expected anthropic summarizer, got %v %v", s, err)
	}
	if s, err := New("openai", "", "", "key"); err != nil || s == nil {
		t.Fatalf("expected openai summarizer, got %v %v", s, err)
	}
	if _, err := New("cohere", "", "", ""); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestUsageTotalTokens(t *testing.T) {
	u := Usage{InputTokens: 120, OutputTokens: 30, CacheCreationInputTokens: 7, CacheReadInputTokens: 9}
	if got := u.TotalTokens(); got != 150 {
		t.Fatalf("TotalTokens() = %d, want 150", got)
	}
}
