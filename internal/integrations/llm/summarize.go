// Package llm provides the optional free-text summarization used to enrich
// the trend report. It never takes part in classification.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	FallbackSummary       = "Summary unavailable"
	defaultTimeout        = 30 * time.Second
	defaultMaxAttempts    = 2
	defaultRetryBackoff   = 500 * time.Millisecond
	CategorySummaryPrompt = "Summarize the common customer problem in these support tickets in one or two sentences. Do not list the tickets individually."
)

// Summarizer turns text into a short summary following instruction.
type Summarizer interface {
	Summarize(ctx context.Context, text, instruction string) (string, error)
}

// EnrichmentError wraps any summarization failure. Callers degrade to
// FallbackSummary instead of propagating it.
type EnrichmentError struct {
	Provider string
	Err      error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("%s summarization failed: %v", e.Provider, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Bounded runs a Summarizer with a per-attempt timeout and a fixed number of
// attempts.
type Bounded struct {
	Summarizer  Summarizer
	Provider    string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

func (b Bounded) Summarize(ctx context.Context, text, instruction string) (string, error) {
	if b.Summarizer == nil {
		return "", &EnrichmentError{Provider: b.Provider, Err: errors.New("no summarizer configured")}
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = defaultMaxAttempts
	}
	backoff := b.Backoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		summary, err := b.Summarizer.Summarize(attemptCtx, text, instruction)
		cancel()
		if err == nil && strings.TrimSpace(summary) != "" {
			return strings.TrimSpace(summary), nil
		}
		if err == nil {
			err = errors.New("empty summary")
		}
		lastErr = err
		log.Printf("llm summarize provider=%s attempt=%d/%d err=%v", b.Provider, attempt, attempts, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", &EnrichmentError{Provider: b.Provider, Err: ctx.Err()}
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}
	return "", &EnrichmentError{Provider: b.Provider, Err: lastErr}
}

// SummarizeOrFallback never fails: any error yields FallbackSummary.
func (b Bounded) SummarizeOrFallback(ctx context.Context, text, instruction string) string {
	summary, err := b.Summarize(ctx, text, instruction)
	if err != nil {
		log.Printf("llm enrichment degraded: %v", err)
		return FallbackSummary
	}
	return summary
}

// SummarizeCategories builds one summary per label from its excerpts.
func (b Bounded) SummarizeCategories(ctx context.Context, excerpts map[string][]string) map[string]string {
	out := make(map[string]string, len(excerpts))
	for label, samples := range excerpts {
		if len(samples) == 0 {
			continue
		}
		var text strings.Builder
		fmt.Fprintf(&text, "Category: %s\n", label)
		for i, s := range samples {
			fmt.Fprintf(&text, "%d. %s\n", i+1, s)
		}
		out[label] = b.SummarizeOrFallback(ctx, text.String(), CategorySummaryPrompt)
	}
	return out
}
