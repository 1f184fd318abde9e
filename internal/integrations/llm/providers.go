package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"ticketinsights/internal/httpx"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-5-20250929"
	defaultOpenAIModel    = "gpt-4o-mini"
	openAIEndpoint        = "https://api.openai.com/v1/chat/completions"
	summaryMaxTokens      = 512
)

// --- Anthropic ---

type AnthropicSummarizer struct {
	client anthropic.Client
	model  string
}

func NewAnthropicSummarizer(apiKey, model string, opts ...option.RequestOption) *AnthropicSummarizer {
	if model == "" {
		model = defaultAnthropicModel
	}
	base := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpx.ExternalHTTPClient()),
		option.WithMaxRetries(0),
	}
	return &AnthropicSummarizer{
		client: anthropic.NewClient(append(base, opts...)...),
		model:  model,
	}
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, text, instruction string) (string, error) {
	message, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: summaryMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: instruction},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}
	usage := Usage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d tokens_total=%d cache_write=%d cache_read=%d", len(block.Text), usage.InputTokens, usage.OutputTokens, usage.TotalTokens(), usage.CacheCreationInputTokens, usage.CacheReadInputTokens)
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type OpenAISummarizer struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

func NewOpenAISummarizer(apiKey, model string) *OpenAISummarizer {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAISummarizer{
		apiKey:   apiKey,
		model:    model,
		endpoint: openAIEndpoint,
		client:   httpx.ExternalHTTPClient(),
	}
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, text, instruction string) (string, error) {
	bodyBytes, err := json.Marshal(openAIRequest{
		Model: s.model,
		Messages: []openAIMessage{
			{Role: "system", Content: instruction},
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	var parsed openAIResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing OpenAI response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("OpenAI API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	usage := Usage{}
	if parsed.Usage != nil {
		usage.InputTokens = parsed.Usage.PromptTokens
		usage.OutputTokens = parsed.Usage.CompletionTokens
	}
	log.Printf("llm openai response size=%d tokens_in=%d tokens_out=%d tokens_total=%d", len(parsed.Choices[0].Message.Content), usage.InputTokens, usage.OutputTokens, usage.TotalTokens())
	return parsed.Choices[0].Message.Content, nil
}

// New returns the summarizer for provider, or nil when summarization is
// disabled.
func New(provider, model, anthropicKey, openAIKey string) (Summarizer, error) {
	switch provider {
	case "":
		return nil, nil
	case "anthropic":
		return NewAnthropicSummarizer(anthropicKey, model), nil
	case "openai":
		return NewOpenAISummarizer(openAIKey, model), nil
	default:
		return nil, fmt.Errorf("llm_provider must be '', 'anthropic' or 'openai', got '%s'", provider)
	}
}
