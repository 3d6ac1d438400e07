package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/ports"
)

// OpenAIClient implements ports.ChatClient backed by OpenAI-compatible chat completion APIs.
type OpenAIClient struct {
	endpoint    string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

var _ ports.ChatClient = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	return &OpenAIClient{
		endpoint:    cfg.OpenAI.Endpoint,
		model:       cfg.Model,
		apiKey:      cfg.OpenAI.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Provider names the backend for routing and metrics.
func (c *OpenAIClient) Provider() string {
	return config.ProviderOpenAI
}

// Chat posts the messages and returns the first choice.
func (c *OpenAIClient) Chat(ctx context.Context, messages []domain.ChatMessage) (domain.ChatResponse, error) {
	if c == nil {
		return domain.ChatResponse{}, apiError("openai client is nil", nil)
	}
	if c.apiKey == "" {
		return domain.ChatResponse{}, missingKey(config.ProviderOpenAI, "OPENAI_API_KEY")
	}
	if c.endpoint == "" || c.model == "" {
		return domain.ChatResponse{}, apiError("openai client misconfigured", nil)
	}

	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := struct {
		Model       string    `json:"model"`
		Messages    []message `json:"messages"`
		Temperature float64   `json:"temperature"`
		MaxTokens   int       `json:"max_tokens"`
	}{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	for _, m := range messages {
		payload.Messages = append(payload.Messages, message{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.ChatResponse{}, apiError("marshal openai payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ChatResponse{}, apiError("new request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ChatResponse{}, apiError("send chat completion", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ChatResponse{}, apiError(fmt.Sprintf("OpenAI API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage *struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.ChatResponse{}, apiError("decode openai response", err)
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return domain.ChatResponse{}, apiError("OpenAI returned empty response", nil)
	}

	out := domain.ChatResponse{Content: decoded.Choices[0].Message.Content}
	if decoded.Usage != nil {
		out.Usage = &domain.TokenUsage{
			PromptTokens:     decoded.Usage.PromptTokens,
			CompletionTokens: decoded.Usage.CompletionTokens,
			TotalTokens:      decoded.Usage.TotalTokens,
		}
	}
	return out, nil
}

func missingKey(provider, env string) error {
	return &domain.LLMError{
		Code:    domain.LLMMissingAPIKey,
		Message: fmt.Sprintf("missing API key for %s, set %s in your environment", provider, env),
	}
}

func apiError(msg string, err error) error {
	return &domain.LLMError{Code: domain.LLMAPIError, Message: msg, Err: err}
}
