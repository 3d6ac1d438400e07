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

// AnthropicClient implements ports.ChatClient backed by the Anthropic messages API.
type AnthropicClient struct {
	endpoint    string
	version     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

var _ ports.ChatClient = (*AnthropicClient)(nil)

// NewAnthropicClient builds a client from configuration.
func NewAnthropicClient(cfg config.LLMConfig) *AnthropicClient {
	return &AnthropicClient{
		endpoint:    cfg.Anthropic.Endpoint,
		version:     cfg.Anthropic.Version,
		model:       cfg.Model,
		apiKey:      cfg.Anthropic.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Provider names the backend for routing and metrics.
func (c *AnthropicClient) Provider() string {
	return config.ProviderAnthropic
}

// Chat lifts the system message into the top-level system field and returns the first text block.
func (c *AnthropicClient) Chat(ctx context.Context, messages []domain.ChatMessage) (domain.ChatResponse, error) {
	if c == nil {
		return domain.ChatResponse{}, apiError("anthropic client is nil", nil)
	}
	if c.apiKey == "" {
		return domain.ChatResponse{}, missingKey(config.ProviderAnthropic, "ANTHROPIC_API_KEY")
	}
	if c.endpoint == "" || c.model == "" {
		return domain.ChatResponse{}, apiError("anthropic client misconfigured", nil)
	}

	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := struct {
		Model       string    `json:"model"`
		MaxTokens   int       `json:"max_tokens"`
		System      string    `json:"system,omitempty"`
		Messages    []message `json:"messages"`
		Temperature float64   `json:"temperature"`
	}{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			if payload.System == "" {
				payload.System = m.Content
			}
			continue
		}
		payload.Messages = append(payload.Messages, message{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.ChatResponse{}, apiError("marshal anthropic payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ChatResponse{}, apiError("new request", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", c.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ChatResponse{}, apiError("send messages request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ChatResponse{}, apiError(fmt.Sprintf("Anthropic API error: %d - %s", resp.StatusCode, strings.TrimSpace(string(payload))), nil)
	}

	var decoded struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		Usage *struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.ChatResponse{}, apiError("decode anthropic response", err)
	}

	var text string
	for _, block := range decoded.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return domain.ChatResponse{}, apiError("Anthropic returned empty response", nil)
	}

	out := domain.ChatResponse{Content: text}
	if decoded.Usage != nil {
		out.Usage = &domain.TokenUsage{
			PromptTokens:     decoded.Usage.InputTokens,
			CompletionTokens: decoded.Usage.OutputTokens,
			TotalTokens:      decoded.Usage.InputTokens + decoded.Usage.OutputTokens,
		}
	}
	return out, nil
}
