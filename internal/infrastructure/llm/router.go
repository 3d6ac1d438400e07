package llm

import (
	"context"
	"fmt"
	"log/slog"

	"GTMEngine/internal/config"
	"GTMEngine/internal/domain"
	"GTMEngine/internal/metrics"
	"GTMEngine/internal/ports"
)

// Router forwards chat requests to the configured provider and records the outcome.
type Router struct {
	provider string
	clients  map[string]ports.ChatClient
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

var _ ports.ChatClient = (*Router)(nil)

// NewRouter selects provider among clients.
func NewRouter(provider string, clients []ports.ChatClient, m *metrics.Metrics, logger *slog.Logger) *Router {
	byName := make(map[string]ports.ChatClient, len(clients))
	for _, c := range clients {
		byName[c.Provider()] = c
	}
	return &Router{provider: provider, clients: byName, metrics: m, logger: logger}
}

// NewRouterFromConfig wires the OpenAI and Anthropic clients.
func NewRouterFromConfig(cfg config.LLMConfig, m *metrics.Metrics, logger *slog.Logger) *Router {
	return NewRouter(cfg.Provider, []ports.ChatClient{
		NewOpenAIClient(cfg),
		NewAnthropicClient(cfg),
	}, m, logger)
}

// Provider reports the selected backend.
func (r *Router) Provider() string {
	return r.provider
}

// Chat dispatches to the selected provider. Every failure surfaces as *domain.LLMError.
func (r *Router) Chat(ctx context.Context, messages []domain.ChatMessage) (domain.ChatResponse, error) {
	client, ok := r.clients[r.provider]
	if !ok {
		r.metrics.LLMRequest(r.provider, metrics.OutcomeError)
		return domain.ChatResponse{}, apiError(fmt.Sprintf("unknown provider: %s", r.provider), nil)
	}

	resp, err := client.Chat(ctx, messages)
	switch {
	case err == nil:
		r.metrics.LLMRequest(r.provider, metrics.OutcomeSuccess)
		r.debug("chat completed", "provider", r.provider, "usage", resp.Usage)
		return resp, nil
	case domain.IsLLMError(err, domain.LLMMissingAPIKey):
		r.metrics.LLMRequest(r.provider, metrics.OutcomeFallback)
		return domain.ChatResponse{}, err
	case domain.IsLLMError(err, domain.LLMAPIError), domain.IsLLMError(err, domain.LLMInvalidResponse):
		r.metrics.LLMRequest(r.provider, metrics.OutcomeError)
		return domain.ChatResponse{}, err
	default:
		r.metrics.LLMRequest(r.provider, metrics.OutcomeError)
		return domain.ChatResponse{}, apiError("chat completion", err)
	}
}

func (r *Router) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
