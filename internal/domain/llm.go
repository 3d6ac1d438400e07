package domain

import (
	"errors"
	"fmt"
)

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one provider-agnostic chat turn.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// TokenUsage is reported by providers that expose it.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse is the assistant text of a completion.
type ChatResponse struct {
	Content string
	Usage   *TokenUsage
}

// LLMErrorCode classifies completion failures.
type LLMErrorCode string

const (
	LLMMissingAPIKey   LLMErrorCode = "missing_api_key"
	LLMAPIError        LLMErrorCode = "api_error"
	LLMInvalidResponse LLMErrorCode = "invalid_response"
)

// LLMError is returned by chat clients and response parsers.
type LLMError struct {
	Code    LLMErrorCode
	Message string
	Err     error
}

func (e *LLMError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LLMError) Unwrap() error { return e.Err }

// IsLLMError reports whether err carries an LLMError with the given code.
func IsLLMError(err error, code LLMErrorCode) bool {
	var llmErr *LLMError
	return errors.As(err, &llmErr) && llmErr.Code == code
}
