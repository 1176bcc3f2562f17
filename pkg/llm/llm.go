package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LLMUsage is the provider-agnostic usage accounting structure.
type LLMUsage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	ThoughtsTokens   int    `json:"thoughts_tokens,omitempty"`
	CachedTokens     int    `json:"cached_tokens,omitempty"`
	StopReason       string `json:"stop_reason,omitempty"`
}

// Tool is the schema-only view of an agent tool that providers need for
// prompt injection. The execution side lives in pkg/api.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	RequiredParameters() []string
}

// ToolSchema renders a Tool into the canonical function-calling JSON shape
// shared by all providers.
func ToolSchema(t Tool) map[string]any {
	required := t.RequiredParameters()
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"name":        t.Name(),
		"description": t.Description(),
		"parameters": map[string]any{
			"type":       "object",
			"properties": t.Parameters(),
			"required":   required,
		},
	}
}

// LLMClient is the unified streaming interface over all providers.
type LLMClient interface {
	// StreamChat starts a streaming completion over the given history.
	// tools may be nil when tool calling is disabled.
	StreamChat(ctx context.Context, messages []Message, tools []Tool) (<-chan StreamChunk, error)

	// IsTransientError reports whether err is worth retrying
	// (rate limits, 5xx, connection resets).
	IsTransientError(err error) bool

	// SetDebug toggles raw chunk capture for this client.
	SetDebug(enabled bool)
}

// FallbackClient tries a chain of clients in order, retrying transient
// failures per client before moving to the next.
type FallbackClient struct {
	Clients    []LLMClient
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackClient) StreamChat(ctx context.Context, messages []Message, tools []Tool) (<-chan StreamChunk, error) {
	if len(f.Clients) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}

	var lastErr error
	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("Provider failed, trying fallback", "provider_index", i+1)
		}

		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			ch, err := client.StreamChat(ctx, messages, tools)
			if err == nil {
				return ch, nil
			}
			lastErr = err

			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("Transient provider error, retrying", "provider_index", i+1, "attempt", retry, "error", err)
				continue
			}

			slog.Error("Provider failed", "provider_index", i+1, "error", err)
			break
		}
	}
	return nil, fmt.Errorf("all fallback providers failed, last error: %w", lastErr)
}

// IsTransientError always reports false: if the whole chain failed there is
// nothing left to retry against.
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}

// SetDebug forwards the toggle to every child client.
func (f *FallbackClient) SetDebug(enabled bool) {
	for _, c := range f.Clients {
		c.SetDebug(enabled)
	}
}
