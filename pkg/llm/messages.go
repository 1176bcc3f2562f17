package llm

import (
	"time"
)

//----------------------------------------------------------------
// Message
//----------------------------------------------------------------

// Message represents one conversation entry.
type Message struct {
	ID        string         `json:"id,omitempty"`
	Role      string         `json:"role"` // "user", "assistant", "system", "tool"
	Content   []ContentBlock `json:"content"`
	Timestamp int64          `json:"timestamp,omitempty"`

	// ToolCalls holds tool invocation requests emitted by the LLM
	// (role: assistant only).
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID links a tool-result message back to the originating call
	// (role: tool only).
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`

	// Usage carries the final stream statistics for an assistant turn.
	Usage *LLMUsage `json:"usage,omitempty"`
}

// ToolCall is a tool invocation request produced by the LLM.
type ToolCall struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Function FunctionCall `json:"function"`

	// Meta holds provider-specific metadata (e.g. Gemini thought
	// signatures). Never serialized; internal hand-off only.
	Meta map[string]any `json:"-"`
}

// FunctionCall carries the concrete tool name and raw JSON arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

//----------------------------------------------------------------
// ContentBlock
//----------------------------------------------------------------

// ContentBlock is one unit of message content. Supported types: text,
// thinking, error.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

//----------------------------------------------------------------
// StreamChunk
//----------------------------------------------------------------

// StreamChunk is one incremental unit of a streaming LLM response.
type StreamChunk struct {
	ContentBlocks []ContentBlock `json:"content_blocks,omitempty"`
	ToolCalls     []ToolCall     `json:"tool_calls,omitempty"`

	// IsFinal marks the last chunk of the stream.
	IsFinal bool `json:"is_final"`

	// FinishReason is set on the final chunk only.
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage statistics; guaranteed on the final chunk.
	Usage *LLMUsage `json:"usage,omitempty"`

	// Error is a user-facing error string attached mid-stream.
	Error string `json:"error,omitempty"`

	// RawError terminates the stream when non-nil. Not serialized.
	RawError error `json:"-"`
}

//----------------------------------------------------------------
// Constructors
//----------------------------------------------------------------

// NewTextMessage builds a plain text message for the given role.
func NewTextMessage(role, text string) Message {
	return Message{
		Role:      role,
		Content:   []ContentBlock{{Type: BlockTypeText, Text: text}},
		Timestamp: time.Now().Unix(),
	}
}

func NewSystemMessage(text string) Message { return NewTextMessage(RoleSystem, text) }
func NewUserMessage(text string) Message   { return NewTextMessage(RoleUser, text) }

// AddContentBlock appends a block to the message content.
func (m *Message) AddContentBlock(block ContentBlock) {
	m.Content = append(m.Content, block)
}

// GetTextContent concatenates all text blocks (thinking excluded).
func (m *Message) GetTextContent() string {
	var result string
	for _, block := range m.Content {
		if block.Type == BlockTypeText {
			result += block.Text
		}
	}
	return result
}

// GetThinkingContent concatenates all thinking blocks.
func (m *Message) GetThinkingContent() string {
	var result string
	for _, block := range m.Content {
		if block.Type == BlockTypeThinking {
			result += block.Text
		}
	}
	return result
}

func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

func NewThinkingBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeThinking, Text: text}
}

func NewErrorBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeError, Text: text}
}

func NewTextChunk(text string) StreamChunk {
	return StreamChunk{ContentBlocks: []ContentBlock{NewTextBlock(text)}}
}

func NewThinkingChunk(text string) StreamChunk {
	return StreamChunk{ContentBlocks: []ContentBlock{NewThinkingBlock(text)}}
}

// NewErrorChunk builds an error chunk. When final is true the raw error is
// attached so the consumer terminates the stream.
func NewErrorChunk(text string, raw error, final bool) StreamChunk {
	chunk := StreamChunk{Error: text}
	if final {
		chunk.RawError = raw
		if chunk.RawError == nil {
			chunk.RawError = errString(text)
		}
	}
	return chunk
}

// NewFinalChunk builds the terminating chunk with usage statistics.
func NewFinalChunk(reason string, usage *LLMUsage) StreamChunk {
	return StreamChunk{IsFinal: true, FinishReason: reason, Usage: usage}
}

type errString string

func (e errString) Error() string { return string(e) }
