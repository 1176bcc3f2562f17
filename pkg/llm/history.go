package llm

import (
	"fmt"
	"os"
	"sync"
)

// ChatHistory manages one conversation's message list plus its rolling
// summary. Safe for concurrent use.
type ChatHistory struct {
	messages []Message
	summary  string
	mu       sync.RWMutex
}

// NewChatHistory creates an empty history.
func NewChatHistory() *ChatHistory {
	return &ChatHistory{
		messages: make([]Message, 0),
	}
}

// Add appends a message.
func (h *ChatHistory) Add(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// GetMessages returns a copy of the current history.
func (h *ChatHistory) GetMessages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	cp := make([]Message, len(h.messages))
	copy(cp, h.messages)
	return cp
}

// Len reports the number of stored messages.
func (h *ChatHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// EnsureSystemMessage makes prompt the first message, replacing any existing
// leading system message so summary updates take effect.
func (h *ChatHistory) EnsureSystemMessage(prompt string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.messages) > 0 && h.messages[0].Role == RoleSystem {
		h.messages[0] = NewSystemMessage(prompt)
		return
	}
	h.messages = append([]Message{NewSystemMessage(prompt)}, h.messages...)
}

// GetSummary returns the rolling conversation summary.
func (h *ChatHistory) GetSummary() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.summary
}

// SetSummary replaces the rolling conversation summary.
func (h *ChatHistory) SetSummary(summary string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.summary = summary
}

// TruncateHistory keeps the leading system message (if any) plus the most
// recent keepCount messages. Used after summarization.
func (h *ChatHistory) TruncateHistory(keepCount int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if keepCount < 0 {
		keepCount = 0
	}

	var head []Message
	body := h.messages
	if len(body) > 0 && body[0].Role == RoleSystem {
		head = body[:1]
		body = body[1:]
	}

	if len(body) > keepCount {
		body = body[len(body)-keepCount:]
	}

	h.messages = append(append([]Message{}, head...), body...)
}

// persistedHistory is the on-disk JSON shape.
type persistedHistory struct {
	Summary  string    `json:"summary,omitempty"`
	Messages []Message `json:"messages"`
}

// Save writes the history to path as JSON.
func (h *ChatHistory) Save(path string) error {
	h.mu.RLock()
	record := persistedHistory{
		Summary:  h.summary,
		Messages: h.messages,
	}
	h.mu.RUnlock()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load reads a history file into this instance. A missing file is not an
// error; the history simply starts empty.
func (h *ChatHistory) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history: %w", err)
	}

	var record persistedHistory
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("failed to parse history %s: %w", path, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.summary = record.Summary
	h.messages = record.Messages
	if h.messages == nil {
		h.messages = make([]Message, 0)
	}
	return nil
}
