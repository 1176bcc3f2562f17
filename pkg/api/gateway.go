package api

import (
	"tempo/pkg/llm"
)

// Channel defines the standardized lifecycle interface for communication
// surfaces (web UI, Telegram, ...).
type Channel interface {
	ID() string
	Start(ctx ChannelContext) error
	Stop() error
	Send(session SessionContext, message string) error
	Stream(session SessionContext, blocks <-chan llm.ContentBlock) error
}

// SignalingChannel is an optional extension for platforms that support
// control signals (typing indicators, thinking UI, role switches).
type SignalingChannel interface {
	Channel
	SendSignal(session SessionContext, signal string) error
}

// ToolRelayChannel is an optional extension for channels that can forward a
// client tool invocation to a UI runtime and post the result back through
// ChannelContext.OnToolResult. Channels without this capability cause the
// engine to fail the call with a structured error instead.
type ToolRelayChannel interface {
	Channel
	RelayToolCall(session SessionContext, call ClientToolCall) error
}

// ChannelContext is how a Channel implementation talks back to the gateway
// core.
type ChannelContext interface {
	MessageResponder
	OnMessage(channelID string, msg *UnifiedMessage)
	// OnToolResult reports the outcome of a relayed client tool call.
	OnToolResult(callID string, result ToolResult)
}

// MessageResponder defines the capabilities for sending responses back to a
// channel.
type MessageResponder interface {
	SendReply(session SessionContext, content string) error
	StreamReply(session SessionContext, blocks <-chan llm.ContentBlock) error
	SendSignal(session SessionContext, signal string) error
	// RelayToolCall forwards a client tool invocation to the session's
	// channel. Returns an error when the channel cannot relay.
	RelayToolCall(session SessionContext, call ClientToolCall) error
}

// UnifiedMessage is the standardized internal form of every incoming message.
type UnifiedMessage struct {
	Session    SessionContext // Who and where this came from
	Auth       AuthContext    // Caller credentials resolved by the channel
	Content    string         // Text content
	Raw        any            // Optional original platform payload
	RetryCount int            // Automatic recovery attempts so far
	NoTools    bool           // Disable tool calling for this request
	DebugID    string         // Groups agentic-loop logs for this request
}

// SessionContext encapsulates identity and routing information for one
// conversation unit on one channel.
type SessionContext struct {
	ChannelID string // Originating channel (e.g. "web")
	UserID    string // Platform-specific user identifier
	ChatID    string // Chat or tab identifier (may equal UserID)
	Username  string // Display name as provided by the platform
}

// MessageHandler adapts a plain function to MessageProcessor.
type MessageHandler func(*UnifiedMessage)

func (h MessageHandler) OnMessage(msg *UnifiedMessage) {
	h(msg)
}

// MessageProcessor consumes incoming unified messages.
type MessageProcessor interface {
	OnMessage(msg *UnifiedMessage)
}

// ResponderAware marks components that need a MessageResponder injected.
type ResponderAware interface {
	SetResponder(responder MessageResponder)
}
