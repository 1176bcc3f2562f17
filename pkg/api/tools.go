package api

import (
	"context"
)

// Tool describes a named capability the agent can invoke. It carries the
// metadata injected into the LLM prompt (JSON Schema style parameter map)
// but no execution logic of its own; execution authority is expressed by
// the ServerTool / ClientTool sum type below.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON-Schema property map for the tool's
	// argument object.
	Parameters() map[string]any
	// RequiredParameters lists the property names that must be present.
	RequiredParameters() []string
}

// ServerTool is a Tool that executes inside this process against the data
// store. The bearer credentials are threaded in per call; implementations
// must never read them from process-wide state.
type ServerTool interface {
	Tool
	Execute(ctx context.Context, auth AuthContext, args map[string]any) *ToolResult
}

// ClientTool is a Tool with no server-side executor. Its invocations are
// relayed, arguments untouched, to the browser where a UI handler runs them
// against local state. ClientSide is a marker method; the engine routes on
// this type, so a tool is client-executed by construction, not by a nil
// check on an optional field.
type ClientTool interface {
	Tool
	ClientSide()
}

// AuthContext identifies the authenticated caller for one tool invocation.
// It is resolved from the conversation's session, never from globals.
type AuthContext struct {
	Token  string // Bearer token for the data store
	UserID string // Row-ownership scope for all reads and writes
}

// Valid reports whether the context carries usable credentials.
func (a AuthContext) Valid() bool {
	return a.Token != ""
}

// ToolResult is the uniform outcome shape for every tool, server or client
// executed. Nothing may throw past the executor boundary; failures are data.
type ToolResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
	Data    any      `json:"data,omitempty"`
	Count   int      `json:"count,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// FailResult builds an error outcome.
func FailResult(err string) *ToolResult {
	return &ToolResult{Success: false, Error: err}
}

// OkResult builds a success outcome with an optional human-readable message.
func OkResult(message string) *ToolResult {
	return &ToolResult{Success: true, Message: message}
}

// ClientToolCall is the wire form of a relayed client tool invocation.
// CallID ties the browser's eventual tool_result frame back to the waiting
// conversation turn.
type ClientToolCall struct {
	CallID string         `json:"call_id"`
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
}

// ToolRegistry manages the closed set of invocable tools.
type ToolRegistry interface {
	Register(tool Tool) error
	Unregister(name string)
	Get(name string) (Tool, bool)
	GetAll() []Tool
}

// ToolResultSink receives client tool results posted back by a channel.
// The agent engine implements this to resolve pending relayed calls.
type ToolResultSink interface {
	OnToolResult(callID string, result ToolResult)
}
