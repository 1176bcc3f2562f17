package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tempo/pkg/api"
	"tempo/pkg/config"
	"tempo/pkg/llm"
	"tempo/pkg/tools"
)

// fakeResponder records relayed tool calls. relayErr simulates a channel
// without client tool support.
type fakeResponder struct {
	relayed  chan api.ClientToolCall
	relayErr error
}

func newFakeResponder() *fakeResponder {
	return &fakeResponder{relayed: make(chan api.ClientToolCall, 1)}
}

func (f *fakeResponder) SendReply(session api.SessionContext, content string) error { return nil }
func (f *fakeResponder) StreamReply(session api.SessionContext, blocks <-chan llm.ContentBlock) error {
	return nil
}
func (f *fakeResponder) SendSignal(session api.SessionContext, signal string) error { return nil }
func (f *fakeResponder) RelayToolCall(session api.SessionContext, call api.ClientToolCall) error {
	if f.relayErr != nil {
		return f.relayErr
	}
	f.relayed <- call
	return nil
}

func newTestEngine(t *testing.T, responder api.MessageResponder) *AgentEngine {
	t.Helper()
	sysCfg := config.DefaultSystemConfig()
	sysCfg.ClientToolTimeoutMs = 50

	e := NewAgentEngine(nil, &config.Config{}, sysCfg, nil)
	e.SetResponder(responder)
	e.SetToolRegistry(tools.NewToolRegistry())
	return e
}

func serverEcho(name string) api.Tool {
	return tools.NewServerTool(name, "", map[string]any{}, nil,
		func(ctx context.Context, auth api.AuthContext, args map[string]any) *api.ToolResult {
			return api.OkResult("server executed")
		})
}

func toolCall(id, name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:       id,
		Name:     name,
		Function: llm.FunctionCall{Name: name, Arguments: args},
	}
}

func blocksText(blocks []llm.ContentBlock) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Text)
	}
	return sb.String()
}

func TestHandleToolCallExecutesServerTool(t *testing.T) {
	e := newTestEngine(t, newFakeResponder())
	e.RegisterTool(serverEcho("getUserCalendars"))

	msg := &api.UnifiedMessage{Auth: api.AuthContext{Token: "t", UserID: "u1"}}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "getUserCalendars", `{}`), msg)

	text := blocksText(blocks)
	if !strings.Contains(text, `"success":true`) || !strings.Contains(text, "server executed") {
		t.Fatalf("tool result = %q", text)
	}
}

func TestHandleToolCallStripsFunctionsPrefix(t *testing.T) {
	e := newTestEngine(t, newFakeResponder())
	e.RegisterTool(serverEcho("getCalendarEvents"))

	msg := &api.UnifiedMessage{Auth: api.AuthContext{Token: "t"}}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "functions.getCalendarEvents", `{}`), msg)

	if !strings.Contains(blocksText(blocks), `"success":true`) {
		t.Fatalf("prefixed name not resolved: %q", blocksText(blocks))
	}
}

func TestHandleToolCallUnknownTool(t *testing.T) {
	e := newTestEngine(t, newFakeResponder())

	msg := &api.UnifiedMessage{}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "doesNotExist", `{}`), msg)

	if !strings.Contains(blocksText(blocks), "Unknown tool") {
		t.Fatalf("result = %q", blocksText(blocks))
	}
}

func TestClientToolRelayedNotExecuted(t *testing.T) {
	responder := newFakeResponder()
	e := newTestEngine(t, responder)
	e.RegisterTool(tools.NewClientTool("navigateToEvent", "", map[string]any{
		"eventId": map[string]any{"type": "string"},
	}, []string{"eventId"}))

	// Resolve the relayed call as the browser would.
	go func() {
		call := <-responder.relayed
		if call.Name != "navigateToEvent" {
			t.Errorf("relayed name = %q", call.Name)
		}
		if call.Args["eventId"] != "e1" {
			t.Errorf("relayed args = %v", call.Args)
		}
		e.OnToolResult(call.CallID, api.ToolResult{Success: true, Message: "navigated"})
	}()

	msg := &api.UnifiedMessage{Session: api.SessionContext{ChannelID: "web", ChatID: "u1"}}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "navigateToEvent", `{"eventId":"e1"}`), msg)

	text := blocksText(blocks)
	if !strings.Contains(text, "navigated") {
		t.Fatalf("relayed result not returned: %q", text)
	}
}

func TestClientToolRelayTimeout(t *testing.T) {
	responder := newFakeResponder()
	e := newTestEngine(t, responder)
	e.RegisterTool(tools.NewClientTool("navigateToDate", "", map[string]any{}, nil))

	// The browser never answers; the engine must give up on its own.
	msg := &api.UnifiedMessage{Session: api.SessionContext{ChannelID: "web"}}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "navigateToDate", `{}`), msg)

	if !strings.Contains(blocksText(blocks), "client tool call timed out") {
		t.Fatalf("result = %q", blocksText(blocks))
	}
}

func TestClientToolOnChannelWithoutRelay(t *testing.T) {
	responder := newFakeResponder()
	responder.relayErr = errors.New("channel telegram does not support client tools")
	e := newTestEngine(t, responder)
	e.RegisterTool(tools.NewClientTool("navigateToDate", "", map[string]any{}, nil))

	msg := &api.UnifiedMessage{Session: api.SessionContext{ChannelID: "telegram"}}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "navigateToDate", `{}`), msg)

	if !strings.Contains(blocksText(blocks), "client tools are not available on this channel") {
		t.Fatalf("result = %q", blocksText(blocks))
	}
}

func TestClientToolArgsValidatedBeforeRelay(t *testing.T) {
	responder := newFakeResponder()
	e := newTestEngine(t, responder)
	e.RegisterTool(tools.NewClientTool("navigateToEvent", "", map[string]any{
		"eventId": map[string]any{"type": "string"},
	}, []string{"eventId"}))

	msg := &api.UnifiedMessage{Session: api.SessionContext{ChannelID: "web"}}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "navigateToEvent", `{}`), msg)

	if !strings.Contains(blocksText(blocks), "missing required parameter") {
		t.Fatalf("result = %q", blocksText(blocks))
	}
	select {
	case call := <-responder.relayed:
		t.Fatalf("invalid call was relayed: %+v", call)
	default:
	}
}

func TestReloadSystemConfigAppliesToLaterCalls(t *testing.T) {
	responder := newFakeResponder()
	e := newTestEngine(t, responder)
	e.RegisterTool(tools.NewClientTool("navigateToDate", "", map[string]any{}, nil))

	// Start with a timeout long enough that hitting it would hang the
	// test, then swap in a short one. The next call must pick up the new
	// snapshot and give up quickly.
	slow := config.DefaultSystemConfig()
	slow.ClientToolTimeoutMs = 600000
	e.ReloadSystemConfig(slow)

	fast := config.DefaultSystemConfig()
	fast.ClientToolTimeoutMs = 10
	e.ReloadSystemConfig(fast)

	msg := &api.UnifiedMessage{Session: api.SessionContext{ChannelID: "web"}}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "navigateToDate", `{}`), msg)

	if !strings.Contains(blocksText(blocks), "client tool call timed out") {
		t.Fatalf("result = %q", blocksText(blocks))
	}

	// A nil reload is ignored rather than clearing the config.
	e.ReloadSystemConfig(nil)
	if e.sysCfg.Load() == nil {
		t.Fatalf("nil reload cleared the config snapshot")
	}
}

func TestOnToolResultAfterTimeoutIsDropped(t *testing.T) {
	e := newTestEngine(t, newFakeResponder())

	// Nothing pending under this ID; the late result must be discarded
	// without panicking or blocking.
	e.OnToolResult("expired-call", api.ToolResult{Success: true})
}

func TestMalformedToolArguments(t *testing.T) {
	e := newTestEngine(t, newFakeResponder())
	e.RegisterTool(serverEcho("getUserCalendars"))

	msg := &api.UnifiedMessage{}
	blocks := e.HandleToolCall(context.Background(), toolCall("c1", "getUserCalendars", `{not json`), msg)

	if !strings.Contains(blocksText(blocks), "Failed to parse tool arguments") {
		t.Fatalf("result = %q", blocksText(blocks))
	}
}
