package gateway

import (
	"strings"
	"testing"

	"tempo/pkg/api"
	"tempo/pkg/llm"
)

// textChannel is a minimal channel without relay or signaling support.
type textChannel struct {
	id   string
	sent []string
}

func (c *textChannel) ID() string                      { return c.id }
func (c *textChannel) Start(ctx ChannelContext) error  { return nil }
func (c *textChannel) Stop() error                     { return nil }
func (c *textChannel) Send(s SessionContext, m string) error {
	c.sent = append(c.sent, m)
	return nil
}
func (c *textChannel) Stream(s SessionContext, blocks <-chan llm.ContentBlock) error {
	for range blocks {
	}
	return nil
}

// relayChannel additionally accepts client tool calls.
type relayChannel struct {
	textChannel
	calls []ClientToolCall
}

func (c *relayChannel) RelayToolCall(s SessionContext, call ClientToolCall) error {
	c.calls = append(c.calls, call)
	return nil
}

func TestSendReplyRoutesByChannelID(t *testing.T) {
	g := NewGatewayManager()
	web := &textChannel{id: "web"}
	tg := &textChannel{id: "telegram"}
	g.Register(web)
	g.Register(tg)

	session := SessionContext{ChannelID: "telegram", ChatID: "42"}
	if err := g.SendReply(session, "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(tg.sent) != 1 || tg.sent[0] != "hello" {
		t.Fatalf("telegram sent = %v", tg.sent)
	}
	if len(web.sent) != 0 {
		t.Fatalf("reply leaked to the wrong channel: %v", web.sent)
	}
}

func TestSendReplyUnknownChannel(t *testing.T) {
	g := NewGatewayManager()
	err := g.SendReply(SessionContext{ChannelID: "ghost"}, "x")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestRelayToolCallRequiresCapableChannel(t *testing.T) {
	g := NewGatewayManager()
	g.Register(&textChannel{id: "telegram"})
	web := &relayChannel{textChannel: textChannel{id: "web"}}
	g.Register(web)

	call := ClientToolCall{CallID: "c1", Name: "navigateToDate"}

	err := g.RelayToolCall(SessionContext{ChannelID: "telegram"}, call)
	if err == nil || !strings.Contains(err.Error(), "does not support client tools") {
		t.Fatalf("err = %v", err)
	}

	if err := g.RelayToolCall(SessionContext{ChannelID: "web"}, call); err != nil {
		t.Fatalf("relay failed: %v", err)
	}
	if len(web.calls) != 1 || web.calls[0].CallID != "c1" {
		t.Fatalf("relayed calls = %v", web.calls)
	}
}

func TestSendSignalIgnoredWithoutSupport(t *testing.T) {
	g := NewGatewayManager()
	g.Register(&textChannel{id: "web"})

	// Plain channels swallow signals silently.
	if err := g.SendSignal(SessionContext{ChannelID: "web"}, "thinking"); err != nil {
		t.Fatalf("signal on plain channel errored: %v", err)
	}
}

// sinkFunc adapts a function to api.ToolResultSink.
type sinkFunc func(string, api.ToolResult)

func (f sinkFunc) OnToolResult(callID string, result api.ToolResult) { f(callID, result) }

func TestOnToolResultForwardsToSink(t *testing.T) {
	g := NewGatewayManager()

	var gotID string
	g.SetToolResultSink(sinkFunc(func(callID string, result api.ToolResult) {
		gotID = callID
	}))

	g.OnToolResult("c9", api.ToolResult{Success: true})
	if gotID != "c9" {
		t.Fatalf("sink got %q", gotID)
	}

	// No sink registered: must not panic.
	NewGatewayManager().OnToolResult("c1", api.ToolResult{})
}
