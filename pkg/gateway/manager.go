package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tempo/pkg/api"
	"tempo/pkg/config"
	"tempo/pkg/llm"
	"tempo/pkg/monitor"
)

// GatewayManager owns every registered Channel and routes traffic in both
// directions: incoming messages and tool results toward the agent, replies
// and relayed tool calls back out.
type GatewayManager struct {
	channels      map[string]Channel
	msgHandler    func(msg *UnifiedMessage)
	resultSink    api.ToolResultSink
	monitor       monitor.Monitor
	channelBuffer int
	mu            sync.RWMutex
}

// NewGatewayManager creates an empty manager with default buffering.
func NewGatewayManager() *GatewayManager {
	return &GatewayManager{
		channels:      make(map[string]Channel),
		channelBuffer: 100,
	}
}

// WithSystemConfig applies engine-level technical parameters.
func (g *GatewayManager) WithSystemConfig(cfg *config.SystemConfig) {
	if cfg != nil && cfg.InternalChannelBuffer > 0 {
		g.channelBuffer = cfg.InternalChannelBuffer
	}
}

// SetMessageHandler sets the core message processing logic.
func (g *GatewayManager) SetMessageHandler(handler func(msg *UnifiedMessage)) {
	g.msgHandler = handler
}

// SetToolResultSink sets the receiver for client tool results posted back by
// channels.
func (g *GatewayManager) SetToolResultSink(sink api.ToolResultSink) {
	g.resultSink = sink
}

// SetMonitor sets the monitoring implementation.
func (g *GatewayManager) SetMonitor(m monitor.Monitor) {
	g.monitor = m
}

// Register adds a Channel under its ID.
func (g *GatewayManager) Register(c Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
}

// GetChannel returns a registered Channel by ID.
func (g *GatewayManager) GetChannel(id string) (Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

// StartAll starts every registered Channel, passing the manager as its
// ChannelContext.
func (g *GatewayManager) StartAll() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Starting channel", "channel", id)
		if err := c.Start(g); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", id, err)
		}
	}
	return nil
}

// StopAll stops every registered Channel.
func (g *GatewayManager) StopAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Stopping channel", "channel", id)
		if err := c.Stop(); err != nil {
			slog.Error("Error stopping channel", "channel", id, "error", err)
		}
	}
}

// SendReply routes a plain text reply back to the session's channel.
func (g *GatewayManager) SendReply(session SessionContext, content string) error {
	slog.Debug("Gateway reply", "channel", session.ChannelID, "user", session.Username, "content", content)

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "ASSISTANT",
			ChannelID:   session.ChannelID,
			Username:    session.Username,
			Content:     content,
		})
	}

	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}
	return c.Send(session, content)
}

// SendSignal forwards a control signal (e.g. thinking) to the session's
// channel. Channels without signaling support ignore it silently.
func (g *GatewayManager) SendSignal(session SessionContext, signal string) error {
	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}

	if sc, ok := c.(SignalingChannel); ok {
		return sc.SendSignal(session, signal)
	}
	return nil
}

// RelayToolCall forwards a client tool invocation to the session's channel.
// Channels that cannot relay produce an error the engine converts into a
// structured tool failure.
func (g *GatewayManager) RelayToolCall(session SessionContext, call ClientToolCall) error {
	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}

	rc, ok := c.(ToolRelayChannel)
	if !ok {
		return fmt.Errorf("channel %s does not support client tools", session.ChannelID)
	}

	slog.Info("Relaying tool call", "channel", session.ChannelID, "tool", call.Name, "call_id", call.CallID)
	return rc.RelayToolCall(session, call)
}

// StreamReply routes a streamed reply to the session's channel, collecting
// the text for the monitor as it passes through.
func (g *GatewayManager) StreamReply(session SessionContext, blocks <-chan llm.ContentBlock) error {
	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}

	wrappedBlocks := make(chan llm.ContentBlock, g.channelBuffer)
	var fullContent string

	go func() {
		defer close(wrappedBlocks)
		for block := range blocks {
			if block.Type == llm.BlockTypeText {
				fullContent += block.Text
			}
			wrappedBlocks <- block
		}
		if fullContent != "" && g.monitor != nil {
			g.monitor.OnMessage(monitor.MonitorMessage{
				Timestamp:   time.Now(),
				MessageType: "ASSISTANT",
				ChannelID:   session.ChannelID,
				Username:    session.Username,
				Content:     fullContent,
			})
		}
	}()

	return c.Stream(session, wrappedBlocks)
}

// OnMessage implements ChannelContext; channels call it for every incoming
// message.
func (g *GatewayManager) OnMessage(channelID string, msg *UnifiedMessage) {
	slog.Info("Gateway received message",
		"channel", channelID, "user", msg.Session.Username, "user_id", msg.Session.UserID)

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "USER",
			ChannelID:   channelID,
			Username:    msg.Session.Username,
			Content:     msg.Content,
		})
	}

	if g.msgHandler != nil {
		g.msgHandler(msg)
	} else {
		slog.Warn("No message handler set")
	}
}

// OnToolResult implements ChannelContext; channels call it when the browser
// posts back the outcome of a relayed client tool call.
func (g *GatewayManager) OnToolResult(callID string, result api.ToolResult) {
	if g.resultSink == nil {
		slog.Warn("Tool result received with no sink", "call_id", callID)
		return
	}
	g.resultSink.OnToolResult(callID, result)
}
