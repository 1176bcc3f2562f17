package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"tempo/pkg/api"
	"tempo/pkg/config"
	"tempo/pkg/llm"
	"tempo/pkg/tools"
	"tempo/pkg/utils"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AgentEngine manages the core reasoning loop, including LLM communication,
// tool dispatch (server execution and browser relay), and recursive turn
// handling. It implements api.AgentEngine.
//
// The system config is held behind an atomic pointer: hot reload swaps the
// whole struct so concurrent turns never observe a half-written one.
type AgentEngine struct {
	client       llm.LLMClient
	responder    api.MessageResponder
	sysCfg       atomic.Pointer[config.SystemConfig]
	appCfg       *config.Config
	toolRegistry api.ToolRegistry
	sessions     *llm.SessionManager
	pending      *PendingCalls
}

// NewAgentEngine initializes a new AgentEngine with config managers.
func NewAgentEngine(
	client llm.LLMClient,
	appCfg *config.Config,
	sysCfg *config.SystemConfig,
	sessions *llm.SessionManager,
) *AgentEngine {
	e := &AgentEngine{
		client:   client,
		appCfg:   appCfg,
		sessions: sessions,
		pending:  NewPendingCalls(),
	}
	e.sysCfg.Store(sysCfg)
	return e
}

// ReloadSystemConfig publishes new engine parameters. Turns already in
// flight keep the snapshot they started with.
func (e *AgentEngine) ReloadSystemConfig(cfg *config.SystemConfig) {
	if cfg != nil {
		e.sysCfg.Store(cfg)
	}
}

// SetResponder sets the messaging interface used by the engine to send replies.
func (e *AgentEngine) SetResponder(responder api.MessageResponder) {
	e.responder = responder
}

// SetToolRegistry sets the tool registry used by the engine for tool dispatch.
func (e *AgentEngine) SetToolRegistry(tr api.ToolRegistry) {
	e.toolRegistry = tr
}

// RegisterTool adds one or more tools to the engine's registry.
// It automatically initializes the registry if it's currently nil.
func (e *AgentEngine) RegisterTool(tl ...api.Tool) {
	if e.toolRegistry == nil {
		e.toolRegistry = tools.NewToolRegistry()
	}
	for _, t := range tl {
		if err := e.toolRegistry.Register(t); err != nil {
			slog.Error("Failed to register tool", "name", t.Name(), "error", err)
		}
	}
}

// OnToolResult resolves a pending relayed client tool call with the result
// the browser posted back.
func (e *AgentEngine) OnToolResult(callID string, result api.ToolResult) {
	if !e.pending.Resolve(callID, result) {
		slog.Warn("Tool result for unknown or expired call", "call_id", callID)
	}
}

// HandleMessage is the primary entry point for processing a user message.
func (e *AgentEngine) HandleMessage(ctx context.Context, msg *api.UnifiedMessage, history *llm.ChatHistory) llm.Message {
	sessionID := fmt.Sprintf("%s_%s", msg.Session.ChannelID, msg.Session.ChatID)

	e.ensureSystemPrompt(history)

	if strings.HasPrefix(msg.Content, "/") {
		return e.handleSlashCommand(ctx, msg, history, sessionID)
	}

	userMsg := llm.Message{
		ID:        utils.GenerateID(),
		Role:      llm.RoleUser,
		Content:   []llm.ContentBlock{llm.NewTextBlock(msg.Content)},
		Timestamp: time.Now().Unix(),
	}
	history.Add(userMsg)
	e.sessions.SaveSession(sessionID)

	assistantMsg := e.ProcessLLMStream(ctx, msg, history)

	if len(assistantMsg.Content) > 0 {
		history.Add(assistantMsg)
		e.sessions.SaveSession(sessionID)
	}

	e.maybeSummarize(ctx, sessionID, history, assistantMsg.Usage)
	return assistantMsg
}

// ensureSystemPrompt ensures that the initial system prompt is present in the
// ChatHistory, injecting the latest conversation summary when one exists.
func (e *AgentEngine) ensureSystemPrompt(history *llm.ChatHistory) {
	prompt := e.appCfg.SystemPrompt

	if summary := history.GetSummary(); summary != "" {
		prompt = fmt.Sprintf("%s\n\n[CONVERSATION SUMMARY]\n%s", prompt, summary)
	}

	if prompt != "" {
		history.EnsureSystemMessage(prompt)
	}
}

// handleSlashCommand parses and executes manual "slash" commands entered by
// the user: /[tool_name] [JSON_params(optional)], plus /notools to run one
// turn without tool calling.
func (e *AgentEngine) handleSlashCommand(ctx context.Context, msg *api.UnifiedMessage, history *llm.ChatHistory, sessionID string) llm.Message {
	parts := strings.SplitN(strings.TrimPrefix(msg.Content, "/"), " ", 2)
	toolName := parts[0]
	if toolName == "" {
		e.responder.SendReply(msg.Session, "❌ Format error. Please use: /[tool_name] [JSON_params(optional)]\nExample: `/getUserCalendars` or `/listHighlights {\"type\":\"event\"}`")
		return llm.Message{}
	}

	if toolName == "notools" {
		if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
			e.responder.SendReply(msg.Session, "❌ Usage: /notools [message]")
			return llm.Message{}
		}
		msg.NoTools = true
		msg.Content = parts[1]

		assistantMsg := e.ProcessLLMStream(ctx, msg, history)
		if len(assistantMsg.Content) > 0 {
			history.Add(assistantMsg)
			e.sessions.SaveSession(sessionID)
		}
		return assistantMsg
	}

	rawArgs := "{}"
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		rawArgs = parts[1]
		var probe map[string]any
		if err := json.Unmarshal([]byte(rawArgs), &probe); err != nil {
			e.responder.SendReply(msg.Session, fmt.Sprintf("❌ Parameter parsing failed: %v", err))
			return llm.Message{}
		}
	}

	if _, ok := e.toolRegistry.Get(toolName); !ok {
		e.responder.SendReply(msg.Session, fmt.Sprintf("❌ Tool not found: %s", toolName))
		return llm.Message{}
	}

	e.responder.SendReply(msg.Session, fmt.Sprintf("🛠️ Manually executing tool: %s...", toolName))

	tc := llm.ToolCall{
		ID:       uuid.NewString(),
		Name:     toolName,
		Function: llm.FunctionCall{Name: toolName, Arguments: rawArgs},
	}
	resBlocks := e.HandleToolCall(ctx, tc, msg)
	e.StreamBlocks(ctx, msg.Session, resBlocks)

	return llm.Message{
		ID:        utils.GenerateID(),
		Role:      llm.RoleAssistant,
		Content:   resBlocks,
		Timestamp: time.Now().Unix(),
	}
}

// maybeSummarize triggers summarization when the history grows too long.
func (e *AgentEngine) maybeSummarize(ctx context.Context, sessionID string, history *llm.ChatHistory, usage *llm.LLMUsage) {
	sysCfg := e.sysCfg.Load()
	threshold := sysCfg.HistorySummarizeThreshold
	maxChars := sysCfg.HistoryMaxChars
	maxTokens := sysCfg.HistoryMaxTokens
	keepCount := sysCfg.HistoryKeepRecentCount

	msgs := history.GetMessages()
	msgCount := len(msgs)

	if msgCount <= keepCount {
		return
	}

	overTokens := false
	if usage != nil && usage.TotalTokens > 0 && maxTokens > 0 {
		if usage.TotalTokens >= maxTokens {
			overTokens = true
		}
	}

	totalChars := 0
	if !overTokens {
		for _, m := range msgs {
			for _, b := range m.Content {
				if b.Type == llm.BlockTypeText {
					totalChars += len(b.Text)
				}
			}
		}
	}

	overCount := threshold > 0 && msgCount >= threshold
	overSize := maxChars > 0 && totalChars >= maxChars

	if !overTokens && !overCount && !overSize {
		return
	}

	slog.InfoContext(ctx, "Triggering sliding window summarization", "session", sessionID)

	summary, err := e.summarizeSession(ctx, history)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to summarize session", "session", sessionID, "error", err)
		return
	}

	history.SetSummary(summary)
	history.TruncateHistory(keepCount)
	e.sessions.SaveSession(sessionID)
	slog.InfoContext(ctx, "Session summarized successfully", "session", sessionID)
}

// summarizeSession calls the LLM to create a concise rolling summary.
func (e *AgentEngine) summarizeSession(ctx context.Context, history *llm.ChatHistory) (string, error) {
	msgs := history.GetMessages()

	summaryPrompt := "You are a conversation analyst. Given the previous summary and the newly elapsed conversation fragment, produce an updated concise summary.\n" +
		"The summary must keep: important facts, the user's scheduling preferences, and decisions reached.\n" +
		"Output only the updated summary text, with no preamble or explanation."

	existing := history.GetSummary()
	if existing == "" {
		existing = "(no summary yet)"
	}

	keepCount := e.sysCfg.Load().HistoryKeepRecentCount
	if len(msgs) <= keepCount+1 {
		return existing, nil
	}

	toSummarize := msgs[1 : len(msgs)-keepCount]

	var historyBuilder strings.Builder
	for _, m := range toSummarize {
		roleLabel := "User"
		switch m.Role {
		case llm.RoleAssistant:
			roleLabel = "Assistant"
		case llm.RoleTool:
			roleLabel = "Tool"
		}

		var msgText strings.Builder
		for _, b := range m.Content {
			if b.Type == llm.BlockTypeText {
				msgText.WriteString(b.Text)
			}
		}

		if msgText.Len() > 0 {
			historyBuilder.WriteString(fmt.Sprintf("[%s]: %s\n", roleLabel, strings.TrimSpace(msgText.String())))
		}
	}

	summarizerMsgs := []llm.Message{
		llm.NewSystemMessage(summaryPrompt),
		llm.NewUserMessage(fmt.Sprintf("[Previous summary]:\n%s\n\n[New fragment to fold in]:\n%s\n\nProvide the merged, up-to-date summary:", existing, historyBuilder.String())),
	}

	chunkCh, err := e.client.StreamChat(ctx, summarizerMsgs, nil)
	if err != nil {
		return "", err
	}

	var summary strings.Builder
	for chunk := range chunkCh {
		if chunk.RawError != nil {
			return "", chunk.RawError
		}
		for _, b := range chunk.ContentBlocks {
			if b.Type == llm.BlockTypeText {
				summary.WriteString(b.Text)
			}
		}
	}

	return summary.String(), nil
}

// ProcessLLMStream manages the core agentic reasoning loop including
// streaming response forwarding, tool dispatch recursion, and error recovery.
func (e *AgentEngine) ProcessLLMStream(ctx context.Context, msg *api.UnifiedMessage, history *llm.ChatHistory) llm.Message {
	sysCfg := e.sysCfg.Load()
	timeout := time.Duration(sysCfg.LLMTimeoutMs) * time.Millisecond
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Inject native tools; clients will format them appropriately
	var availableTools []llm.Tool
	if sysCfg.EnableTools && !msg.NoTools {
		apiTools := e.toolRegistry.GetAll()
		availableTools = make([]llm.Tool, len(apiTools))
		for i, t := range apiTools {
			availableTools[i] = t
		}
	}

	chunkCh, err := e.client.StreamChat(runCtx, history.GetMessages(), availableTools)
	if err != nil {
		slog.ErrorContext(runCtx, "LLM stream init failed", "error", err)
		errMsg := fmt.Sprintf("Error during stream initiation: %v", err)
		e.responder.SendReply(msg.Session, "❌ "+errMsg)

		return llm.Message{
			ID:        utils.GenerateID(),
			Role:      llm.RoleAssistant,
			Content:   []llm.ContentBlock{llm.NewErrorBlock(errMsg)},
			Timestamp: time.Now().Unix(),
		}
	}

	blockCh := make(chan llm.ContentBlock, sysCfg.InternalChannelBuffer)
	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		if err := e.responder.StreamReply(msg.Session, blockCh); err != nil {
			slog.ErrorContext(runCtx, "Failed to stream reply", "error", err)
		}
	}()

	closed := false
	safeClose := func() {
		if !closed {
			close(blockCh)
			<-streamDone
			closed = true
		}
	}
	defer safeClose()

	assistantMsg, streamErr := e.CollectChunks(runCtx, msg.Session, chunkCh, blockCh)
	safeClose()

	if len(assistantMsg.ToolCalls) > 0 {
		sessionID := fmt.Sprintf("%s_%s", msg.Session.ChannelID, msg.Session.ChatID)
		history.Add(assistantMsg)
		e.sessions.SaveSession(sessionID)

		for _, tc := range assistantMsg.ToolCalls {
			e.ResolveAndCommitToolCall(ctx, tc, msg, history)
		}

		e.sessions.SaveSession(sessionID)
		return e.ProcessLLMStream(ctx, msg, history)
	}

	reason := "UNKNOWN"
	if assistantMsg.Usage != nil {
		reason = assistantMsg.Usage.StopReason
	}

	hasContent, hasThinking, preview := SummarizeContent(assistantMsg)
	isNormal := streamErr == nil && (hasContent || hasThinking) && (reason == llm.StopReasonStop || reason == "UNKNOWN")

	if !isNormal {
		if reason == llm.StopReasonLength {
			slog.InfoContext(runCtx, "Response truncated by length limit", "thinking", hasThinking, "content", hasContent)
			e.responder.SendReply(msg.Session, "⚠️ Response truncated due to length limit.")
			return assistantMsg
		}

		if retried := e.AttemptRetry(ctx, msg, reason, streamErr, preview); retried {
			safeClose()
			return e.ProcessLLMStream(ctx, msg, history)
		}

		if streamErr != nil {
			assistantMsg.AddContentBlock(llm.NewErrorBlock(fmt.Sprintf("\n❌ Stream error: %v", streamErr)))
		} else if !hasContent && !hasThinking {
			assistantMsg.AddContentBlock(llm.NewErrorBlock(fmt.Sprintf("\n❌ Abnormal response: %s", reason)))
		}
	}

	return assistantMsg
}

// CollectChunks consumes a StreamChunk channel into one assistant message,
// forwarding displayable blocks as they arrive.
func (e *AgentEngine) CollectChunks(ctx context.Context, session api.SessionContext, chunkCh <-chan llm.StreamChunk, blockCh chan<- llm.ContentBlock) (llm.Message, error) {
	msg := llm.Message{
		ID:        utils.GenerateID(),
		Role:      llm.RoleAssistant,
		Content:   []llm.ContentBlock{},
		Timestamp: time.Now().Unix(),
	}
	var lastError error

	delay := time.Duration(e.sysCfg.Load().ThinkingInitDelayMs) * time.Millisecond
	thinkingTimer := time.NewTimer(delay)
	defer thinkingTimer.Stop()
	timerChan := thinkingTimer.C

	for {
		select {
		case chunk, ok := <-chunkCh:
			if !ok {
				return msg, lastError
			}
			if chunk.RawError != nil {
				return msg, chunk.RawError
			}

			if thinkingTimer != nil {
				thinkingTimer.Stop()
				thinkingTimer = nil
				timerChan = nil
			}

			e.ProcessChunk(ctx, chunk, &msg, blockCh)

			if chunk.IsFinal {
				return msg, lastError
			}

		case <-timerChan:
			e.responder.SendSignal(session, "thinking")
			timerChan = nil
		}
	}
}

// HandleToolCall resolves, parses, and dispatches an individual tool call.
// Server tools execute in-process against the data store with the caller's
// credentials; client tools are relayed to the browser and the result is
// awaited by call ID.
func (e *AgentEngine) HandleToolCall(ctx context.Context, tc llm.ToolCall, msg *api.UnifiedMessage) []llm.ContentBlock {
	cleanName := strings.TrimPrefix(tc.Name, "functions.")

	tool, ok := e.toolRegistry.Get(cleanName)
	if !ok {
		slog.ErrorContext(ctx, "Unknown tool call", "name", tc.Name, "clean_name", cleanName)
		return resultBlocks(api.FailResult(fmt.Sprintf("Unknown tool '%s'", tc.Name)))
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
		slog.ErrorContext(ctx, "Failed to parse tool args", "error", err)
		return resultBlocks(api.FailResult(fmt.Sprintf("Failed to parse tool arguments: %v", err)))
	}

	switch t := tool.(type) {
	case api.ServerTool:
		slog.InfoContext(ctx, "Executing tool", "name", cleanName, "args", args)
		return resultBlocks(t.Execute(ctx, msg.Auth, args))
	case api.ClientTool:
		slog.InfoContext(ctx, "Relaying client tool", "name", cleanName, "args", args)
		return resultBlocks(e.relayClientTool(ctx, t, tc, msg, args))
	default:
		// Unreachable for registered tools; the registry rejects anything
		// that is neither.
		return resultBlocks(api.FailResult(fmt.Sprintf("Tool '%s' has no executor", cleanName)))
	}
}

// relayClientTool validates the arguments, forwards the call to the session's
// channel, and waits for the browser to post the result back.
func (e *AgentEngine) relayClientTool(ctx context.Context, t api.ClientTool, tc llm.ToolCall, msg *api.UnifiedMessage, args map[string]any) *api.ToolResult {
	if err := tools.ValidateArgs(t, args); err != nil {
		return api.FailResult(err.Error())
	}

	callID := tc.ID
	if callID == "" {
		callID = uuid.NewString()
	}

	resultCh := e.pending.Register(callID)

	call := api.ClientToolCall{CallID: callID, Name: t.Name(), Args: args}
	if err := e.responder.RelayToolCall(msg.Session, call); err != nil {
		e.pending.Cancel(callID)
		slog.ErrorContext(ctx, "Client tool relay failed", "name", t.Name(), "error", err)
		return api.FailResult("client tools are not available on this channel")
	}

	timeout := time.Duration(e.sysCfg.Load().ClientToolTimeoutMs) * time.Millisecond
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-resultCh:
		return &res
	case <-timer.C:
		e.pending.Cancel(callID)
		slog.WarnContext(ctx, "Client tool call timed out", "name", t.Name(), "call_id", callID)
		return api.FailResult("client tool call timed out")
	case <-ctx.Done():
		e.pending.Cancel(callID)
		return api.FailResult(ctx.Err().Error())
	}
}

// ResolveAndCommitToolCall is a resilience wrapper that ensures every tool
// call results in a tool message being added to the history, even if the
// executor panics.
func (e *AgentEngine) ResolveAndCommitToolCall(ctx context.Context, tc llm.ToolCall, msg *api.UnifiedMessage, history *llm.ChatHistory) {
	var blocks []llm.ContentBlock

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Tool execution panicked", "tool", tc.Name, "error", r)
			blocks = resultBlocks(api.FailResult("Internal processing panic"))
		}

		toolResMsg := llm.Message{
			ID:         utils.GenerateID(),
			Role:       llm.RoleTool,
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
			Content:    blocks,
			Timestamp:  time.Now().Unix(),
		}
		history.Add(toolResMsg)

		e.responder.SendSignal(msg.Session, "role:system")
		e.StreamBlocks(ctx, msg.Session, blocks)
	}()

	blocks = e.HandleToolCall(ctx, tc, msg)
}

// StreamBlocks pipes a slice of content blocks into the gateway's stream.
func (e *AgentEngine) StreamBlocks(ctx context.Context, session api.SessionContext, blocks []llm.ContentBlock) {
	if len(blocks) == 0 {
		return
	}
	resCh := make(chan llm.ContentBlock, len(blocks))
	for _, b := range blocks {
		resCh <- b
	}
	close(resCh)
	if err := e.responder.StreamReply(session, resCh); err != nil {
		slog.ErrorContext(ctx, "Failed to stream blocks", "error", err)
	}
}

// ProcessChunk handles the low-level parsing of a single LLM StreamChunk.
func (e *AgentEngine) ProcessChunk(ctx context.Context, chunk llm.StreamChunk, msg *llm.Message, blockCh chan<- llm.ContentBlock) {
	if chunk.Error != "" {
		errorMsg := fmt.Sprintf("\n❌ %s", chunk.Error)
		msg.AddContentBlock(llm.NewErrorBlock(errorMsg))
		blockCh <- llm.NewErrorBlock(errorMsg)
	}

	for _, block := range chunk.ContentBlocks {
		msg.AddContentBlock(block)

		switch block.Type {
		case llm.BlockTypeText:
			blockCh <- block
		case llm.BlockTypeThinking:
			if e.sysCfg.Load().ShowThinking {
				blockCh <- block
			}
		}
	}

	if len(chunk.ToolCalls) > 0 {
		msg.ToolCalls = append(msg.ToolCalls, chunk.ToolCalls...)
	}

	if chunk.Usage != nil {
		msg.Usage = chunk.Usage
	}
}

// AttemptRetry checks if a retry is allowed and, if so, increments the counter.
func (e *AgentEngine) AttemptRetry(ctx context.Context, msg *api.UnifiedMessage, reason string, streamErr error, preview string) bool {
	sysCfg := e.sysCfg.Load()

	if streamErr != nil && !e.client.IsTransientError(streamErr) {
		slog.ErrorContext(ctx, "Non-transient error, skipping retry", "error", streamErr)
		e.responder.SendReply(msg.Session, fmt.Sprintf("❌ %v", streamErr))
		return false
	}

	maxRetries := sysCfg.MaxRetries
	if msg.RetryCount >= maxRetries {
		slog.ErrorContext(ctx, "Max retries reached", "max", maxRetries, "reason", reason, "error", streamErr)
		e.responder.SendReply(msg.Session, "❌ AI response remains abnormal, please try rephrasing or restarting the conversation.")
		return false
	}

	msg.RetryCount++
	slog.WarnContext(ctx, "Abnormal response, retrying",
		"reason", reason,
		"error", streamErr,
		"preview", preview,
		"has_content", preview != "",
		"retry", fmt.Sprintf("%d/%d", msg.RetryCount, maxRetries),
	)

	retryNotice := fmt.Sprintf("⚠️ Abnormal response (%s), attempting automatic fix (%d/%d)...", reason, msg.RetryCount, maxRetries)
	if streamErr != nil {
		retryNotice = fmt.Sprintf("⚠️ Connection error (%v), attempting automatic recovery (%d/%d)...", streamErr, msg.RetryCount, maxRetries)
	}
	e.responder.SendReply(msg.Session, retryNotice)

	time.Sleep(time.Duration(sysCfg.RetryDelayMs) * time.Millisecond)
	return true
}

// SummarizeContent performs a single pass over the message to derive content info.
func SummarizeContent(msg llm.Message) (hasContent, hasThinking bool, preview string) {
	var sb strings.Builder
	sb.Grow(100)

	for _, b := range msg.Content {
		if b.Type == llm.BlockTypeThinking && len(b.Text) > 0 {
			hasThinking = true
		} else if b.Type == llm.BlockTypeText && len(b.Text) > 0 {
			hasContent = true
			if sb.Len() < 100 {
				remaining := 100 - sb.Len()
				if len(b.Text) > remaining {
					sb.WriteString(b.Text[:remaining])
				} else {
					sb.WriteString(b.Text)
				}
			}
		}
	}

	preview = sb.String()
	if len(preview) >= 100 {
		preview += "..."
	}
	return
}

// resultBlocks renders a ToolResult as the content of a tool message. The
// JSON form goes back into the conversation so the model sees the full
// structured outcome.
func resultBlocks(res *api.ToolResult) []llm.ContentBlock {
	if res == nil {
		return []llm.ContentBlock{llm.NewTextBlock("(No output)")}
	}
	data, err := json.Marshal(res)
	if err != nil {
		return []llm.ContentBlock{llm.NewTextBlock(fmt.Sprintf("Error: Failed to encode tool result: %v", err))}
	}
	return []llm.ContentBlock{llm.NewTextBlock(string(data))}
}
