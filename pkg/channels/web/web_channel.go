package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"tempo/pkg/api"
	"tempo/pkg/llm"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for decoupled UI
	},
}

type WebConfig struct {
	Port int `json:"port"`
}

// IncomingFrame is the envelope for every message the browser sends.
// Type selects the payload: "auth" carries credentials, "chat" carries user
// text, "tool_result" carries the outcome of a relayed client tool call.
type IncomingFrame struct {
	Type string `json:"type"`

	// auth
	Token  string `json:"token,omitempty"`
	UserID string `json:"user_id,omitempty"`

	// chat
	Text string `json:"text,omitempty"`

	// tool_result
	CallID string          `json:"call_id,omitempty"`
	Result *api.ToolResult `json:"result,omitempty"`
}

// SafeConn serializes writes; gorilla/websocket allows one concurrent writer.
type SafeConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (sc *SafeConn) WriteMessage(messageType int, data []byte) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.Conn.WriteMessage(messageType, data)
}

func (sc *SafeConn) WriteJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sc.WriteMessage(websocket.TextMessage, data)
}

// WebChannel serves the browser UI over a websocket. It is the only channel
// with client tool support: relayed calls go out as tool_call frames and the
// UI posts tool_result frames back.
type WebChannel struct {
	config      WebConfig
	server      *http.Server
	sessions    *llm.SessionManager
	connections map[string]*SafeConn // session UserID -> connection
	mu          sync.RWMutex
}

func NewWebChannel(cfg WebConfig, sessions *llm.SessionManager) *WebChannel {
	return &WebChannel{
		config:      cfg,
		sessions:    sessions,
		connections: make(map[string]*SafeConn),
	}
}

func (c *WebChannel) ID() string {
	return "web"
}

func (c *WebChannel) Start(ctx api.ChannelContext) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		c.handleWebSocket(w, r, ctx)
	})

	addr := fmt.Sprintf(":%d", c.config.Port)
	c.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	slog.Info("Web API listening", "port", c.config.Port)

	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Web API server error", "error", err)
		}
	}()

	return nil
}

func (c *WebChannel) Stop() error {
	if c.server != nil {
		return c.server.Close()
	}
	return nil
}

func (c *WebChannel) conn(userID string) (*SafeConn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.connections[userID]
	return conn, ok
}

func (c *WebChannel) Send(session api.SessionContext, message string) error {
	conn, ok := c.conn(session.UserID)
	if !ok {
		return fmt.Errorf("web user %s not connected", session.UserID)
	}
	return conn.WriteJSON(map[string]string{"type": "text", "text": message})
}

// SendSignal implements api.SignalingChannel.
func (c *WebChannel) SendSignal(session api.SessionContext, signal string) error {
	conn, ok := c.conn(session.UserID)
	if !ok {
		return fmt.Errorf("web user %s not connected", session.UserID)
	}
	return conn.WriteJSON(map[string]string{"type": "signal", "value": signal})
}

// RelayToolCall implements api.ToolRelayChannel. The invocation crosses to
// the browser untouched; the UI handler runs it against local state and
// posts a tool_result frame back.
func (c *WebChannel) RelayToolCall(session api.SessionContext, call api.ClientToolCall) error {
	conn, ok := c.conn(session.UserID)
	if !ok {
		return fmt.Errorf("web user %s not connected", session.UserID)
	}
	return conn.WriteJSON(map[string]any{
		"type":    "tool_call",
		"call_id": call.CallID,
		"name":    call.Name,
		"args":    call.Args,
	})
}

// Stream implements api.Channel.Stream.
func (c *WebChannel) Stream(session api.SessionContext, blocks <-chan llm.ContentBlock) error {
	conn, ok := c.conn(session.UserID)
	if !ok {
		return fmt.Errorf("web user %s not connected", session.UserID)
	}

	for block := range blocks {
		msg := map[string]any{
			"type": block.Type,
			"text": block.Text,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return err
		}
	}

	// Finish flag
	return conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"done"}`))
}

func (c *WebChannel) handleWebSocket(w http.ResponseWriter, r *http.Request, ctx api.ChannelContext) {
	rawConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WS upgrade failed", "error", err)
		return
	}

	conn := &SafeConn{Conn: rawConn}

	// Connections are keyed by remote address until an auth frame binds
	// them to a user.
	connKey := r.RemoteAddr
	c.mu.Lock()
	c.connections[connKey] = conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.connections, connKey)
		c.mu.Unlock()
		conn.Close()
	}()

	session := api.SessionContext{
		ChannelID: "web",
		UserID:    connKey,
		ChatID:    connKey,
		Username:  "WebUser",
	}
	var auth api.AuthContext

	for {
		_, msgBytes, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var frame IncomingFrame
		if err := json.Unmarshal(msgBytes, &frame); err != nil {
			// Plain text from older UI builds is treated as a chat frame.
			frame = IncomingFrame{Type: "chat", Text: string(msgBytes)}
		}

		switch frame.Type {
		case "auth":
			if frame.UserID == "" {
				conn.WriteJSON(map[string]string{"type": "error", "text": "auth frame requires user_id"})
				continue
			}

			c.mu.Lock()
			delete(c.connections, connKey)
			connKey = frame.UserID
			c.connections[connKey] = conn
			c.mu.Unlock()

			auth = api.AuthContext{Token: frame.Token, UserID: frame.UserID}
			session.UserID = frame.UserID
			session.ChatID = frame.UserID
			session.Username = frame.UserID

			slog.Info("Web session authenticated", "user_id", frame.UserID)
			c.sendHistory(conn, session)

		case "tool_result":
			if frame.CallID == "" || frame.Result == nil {
				slog.Warn("Malformed tool_result frame", "call_id", frame.CallID)
				continue
			}
			ctx.OnToolResult(frame.CallID, *frame.Result)

		case "chat":
			if frame.Text == "" {
				continue
			}
			ctx.OnMessage(c.ID(), &api.UnifiedMessage{
				Session: session,
				Auth:    auth,
				Content: frame.Text,
			})

		default:
			slog.Warn("Unknown web frame type", "type", frame.Type)
		}
	}
}

// sendHistory replays the user's persisted conversation so a fresh tab picks
// up where the previous one stopped.
func (c *WebChannel) sendHistory(conn *SafeConn, session api.SessionContext) {
	h, err := c.sessions.GetHistory(fmt.Sprintf("%s_%s", session.ChannelID, session.ChatID))
	if err != nil {
		slog.Error("Failed to load session history", "error", err)
		return
	}

	msgs := h.GetMessages()
	if len(msgs) == 0 {
		return
	}

	if err := conn.WriteJSON(map[string]any{"type": "history", "data": msgs}); err != nil {
		slog.Error("Failed to send history", "error", err)
	}
}
