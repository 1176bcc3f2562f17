package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config defines the global application configuration structure. It maps
// directly to config.json and holds business-level settings: channel
// credentials, LLM provider choices, the data-store endpoint, and the
// assistant persona.
type Config struct {
	// Channels maps channel identifiers (e.g. "web", "telegram") to their
	// raw JSON configuration payloads.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// LLM holds the provider group list in raw JSON.
	LLM jsoniter.RawMessage `json:"llm"`
	// Store configures the PostgREST data store endpoint.
	Store StoreConfig `json:"store"`
	// SystemPrompt is the assistant persona sent as the initial system
	// message in every conversation.
	SystemPrompt string `json:"system_prompt"`
}

// StoreConfig holds the data-store endpoint settings. Both fields may be
// overridden by environment variables (SUPABASE_URL, SUPABASE_ANON_KEY),
// which take precedence so credentials stay out of config files.
type StoreConfig struct {
	// BaseURL is the PostgREST root, e.g. https://xyz.supabase.co/rest/v1.
	BaseURL string `json:"base_url"`
	// AnonKey is the public API key sent in the apikey header on every
	// request. Per-user authorization is a separate bearer token resolved
	// from each conversation, never stored here.
	AnonKey string `json:"anon_key"`
}

// ApplyEnv overlays environment variables onto the store settings.
func (s *StoreConfig) ApplyEnv() {
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		s.BaseURL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		s.AnonKey = v
	}
}

// Validate ensures the configuration contains all mandatory fields.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	if c.Store.BaseURL == "" {
		return fmt.Errorf("store base URL not configured (set store.base_url or SUPABASE_URL)")
	}
	return nil
}

// SystemConfig defines engine-level technical parameters, loaded from
// system.json with hardcoded fallbacks.
type SystemConfig struct {
	// MaxRetries is the number of automatic recovery attempts after a
	// transient LLM or network error.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the wait between consecutive retry attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff for one LLM request.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// ClientToolTimeoutMs bounds the wait for a browser-executed tool to
	// post its result back. After this the call fails with a structured
	// timeout error.
	ClientToolTimeoutMs int `json:"client_tool_timeout_ms"`
	// InternalChannelBuffer sizes the Go channels buffering stream chunks.
	InternalChannelBuffer int `json:"internal_channel_buffer"`
	// ThinkingInitDelayMs is how long to wait before surfacing the
	// "thinking" status signal to the UI.
	ThinkingInitDelayMs int `json:"thinking_init_delay_ms"`
	// TelegramMessageLimit caps one Telegram message; longer responses
	// are split.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// ShowThinking streams reasoning blocks to the end user when true.
	ShowThinking bool `json:"show_thinking"`
	// DebugChunks saves every raw LLM chunk under debug/ for inspection.
	DebugChunks bool `json:"debug_chunks"`
	// LogLevel: "debug", "info", "warn", "error". Default "info".
	LogLevel string `json:"log_level"`
	// EnableTools globally toggles tool calling.
	EnableTools bool `json:"enable_tools"`

	// History management (sliding window summarization).
	HistorySummarizeThreshold int `json:"history_summarize_threshold"`
	HistoryKeepRecentCount    int `json:"history_keep_recent_count"`
	HistoryMaxChars           int `json:"history_max_chars"`
	HistoryMaxTokens          int `json:"history_max_tokens"`

	// Calendar grid geometry. SnapMinutes of 0 disables time snapping on
	// event mutations.
	SnapMinutes   int     `json:"snap_minutes"`
	DayStartHour  int     `json:"day_start_hour"`
	DayEndHour    int     `json:"day_end_hour"`
	PixelsPerHour float64 `json:"pixels_per_hour"`
}

// DefaultSystemConfig returns safe defaults used when system.json is
// missing or corrupt, so the engine can always start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		MaxRetries:                3,
		RetryDelayMs:              500,
		LLMTimeoutMs:              600000,
		ClientToolTimeoutMs:       15000,
		InternalChannelBuffer:     100,
		ThinkingInitDelayMs:       500,
		TelegramMessageLimit:      4000,
		ShowThinking:              true,
		LogLevel:                  "info",
		EnableTools:               true,
		HistorySummarizeThreshold: 40,
		HistoryKeepRecentCount:    12,
		HistoryMaxChars:           60000,
		HistoryMaxTokens:          0,
		SnapMinutes:               15,
		DayStartHour:              0,
		DayEndHour:                24,
		PixelsPerHour:             60,
	}
}

// Load reads config.json and system.json from the working directory.
// config.json is mandatory; system.json falls back to defaults.
func Load() (*Config, *SystemConfig, error) {
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Store.ApplyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	sysCfg := LoadSystemConfig("system.json")
	return &cfg, sysCfg, nil
}

// LoadSystemConfig loads system settings, returning defaults on any failure.
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg
	}
	return cfg
}
