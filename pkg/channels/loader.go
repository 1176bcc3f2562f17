package channels

import (
	"log/slog"

	"tempo/pkg/api"
	"tempo/pkg/config"
	"tempo/pkg/llm"

	jsoniter "github.com/json-iterator/go"
)

// BuildFromConfig iterates through the configured channel map, resolves
// factories, and returns the channels they produce. Unknown names and
// factory errors are logged and skipped so one bad channel block does not
// take the rest down.
func BuildFromConfig(configs map[string]jsoniter.RawMessage, sessions *llm.SessionManager, system *config.SystemConfig) []api.Channel {
	var built []api.Channel
	for name, rawConfig := range configs {
		factory, ok := GetChannelFactory(name)
		if !ok {
			slog.Warn("Unknown channel type", "name", name)
			continue
		}

		channel, err := factory.Create(rawConfig, sessions, system)
		if err != nil {
			slog.Error("Failed to create channel", "name", name, "error", err)
			continue
		}

		// A nil channel without an error means the factory declined to
		// build one for this configuration.
		if channel == nil {
			continue
		}

		built = append(built, channel)
		slog.Info("Channel configured", "name", name)
	}
	return built
}
