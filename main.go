package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"tempo/pkg/agent"
	"tempo/pkg/api"
	"tempo/pkg/channels"
	_ "tempo/pkg/channels/autoload" // register channel factories
	"tempo/pkg/config"
	"tempo/pkg/gateway"
	"tempo/pkg/grid"
	"tempo/pkg/llm"
	_ "tempo/pkg/llm/autoload" // register LLM providers
	"tempo/pkg/monitor"
	"tempo/pkg/store"
	"tempo/pkg/tools"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg, sysCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	monitor.SetupSlog(sysCfg.LogLevel)
	slog.Info("==========================================")

	client, err := llm.NewFromConfig(cfg.LLM, sysCfg)
	if err != nil {
		slog.Error("Failed to init LLM client", "error", err)
		os.Exit(1)
	}
	client.SetDebug(sysCfg.DebugChunks)

	st := store.NewClient(cfg.Store.BaseURL, cfg.Store.AnonKey)
	geo := grid.Geometry{
		DayStartHour:  sysCfg.DayStartHour,
		DayEndHour:    sysCfg.DayEndHour,
		PixelsPerHour: sysCfg.PixelsPerHour,
		SnapMinutes:   sysCfg.SnapMinutes,
	}

	sessions := llm.NewSessionManager(filepath.Join("data", "sessions"))

	engine := agent.NewAgentEngine(client, cfg, sysCfg, sessions)
	engine.RegisterTool(tools.NewEventTools(st, geo)...)
	engine.RegisterTool(tools.NewCalendarTools(st)...)
	engine.RegisterTool(tools.NewCategoryTools(st)...)
	engine.RegisterTool(tools.NewHighlightTools(st)...)
	engine.RegisterTool(tools.NewClientTools()...)

	handler := api.MessageHandler(func(msg *api.UnifiedMessage) {
		// Each message gets its own goroutine so long LLM turns never
		// block a channel's read loop; relayed tool results arrive on
		// that same loop.
		go func() {
			history, err := sessions.GetHistory(fmt.Sprintf("%s_%s", msg.Session.ChannelID, msg.Session.ChatID))
			if err != nil {
				slog.Error("Failed to load session history", "error", err)
				return
			}
			engine.HandleMessage(context.Background(), msg, history)
		}()
	})

	gw, err := gateway.NewGatewayBuilder().
		WithSystemConfig(sysCfg).
		WithMonitor(monitor.NewCLIMonitor()).
		WithChannel(channels.BuildFromConfig(cfg.Channels, sessions, sysCfg)...).
		WithAgentEngine(engine).
		WithHandler(handler).
		Build()
	if err != nil {
		slog.Error("Failed to build gateway", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hot-reload engine parameters when system.json changes. The engine
	// swaps the snapshot atomically; components that captured the startup
	// config (channels, gateway) and config.json edits still require a
	// restart.
	go func() {
		for range config.WatchConfig(ctx, "system.json") {
			engine.ReloadSystemConfig(config.LoadSystemConfig("system.json"))
			slog.Info("System config reloaded")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	slog.Info("Received shutdown signal. Stopping services...")

	gw.StopAll()
	slog.Info("Bye!")
}
