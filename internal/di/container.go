package di

import (
	"fmt"

	"github.com/JovaniPink/mcp-browser-use/internal/adapter/mcp"
	"github.com/JovaniPink/mcp-browser-use/internal/adapter/tools"
	"github.com/JovaniPink/mcp-browser-use/internal/application/port/output"
	"github.com/JovaniPink/mcp-browser-use/internal/application/service"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/browser/rod"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/clipboard"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/env"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/llm"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/logger"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/metrics"
	"github.com/JovaniPink/mcp-browser-use/internal/infrastructure/recording"
	"github.com/JovaniPink/mcp-browser-use/internal/usecase/coordinator"
)

type Container struct {
	Logger      output.LoggerPort
	Env         *env.EnvService
	Actions     *service.ActionRegistryImpl
	Metrics     *metrics.Prometheus
	Coordinator *coordinator.Coordinator
	Server      *mcp.Server
}

type Config struct {
	LogLevel string
	LogFile  string
	Version  string

	// Overrides for tests; nil selects the real implementation.
	Clipboard output.ClipboardPort
	Sessions  output.SessionFactory
	LLMs      output.LLMFactory
}

func NewContainer(cfg Config) (*Container, error) {
	logCfg := logger.DefaultConfig()
	if cfg.LogLevel != "" {
		logCfg.Level = cfg.LogLevel
	}
	logCfg.File = cfg.LogFile
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	envService := env.NewEnvService(log)

	var cb output.ClipboardPort = clipboard.System{}
	if cfg.Clipboard != nil {
		cb = cfg.Clipboard
	}
	actions := service.NewActionRegistry()
	tools.RegisterDefaults(actions, cb, log)

	var sessions output.SessionFactory = rod.NewFactory(rod.DefaultOptions(), log)
	if cfg.Sessions != nil {
		sessions = cfg.Sessions
	}
	var llms output.LLMFactory = llm.NewFactory(log)
	if cfg.LLMs != nil {
		llms = cfg.LLMs
	}

	m := metrics.New()
	coord := coordinator.New(coordinator.Deps{
		Env:      envService,
		LLMs:     llms,
		Sessions: sessions,
		Actions:  actions,
		Recorder: recording.NewGIFRecorder(log),
		Metrics:  m,
		Logger:   log,
	})

	server := mcp.NewServer(coord, log, mcp.ServerInfo{Version: cfg.Version})

	log.Debug("Container ready", "actions", len(actions.All()), "providers", llm.Providers())

	return &Container{
		Logger:      log,
		Env:         envService,
		Actions:     actions,
		Metrics:     m,
		Coordinator: coord,
		Server:      server,
	}, nil
}

// Close aborts an active run and flushes the logger.
func (c *Container) Close() {
	if c.Server != nil {
		c.Server.CancelAll()
	}
	if c.Coordinator != nil && c.Coordinator.Running() {
		c.Coordinator.Abort()
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
}
