package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/agentfactor/cryptoassist/pkg/adapter"
	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/agentfactor/cryptoassist/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	logLevel   string
	logFormat  string
	configPath string

	// Agent execution
	geminiAPIKey string

	// Memory store
	memoryBaseURL string
	memoryAPIKey  string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("CRYPTOASSIST_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       "console",
			Sources:     cli.EnvVars("CRYPTOASSIST_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the agent configuration YAML (built-in default when omitted)",
			Sources:     cli.EnvVars("CRYPTOASSIST_CONFIG"),
			Destination: &cfg.configPath,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key (demo mode when omitted)",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "memory-url",
			Usage:       "Base URL of the memory service API",
			Value:       "https://api.getzep.com/api/v2",
			Sources:     cli.EnvVars("CRYPTOASSIST_MEMORY_URL"),
			Destination: &cfg.memoryBaseURL,
		},
		&cli.StringFlag{
			Name:        "memory-api-key",
			Usage:       "API key for the memory service (memory disabled when omitted)",
			Sources:     cli.EnvVars("CRYPTOASSIST_MEMORY_API_KEY"),
			Destination: &cfg.memoryAPIKey,
		},
	}
}

// setupLogger installs the default logger and returns a context carrying it
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, logging.ParseFormat(cfg.logFormat), os.Stdout)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// loadAgentConfig reads the agent configuration document
func (cfg *config) loadAgentConfig() (*model.AgentConfig, error) {
	agentCfg, err := model.LoadAgentConfig(cfg.configPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load agent config")
	}
	return agentCfg, nil
}

// newGemini creates the agent execution client. A missing API key returns a
// nil client, which downstream layers treat as demo mode.
func (cfg *config) newGemini(ctx context.Context, agentCfg *model.AgentConfig) (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" {
		logging.From(ctx).Warn("no Gemini API key configured, running in demo mode")
		return nil, nil
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiAPIKey,
		adapter.WithModel(agentCfg.Orchestrator.Model))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newMemStore creates the memory store client. A missing API key returns a
// nil store, which disables memory.
func (cfg *config) newMemStore(ctx context.Context) adapter.MemStore {
	if cfg.memoryAPIKey == "" {
		logging.From(ctx).Warn("no memory store API key configured, memory disabled")
		return nil
	}
	return adapter.NewMemStore(cfg.memoryBaseURL, cfg.memoryAPIKey)
}
