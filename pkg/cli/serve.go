package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/agentfactor/cryptoassist/pkg/server"
	"github.com/agentfactor/cryptoassist/pkg/tool"
	"github.com/agentfactor/cryptoassist/pkg/tool/aave"
	"github.com/agentfactor/cryptoassist/pkg/tool/scam"
	"github.com/agentfactor/cryptoassist/pkg/tool/websearch"
	"github.com/agentfactor/cryptoassist/pkg/usecase/chat"
)

// domainTools returns the network-backed tools shared across sessions
func domainTools() []tool.Tool {
	return []tool.Tool{
		aave.New(),
		scam.New(),
		websearch.New(),
	}
}

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	tools := domainTools()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":8000",
			Sources:     cli.EnvVars("CRYPTOASSIST_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	for _, t := range tools {
		flags = append(flags, t.Flags()...)
	}

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the chat API server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			agentCfg, err := cfg.loadAgentConfig()
			if err != nil {
				return err
			}

			gemini, err := cfg.newGemini(ctx, agentCfg)
			if err != nil {
				return err
			}
			store := cfg.newMemStore(ctx)

			registry := chat.NewRegistry(gemini, store, agentCfg, tools...)
			return server.New(addr, registry).Start(ctx)
		},
	}
}
