package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/agentfactor/cryptoassist/pkg/model"
	"github.com/agentfactor/cryptoassist/pkg/usecase/chat"
)

func chatCommand() *cli.Command {
	var (
		global          config
		sessionID       string
		userID          string
		email           string
		firstName       string
		lastName        string
		ignoreAssistant bool
		medievalMode    bool
	)

	tools := domainTools()

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session-id",
			Usage:       "Session identifier (generated when omitted)",
			Destination: &sessionID,
		},
		&cli.StringFlag{
			Name:        "user-id",
			Usage:       "User identifier (generated when omitted)",
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "email",
			Usage:       "User email",
			Destination: &email,
		},
		&cli.StringFlag{
			Name:        "first-name",
			Usage:       "User first name",
			Destination: &firstName,
		},
		&cli.StringFlag{
			Name:        "last-name",
			Usage:       "User last name",
			Destination: &lastName,
		},
		&cli.BoolFlag{
			Name:        "ignore-assistant",
			Usage:       "Do not learn user facts from assistant replies",
			Destination: &ignoreAssistant,
		},
		&cli.BoolFlag{
			Name:        "medieval",
			Usage:       "Answer in medieval style",
			Destination: &medievalMode,
		},
	}
	flags = append(flags, globalFlags(&global)...)
	for _, t := range tools {
		flags = append(flags, t.Flags()...)
	}

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive conversation with the assistant",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = global.setupLogger(ctx)

			agentCfg, err := global.loadAgentConfig()
			if err != nil {
				return err
			}

			gemini, err := global.newGemini(ctx, agentCfg)
			if err != nil {
				return err
			}
			store := global.newMemStore(ctx)

			registry := chat.NewRegistry(gemini, store, agentCfg, tools...)

			if sessionID == "" {
				sessionID = fmt.Sprintf("interactive-session-%d", time.Now().Unix())
			}

			profile := model.Profile{
				UserID:          model.UserID(userID),
				Email:           email,
				FirstName:       firstName,
				LastName:        lastName,
				IgnoreAssistant: ignoreAssistant,
			}

			session, err := registry.Create(ctx, model.SessionID(sessionID), profile)
			if err != nil {
				return goerr.Wrap(err, "failed to create session")
			}

			return runInteractive(ctx, c.Root().Writer, session, medievalMode)
		},
	}
}

func runInteractive(ctx context.Context, w io.Writer, session *chat.Session, medievalMode bool) error {
	rl, err := readline.New("You: ")
	if err != nil {
		return goerr.Wrap(err, "failed to open terminal")
	}
	defer rl.Close()

	fmt.Fprintln(w, "Type 'exit', 'quit', or 'bye' to end the conversation.")
	fmt.Fprintln(w, "Type 'memory' to see the current memory context.")
	fmt.Fprintln(w)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return goerr.Wrap(err, "failed to read input")
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "exit", "quit", "bye":
			fmt.Fprintln(w, "Goodbye!")
			return nil

		case "memory":
			memCtx, err := session.MemoryContext(ctx)
			if err != nil {
				fmt.Fprintf(w, "Memory unavailable: %v\n\n", err)
				continue
			}
			fmt.Fprintf(w, "=== Memory Context ===\n%s\n\n", memCtx)
			continue
		}

		sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		sp.Suffix = " thinking..."
		sp.Start()

		response, err := session.Chat(ctx, input, medievalMode)
		sp.Stop()

		if err != nil {
			fmt.Fprintf(w, "Error: %v\n\n", err)
			continue
		}

		fmt.Fprintf(w, "Agent: %s\n\n", response)
	}
}
