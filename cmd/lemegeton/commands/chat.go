package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/channels"
	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/store"
)

// Local scope used by the REPL so its memory never collides with a real
// Discord guild or channel.
const (
	localGuildID   = "local"
	localChannelID = "repl"
)

// newChatCmd creates the `lemegeton chat` command for talking to the
// persona engine from the terminal.
func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the persona engine locally",
		Long: `Run the persona engine against the terminal instead of Discord.
Persona selection, memory, and fallbacks behave as they do in a server.
Without arguments an interactive session starts.

Examples:
  lemegeton chat "What is the meaning of fate in this realm?"
  lemegeton chat  # interactive mode`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringP("model", "m", "", "LLM model override (e.g. gpt-4o-mini)")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}

	logger := newLogger(cmd, cfg)

	registry, err := aura.LoadPersonaCatalog(cfg.Personas.File)
	if err != nil {
		return fmt.Errorf("loading persona catalog: %w", err)
	}

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	llm := aura.NewLLMClient(cfg, logger)
	engine := aura.NewEngine(registry, st, llm, nil, logger)
	engine.SetBotIdentity("lemegeton-cli")

	ctx := context.Background()

	// Single message mode.
	if len(args) > 0 {
		return chatOnce(ctx, engine, args[0])
	}

	// Interactive mode.
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "you> ",
		InterruptPrompt:   "^C",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Persona Nexus interactive session. Type /quit to exit.")
	fmt.Println()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == "/quit", line == "/exit":
			return nil
		}

		if err := chatOnce(ctx, engine, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

// chatOnce pushes one message through the engine and prints the persona
// reply with its footer.
func chatOnce(ctx context.Context, engine *aura.Engine, text string) error {
	msg := &channels.IncomingMessage{
		ID:          uuid.NewString(),
		GuildID:     localGuildID,
		ChannelID:   localChannelID,
		AuthorID:    "operator",
		AuthorName:  "operator",
		Content:     text,
		MentionsBot: true,
		Timestamp:   time.Now(),
	}

	reply := engine.Process(ctx, msg)
	if reply == nil {
		fmt.Println("(no reply)")
		return nil
	}

	fmt.Println()
	fmt.Println(reply.Description)
	if reply.Footer != "" {
		fmt.Printf("  — %s\n", reply.Footer)
	}
	fmt.Println()
	return nil
}
