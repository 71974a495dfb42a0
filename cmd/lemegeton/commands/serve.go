package commands

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/audit"
	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/channels"
	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/channels/discord"
	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/janitor"
	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/store"
)

// newServeCmd creates the `lemegeton serve` command that starts the bot.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Discord bot",
		Long: `Start Lemegeton as a daemon: connect to the Discord gateway,
listen for messages and answer through the persona engine.

Examples:
  lemegeton serve
  lemegeton serve --config ./config.yaml`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// ── Load config ──
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// ── Configure logger ──
	logger := newLogger(cmd, cfg)

	if cfg.Discord.Token == "" {
		return fmt.Errorf("discord token is not configured. Set LEMEGETON_DISCORD_TOKEN or discord.token in config.yaml")
	}

	// ── Persona registry ──
	registry, err := aura.LoadPersonaCatalog(cfg.Personas.File)
	if err != nil {
		return fmt.Errorf("loading persona catalog: %w", err)
	}

	// ── Store ──
	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	// ── Engine wiring ──
	llm := aura.NewLLMClient(cfg, logger)
	auditor := audit.New(cfg.Audit.WebhookURL, logger)
	engine := aura.NewEngine(registry, st, llm, auditor, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Janitor ──
	var jan *janitor.Janitor
	if cfg.Janitor.Enabled {
		jan = janitor.New(engine.Memory(), cfg.Janitor.Schedule, logger)
		if err := jan.Start(); err != nil {
			logger.Error("janitor start failed", "error", err)
		}
	}

	// ── Discord channel ──
	ch := discord.New(cfg.Discord, engine, auditor, logger)
	if err := ch.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to Discord: %w", err)
	}

	// ── Message loop ──
	go messageLoop(ctx, ch, engine, cfg.Discord.SendTyping, logger)

	logger.Info("Lemegeton running. Press Ctrl+C to stop.",
		"name", cfg.Name,
		"model", cfg.Model,
		"personas", registry.Len(),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received, stopping...")

	// Graceful shutdown with timeout.
	done := make(chan struct{})
	go func() {
		cancel()
		if jan != nil {
			jan.Stop()
		}
		ch.Disconnect()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out after 10s, forcing exit")
	}

	return nil
}

// messageLoop drains the channel's incoming stream and dispatches each
// message to the engine. Replies flow back through the same channel.
func messageLoop(ctx context.Context, ch channels.Channel, engine *aura.Engine, sendTyping bool, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch.Receive():
			if !ok {
				return
			}
			go func(msg *channels.IncomingMessage) {
				if sendTyping {
					_ = ch.SendTyping(ctx, msg.ChannelID)
				}
				reply := engine.Process(ctx, msg)
				if reply == nil {
					return
				}
				if err := ch.SendReply(ctx, msg.ChannelID, msg.ID, reply); err != nil {
					logger.Error("failed to send reply",
						"channel_id", msg.ChannelID, "msg_id", msg.ID, "error", err)
				}
			}(msg)
		}
	}
}

// newLogger builds the slog logger from flags and config.
func newLogger(cmd *cobra.Command, cfg *aura.Config) *slog.Logger {
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logLevel := slog.LevelInfo
	if verbose || cfg.Logging.Level == "debug" {
		logLevel = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}
	return slog.New(handler)
}

// resolveConfig loads config from file, offering interactive setup if missing.
func resolveConfig(cmd *cobra.Command) (*aura.Config, error) {
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")

	// Try explicit path first.
	if configPath != "" {
		cfg, err := aura.LoadConfigFromFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	// Auto-discover config file.
	if found := aura.FindConfigFile(); found != "" {
		cfg, err := aura.LoadConfigFromFile(found)
		if err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", found, err)
		}
		slog.Info("config loaded", "path", found)
		return cfg, nil
	}

	// No config file; offer interactive setup before connecting.
	fmt.Println()
	fmt.Println("No configuration file found.")
	fmt.Println("Lemegeton needs a config.yaml before connecting to Discord.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Run interactive setup now? (y/n) [y]: ")
	line, _ := reader.ReadString('\n')
	answer := strings.TrimSpace(line)

	if answer != "" && strings.ToLower(answer) != "y" {
		fmt.Println()
		fmt.Println("Run 'lemegeton setup' to create the configuration.")
		return nil, fmt.Errorf("configuration required before starting")
	}

	if err := runInteractiveSetup(); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	// Try loading the freshly created config.
	if found := aura.FindConfigFile(); found != "" {
		cfg, err := aura.LoadConfigFromFile(found)
		if err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", found, err)
		}
		slog.Info("config loaded after setup", "path", found)
		return cfg, nil
	}

	return nil, fmt.Errorf("setup completed but config.yaml not found")
}
