package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
)

// newSetupCmd creates the `lemegeton setup` command for interactive
// configuration.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup wizard",
		Long: `Starts an interactive wizard to create your initial config.yaml.
Asks for bot name, Discord token, model, and storage path. The API key
is stored in the OS keyring, never in plaintext on disk.

Examples:
  lemegeton setup`,
		RunE: runSetup,
	}
}

func runSetup(_ *cobra.Command, _ []string) error {
	return runInteractiveSetup()
}

// runInteractiveSetup guides the user through config creation.
func runInteractiveSetup() error {
	cfg := aura.DefaultConfig()

	var (
		apiKey     string
		token      string
		timeoutStr = strconv.Itoa(cfg.API.TimeoutSeconds)
		webhookURL string
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bot name").
				Value(&cfg.Name),
			huh.NewInput().
				Title("Discord bot token").
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL (OpenAI-compatible)").
				Value(&cfg.API.BaseURL),
			huh.NewInput().
				Title("API key (stored in OS keyring)").
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewSelect[string]().
				Title("Model").
				Options(
					huh.NewOption("gpt-4o-mini — fast and cheap (default)", "gpt-4o-mini"),
					huh.NewOption("gpt-4o — great all-around", "gpt-4o"),
					huh.NewOption("gpt-4.1-mini — newer mini", "gpt-4.1-mini"),
					huh.NewOption("gpt-4.1 — newer flagship", "gpt-4.1"),
				).
				Value(&cfg.Model),
			huh.NewInput().
				Title("Completion timeout (seconds)").
				Value(&timeoutStr).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("enter a positive number of seconds")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SQLite database path").
				Value(&cfg.Store.Path),
			huh.NewInput().
				Title("Audit webhook URL (optional)").
				Value(&webhookURL),
			huh.NewConfirm().
				Title("Send typing indicators while generating?").
				Value(&cfg.Discord.SendTyping),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup aborted: %w", err)
	}

	if n, err := strconv.Atoi(strings.TrimSpace(timeoutStr)); err == nil {
		cfg.API.TimeoutSeconds = n
	}
	cfg.Audit.WebhookURL = strings.TrimSpace(webhookURL)
	cfg.Discord.Token = strings.TrimSpace(token)
	cfg.API.APIKey = strings.TrimSpace(apiKey)

	// Store the API key out of band. config.yaml only carries an env
	// reference after SaveConfigToFile sanitizes it.
	if cfg.API.APIKey != "" {
		if err := aura.SetAPIKey(cfg.API.APIKey); err != nil {
			fmt.Printf("Warning: could not store API key in OS keyring: %v\n", err)
			fmt.Println("Export LEMEGETON_API_KEY instead.")
		} else {
			fmt.Println("API key stored in OS keyring.")
		}
	}

	target := "config.yaml"
	if _, err := os.Stat(target); err == nil {
		overwrite := false
		confirm := huh.NewConfirm().
			Title(fmt.Sprintf("%s already exists. Overwrite?", target)).
			Value(&overwrite)
		if err := confirm.Run(); err != nil || !overwrite {
			fmt.Println("Setup cancelled. Existing file kept.")
			return nil
		}
	}

	if err := aura.SaveConfigToFile(cfg, target); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("%s created.\n", target)
	fmt.Println()
	fmt.Println("Next steps:")
	if cfg.Discord.Token == "" {
		fmt.Println("  1. Export LEMEGETON_DISCORD_TOKEN with your bot token")
		fmt.Println("  2. Run: lemegeton serve")
	} else {
		fmt.Println("  1. Export LEMEGETON_DISCORD_TOKEN with your bot token")
		fmt.Println("     (the token is never written to config.yaml)")
		fmt.Println("  2. Run: lemegeton serve")
	}
	fmt.Println()

	return nil
}
