package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
)

// newConfigCmd creates the `lemegeton config` command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration and credentials",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
		newConfigSetKeyCmd(),
		newConfigDeleteKeyCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets masked)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			found := configPathFromFlags(cmd)
			if found == "" {
				return fmt.Errorf("no config file found. Run 'lemegeton setup' first")
			}

			cfg, err := aura.LoadConfigFromFile(found)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			masked := *cfg
			masked.API.APIKey = maskSecret(cfg.API.APIKey)
			masked.Discord.Token = maskSecret(cfg.Discord.Token)

			data, err := yaml.Marshal(&masked)
			if err != nil {
				return fmt.Errorf("marshaling config: %w", err)
			}

			fmt.Printf("# %s\n%s", found, data)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		RunE: func(_ *cobra.Command, _ []string) error {
			target := "config.yaml"
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists. Remove it first or run 'lemegeton setup'", target)
			}
			if err := aura.SaveConfigToFile(aura.DefaultConfig(), target); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Printf("%s created with defaults. Edit it or run 'lemegeton setup'.\n", target)
			return nil
		},
	}
}

func newConfigSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key",
		Short: "Store the API key in the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !aura.KeyringAvailable() {
				return fmt.Errorf("OS keyring is not available. Export LEMEGETON_API_KEY instead")
			}

			var key string
			prompt := huh.NewInput().
				Title("API key").
				EchoMode(huh.EchoModePassword).
				Value(&key)
			if err := prompt.Run(); err != nil {
				return fmt.Errorf("reading key: %w", err)
			}

			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("no key entered")
			}

			if err := aura.SetAPIKey(key); err != nil {
				return fmt.Errorf("storing key in keyring: %w", err)
			}

			fmt.Println("API key stored in OS keyring.")
			return nil
		},
	}
}

func newConfigDeleteKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-key",
		Short: "Remove the API key from the OS keyring",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := aura.DeleteAPIKey(); err != nil {
				return fmt.Errorf("removing key from keyring: %w", err)
			}
			fmt.Println("API key removed from OS keyring.")
			return nil
		},
	}
}

// maskSecret hides all but a short prefix of a credential.
func maskSecret(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:4] + "****"
}
