// Package commands implements the Lemegeton CLI commands using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root CLI command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lemegeton",
		Short: "Lemegeton - Persona Nexus Discord bot",
		Long: `Lemegeton is a Discord chat bot that answers through a cast of
personas. Each message is scored against persona trigger words and the
winning persona shapes the reply, with bounded per-channel memory.

Examples:
  lemegeton serve
  lemegeton chat "What is the meaning of fate in this realm?"
  lemegeton personas
  lemegeton config set-key`,
		Version: version,
	}

	// Register subcommands.
	rootCmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newSetupCmd(),
		newPersonasCmd(),
		newConfigCmd(),
	)

	// Global flags.
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path (default: auto-discover config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (debug logging)")

	return rootCmd
}
