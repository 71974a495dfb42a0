package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Kyerstorm/lemegeton/pkg/lemegeton/aura"
)

// newPersonasCmd creates the `lemegeton personas` command that lists the
// persona catalog.
func newPersonasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the persona catalog",
		Long: `Lists every persona with its trigger words and style. The catalog
comes from personas.file in config.yaml, or the built-in set.

Examples:
  lemegeton personas`,
		RunE: runPersonas,
	}
}

func runPersonas(cmd *cobra.Command, _ []string) error {
	// Config is optional here; fall back to builtins without one.
	catalogPath := ""
	if found := configPathFromFlags(cmd); found != "" {
		if cfg, err := aura.LoadConfigFromFile(found); err == nil {
			catalogPath = cfg.Personas.File
		}
	}

	registry, err := aura.LoadPersonaCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("loading persona catalog: %w", err)
	}

	fmt.Println()
	fmt.Println("Persona Nexus — available personas:")
	fmt.Println()
	for _, p := range registry.All() {
		triggers := strings.Join(p.Triggers, ", ")
		if triggers == "" {
			triggers = "(fallback, no triggers)"
		}
		fmt.Printf("  %s %-12s %s\n", p.Emoji, p.Key, p.Style)
		fmt.Printf("     triggers: %s\n", triggers)
	}
	fmt.Println()
	fmt.Printf("%d personas. Lock one per guild with /aura lock.\n", registry.Len())
	fmt.Println()

	return nil
}

// configPathFromFlags resolves the config path without forcing setup.
func configPathFromFlags(cmd *cobra.Command) string {
	if path, _ := cmd.Root().PersistentFlags().GetString("config"); path != "" {
		return path
	}
	return aura.FindConfigFile()
}
