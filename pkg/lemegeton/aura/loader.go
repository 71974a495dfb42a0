// Package aura – loader.go handles loading configuration from YAML files
// with credential resolution via environment variables, .env files, and
// the OS keyring.
package aura

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} and ${VAR_NAME:-default} in config
// values. Bare $VAR is intentionally not expanded.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LoadConfigFromFile reads and parses a YAML configuration file.
// Loads .env first (never overwriting already-set variables), expands
// ${VAR} references, then resolves secrets from environment and keyring.
func LoadConfigFromFile(path string) (*Config, error) {
	// godotenv.Load does NOT overwrite existing env vars.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := ParseConfig([]byte(expandEnvVars(string(data))))
	if err != nil {
		return nil, err
	}

	resolveSecrets(cfg)
	return cfg, nil
}

// ParseConfig parses YAML bytes into a Config, overlaying defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	return cfg, nil
}

// SaveConfigToFile writes a Config as YAML. Secrets are replaced with
// environment variable references so they never land on disk.
func SaveConfigToFile(cfg *Config, path string) error {
	sanitized := *cfg
	sanitized.API.APIKey = sanitizeSecret(cfg.API.APIKey, "LEMEGETON_API_KEY")
	sanitized.Discord.Token = sanitizeSecret(cfg.Discord.Token, "LEMEGETON_DISCORD_TOKEN")

	data, err := yaml.Marshal(&sanitized)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// FindConfigFile looks for a config file in common locations.
// Returns the first found, or empty string.
func FindConfigFile() string {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"lemegeton.yaml",
		"lemegeton.yml",
		"configs/config.yaml",
		"configs/lemegeton.yaml",
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// LoadPersonaCatalog reads a YAML persona catalog file into a registry.
// When path is empty the built-in catalog is used.
func LoadPersonaCatalog(path string) (*Registry, error) {
	if path == "" {
		return BuiltinRegistry()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading persona catalog: %w", err)
	}

	var doc struct {
		Personas []Persona `yaml:"personas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing persona catalog: %w", err)
	}

	return NewRegistry(doc.Personas)
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} references.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, def := groups[1], groups[2]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return def
	})
}

// resolveSecrets fills empty credentials from the environment and the OS
// keyring. Environment wins over keyring.
func resolveSecrets(cfg *Config) {
	if cfg.API.APIKey == "" {
		cfg.API.APIKey = os.Getenv("LEMEGETON_API_KEY")
	}
	if cfg.API.APIKey == "" {
		if key, err := GetAPIKey(); err == nil {
			cfg.API.APIKey = key
		}
	}
	if cfg.Discord.Token == "" {
		cfg.Discord.Token = os.Getenv("LEMEGETON_DISCORD_TOKEN")
	}
}

// sanitizeSecret returns an env reference for a non-empty secret so the
// saved config never contains the literal value.
func sanitizeSecret(value, envVar string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return "${" + envVar + "}"
}
