// Package aura – config.go defines the bot configuration structures.
package aura

// Config holds all bot configuration.
type Config struct {
	// Name is the bot name shown in logs and status output.
	Name string `yaml:"name"`

	// Model is the LLM model to use (e.g. "gpt-4o-mini").
	Model string `yaml:"model"`

	// API configures the completion backend.
	API APIConfig `yaml:"api"`

	// Discord configures the Discord gateway.
	Discord DiscordConfig `yaml:"discord"`

	// Store configures persistence.
	Store StoreConfig `yaml:"store"`

	// Personas configures the persona catalog.
	Personas PersonasConfig `yaml:"personas"`

	// Audit configures the audit webhook.
	Audit AuditConfig `yaml:"audit"`

	// Janitor configures scheduled store maintenance.
	Janitor JanitorConfig `yaml:"janitor"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig configures the completion backend.
type APIConfig struct {
	// BaseURL is the OpenAI-compatible endpoint base.
	BaseURL string `yaml:"base_url"`

	// APIKey authorizes completion requests. Usually resolved from the
	// environment or the OS keyring rather than stored here.
	APIKey string `yaml:"api_key"`

	// TimeoutSeconds bounds each completion call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// DiscordConfig configures the Discord gateway.
type DiscordConfig struct {
	// Token is the Discord bot token.
	Token string `yaml:"token"`

	// AllowedGuilds restricts which guild IDs the bot responds in.
	// Empty means respond in all guilds.
	AllowedGuilds []string `yaml:"allowed_guilds"`

	// SendTyping sends "typing..." indicators while generating.
	SendTyping bool `yaml:"send_typing"`
}

// StoreConfig configures persistence.
type StoreConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path"`
}

// PersonasConfig configures the persona catalog.
type PersonasConfig struct {
	// File is an optional YAML catalog overriding the built-in personas.
	File string `yaml:"file"`
}

// AuditConfig configures the audit webhook.
type AuditConfig struct {
	// WebhookURL receives compact audit embeds. Empty disables auditing.
	WebhookURL string `yaml:"webhook_url"`
}

// JanitorConfig configures scheduled store maintenance.
type JanitorConfig struct {
	// Enabled turns the janitor on/off.
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression for the maintenance run.
	Schedule string `yaml:"schedule"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the log format ("json", "text").
	Format string `yaml:"format"`
}

// DefaultConfig returns the default bot configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:  "Lemegeton",
		Model: "gpt-4o-mini",
		API: APIConfig{
			BaseURL:        "https://api.openai.com/v1",
			TimeoutSeconds: 16,
		},
		Discord: DiscordConfig{
			SendTyping: true,
		},
		Store: StoreConfig{
			Path: "./data/lemegeton.db",
		},
		Janitor: JanitorConfig{
			Enabled:  true,
			Schedule: "@hourly",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
