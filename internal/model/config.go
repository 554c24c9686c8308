package model

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	// Bind is the listen address, e.g. "127.0.0.1:5000".
	Bind string `mapstructure:"bind" yaml:"bind"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// GmailConfig holds OAuth credentials for the monitored mailbox.
type GmailConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token" yaml:"refresh_token"`

	// Account is the monitored mailbox address; replies are searched
	// with a to:<account> query.
	Account string `mapstructure:"account" yaml:"account"`

	// TopicName is the Pub/Sub topic used for push notifications
	// (projects/<project>/topics/<topic>). Empty disables watch setup.
	TopicName string `mapstructure:"topic_name" yaml:"topic_name"`
}

// SMTPConfig holds outbound mail settings for task assignment emails.
type SMTPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`

	// TLS selects implicit TLS; false uses STARTTLS.
	TLS bool `mapstructure:"tls" yaml:"tls"`
}

// PollingConfig holds the reply polling schedule.
type PollingConfig struct {
	IntervalMinutes int  `mapstructure:"interval_minutes" yaml:"interval_minutes"`
	WindowHours     int  `mapstructure:"window_hours" yaml:"window_hours"`
	AutoStart       bool `mapstructure:"auto_start" yaml:"auto_start"`
}

// AIConfig holds settings for the action-item extraction model.
type AIConfig struct {
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// AppConfig is the top-level daemon configuration.
type AppConfig struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Gmail    GmailConfig    `mapstructure:"gmail" yaml:"gmail"`
	SMTP     SMTPConfig     `mapstructure:"smtp" yaml:"smtp"`
	Polling  PollingConfig  `mapstructure:"polling" yaml:"polling"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Server:   ServerConfig{Bind: "127.0.0.1:5000"},
		Database: DatabaseConfig{Path: "meeting-assistant.db"},
		SMTP:     SMTPConfig{Host: "smtp.gmail.com", Port: "587"},
		Polling:  PollingConfig{IntervalMinutes: 2, WindowHours: 24},
		AI:       AIConfig{Model: "gpt-4o-mini", MaxTokens: 2048},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper, then applies environment overrides for secrets. A missing file
// yields the default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("server.bind", "127.0.0.1:5000")
	v.SetDefault("database.path", "meeting-assistant.db")
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("polling.interval_minutes", 2)
	v.SetDefault("polling.window_hours", 24)
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.max_tokens", 2048)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			cfg := defaultAppConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := defaultAppConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment (typically a
// .env file) instead of living in the config file.
func applyEnvOverrides(cfg *AppConfig) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"GMAIL_CLIENT_ID", &cfg.Gmail.ClientID},
		{"GMAIL_CLIENT_SECRET", &cfg.Gmail.ClientSecret},
		{"GMAIL_REFRESH_TOKEN", &cfg.Gmail.RefreshToken},
		{"GMAIL_TOPIC_NAME", &cfg.Gmail.TopicName},
		{"EMAIL_USER", &cfg.Gmail.Account},
		{"SMTP_HOST", &cfg.SMTP.Host},
		{"SMTP_PORT", &cfg.SMTP.Port},
		{"SMTP_USER", &cfg.SMTP.Username},
		{"SMTP_PASS", &cfg.SMTP.Password},
		{"OPENAI_API_KEY", &cfg.AI.APIKey},
	}

	for _, o := range overrides {
		if val := os.Getenv(o.env); val != "" {
			*o.dst = val
		}
	}

	// The SMTP account usually is the monitored mailbox.
	if cfg.SMTP.Username == "" {
		cfg.SMTP.Username = cfg.Gmail.Account
	}
}
