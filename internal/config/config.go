// Package config provides configuration management for the board tracker.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"board-tracker/internal/errors"
	"board-tracker/internal/logging"
	"board-tracker/internal/market"
	"board-tracker/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Agent         AgentConfig        `mapstructure:"agent"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Security      SecurityConfig     `mapstructure:"security"`
	UI            UIConfig           `mapstructure:"ui"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Paper         PaperConfig        `mapstructure:"paper"`
	Credentials   Credentials        `mapstructure:"-" json:"-"` // Loaded separately
}

// AgentConfig describes how the operator reaches the tracking agent.
type AgentConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"` // requests per second
	Burst     int           `mapstructure:"burst"`
	Retries   int           `mapstructure:"retries"`

	// Consecutive transport failures before calls short-circuit, 0 disables
	BreakerThreshold int           `mapstructure:"breaker_threshold"`
	BreakerCooldown  time.Duration `mapstructure:"breaker_cooldown"`
}

// ServerConfig holds the settings of the local agent server.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr"`
	DBPath      string   `mapstructure:"db_path"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	ReadOnlyMode    bool `mapstructure:"read_only_mode"`
	MaskCredentials bool `mapstructure:"mask_credentials"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	TimeFormat   string `mapstructure:"time_format"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Level   string        `mapstructure:"level"` // all, errors_only
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// PaperConfig seeds the local agent's market.
type PaperConfig struct {
	Instruments []PaperInstrument `mapstructure:"instruments"`
}

// PaperInstrument is one listed symbol of the paper market.
type PaperInstrument struct {
	Exchange  string  `mapstructure:"exchange"`
	Symbol    string  `mapstructure:"symbol"`
	LTP       float64 `mapstructure:"ltp"`
	Volume24h float64 `mapstructure:"volume24h"`
	PriceTick float64 `mapstructure:"price_tick"`
	SizeTick  float64 `mapstructure:"size_tick"`
	SizeMin   float64 `mapstructure:"size_min"`
	BestAsk   float64 `mapstructure:"best_ask"`
	BestBid   float64 `mapstructure:"best_bid"`
}

// Credentials holds exchange API credentials.
type Credentials struct {
	Bybit    ExchangeCredentials `mapstructure:"bybit"`
	Bitbank  ExchangeCredentials `mapstructure:"bitbank"`
	Bitflyer ExchangeCredentials `mapstructure:"bitflyer"`
}

// ExchangeCredentials holds one exchange's API credentials.
type ExchangeCredentials struct {
	APIKey     string `mapstructure:"api_key"`
	APISecret  string `mapstructure:"api_secret"`
	Passphrase string `mapstructure:"passphrase"`
}

// For returns the credentials of an exchange.
func (c Credentials) For(name models.ExchangeName) ExchangeCredentials {
	switch name {
	case models.Bybit:
		return c.Bybit
	case models.Bitbank:
		return c.Bitbank
	case models.Bitflyer:
		return c.Bitflyer
	default:
		return ExchangeCredentials{}
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/board-tracker"
	}
	return filepath.Join(home, ".config", "board-tracker")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	loadDotEnv(configDir)

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := loadCredentials(configDir, &cfg.Credentials); err != nil {
		return nil, fmt.Errorf("loading credentials.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv reads .env from the working directory and the config directory.
// Variables already set in the environment win.
func loadDotEnv(configDir string) {
	for _, path := range []string{".env", filepath.Join(configDir, ".env")} {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
		}
	}
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("agent.url", "http://127.0.0.1:8765")
	v.SetDefault("agent.timeout", "10s")
	v.SetDefault("agent.rate_limit", 5.0)
	v.SetDefault("agent.burst", 5)
	v.SetDefault("agent.retries", 2)
	v.SetDefault("agent.breaker_threshold", 5)
	v.SetDefault("agent.breaker_cooldown", "30s")

	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("server.db_path", filepath.Join(configDir, "tracker.db"))
	v.SetDefault("server.cors_origins", []string{"http://localhost:1420"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "tracker.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("security.read_only_mode", false)
	v.SetDefault("security.mask_credentials", true)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.time_format", "15:04:05")

	v.SetDefault("notifications.level", "all")
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		// Config file not found: write the template and read it back so the
		// first run sees the same settings as every later one.
		if err := createTemplateConfig(configDir); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func loadCredentials(configDir string, creds *Credentials) error {
	v := viper.New()
	v.SetConfigName("credentials")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createTemplateCredentials(configDir)
		}
		return err
	}

	return v.Unmarshal(creds)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRACKER_AGENT_URL"); v != "" {
		cfg.Agent.URL = v
	}
	if v := os.Getenv("TRACKER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRACKER_READ_ONLY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Security.ReadOnlyMode = b
		}
	}

	// Exchange credentials
	if v := os.Getenv("BYBIT_API_KEY"); v != "" {
		cfg.Credentials.Bybit.APIKey = v
	}
	if v := os.Getenv("BYBIT_API_SECRET"); v != "" {
		cfg.Credentials.Bybit.APISecret = v
	}
	if v := os.Getenv("BITBANK_API_KEY"); v != "" {
		cfg.Credentials.Bitbank.APIKey = v
	}
	if v := os.Getenv("BITBANK_API_SECRET"); v != "" {
		cfg.Credentials.Bitbank.APISecret = v
	}
	if v := os.Getenv("BITBANK_PASSPHRASE"); v != "" {
		cfg.Credentials.Bitbank.Passphrase = v
	}
	if v := os.Getenv("BITFLYER_API_KEY"); v != "" {
		cfg.Credentials.Bitflyer.APIKey = v
	}
	if v := os.Getenv("BITFLYER_API_SECRET"); v != "" {
		cfg.Credentials.Bitflyer.APISecret = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Agent.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Wrapf(errors.ErrConfigInvalid, "agent.url %q must be an http(s) URL", c.Agent.URL)
	}
	if c.Agent.Timeout <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "agent.timeout must be positive")
	}
	if c.Agent.RateLimit <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "agent.rate_limit must be positive")
	}
	if c.Agent.Burst < 1 {
		return errors.Wrap(errors.ErrConfigInvalid, "agent.burst must be at least 1")
	}
	if c.Agent.Retries < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "agent.retries must be non-negative")
	}
	if c.Agent.BreakerThreshold < 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "agent.breaker_threshold must be non-negative")
	}
	if c.Agent.BreakerThreshold > 0 && c.Agent.BreakerCooldown <= 0 {
		return errors.Wrap(errors.ErrConfigInvalid, "agent.breaker_cooldown must be positive")
	}

	if !logging.ValidLevel(c.Logging.Level) {
		return errors.Wrapf(errors.ErrConfigInvalid, "logging.level %q must be debug, info, warn or error", c.Logging.Level)
	}

	switch c.Notifications.Level {
	case "", "all", "errors_only":
	default:
		return errors.Wrapf(errors.ErrConfigInvalid, "notifications.level %q must be all or errors_only", c.Notifications.Level)
	}
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return errors.Wrap(errors.ErrConfigInvalid, "notifications.webhook.url is required when enabled")
	}

	for i, inst := range c.Paper.Instruments {
		if !models.ExchangeName(inst.Exchange).IsValid() {
			return errors.Wrapf(errors.ErrConfigInvalid, "paper.instruments[%d].exchange %q is not supported", i, inst.Exchange)
		}
		if inst.Symbol == "" {
			return errors.Wrapf(errors.ErrConfigInvalid, "paper.instruments[%d].symbol is required", i)
		}
	}

	return nil
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}

// Quotes converts the paper instruments into feed quotes.
func (p PaperConfig) Quotes() []market.Quote {
	quotes := make([]market.Quote, 0, len(p.Instruments))
	for _, inst := range p.Instruments {
		quotes = append(quotes, market.Quote{
			Exchange:  models.ExchangeName(inst.Exchange),
			Symbol:    inst.Symbol,
			LTP:       inst.LTP,
			Volume24h: inst.Volume24h,
			PriceTick: inst.PriceTick,
			SizeTick:  inst.SizeTick,
			SizeMin:   inst.SizeMin,
			BestAsk:   inst.BestAsk,
			BestBid:   inst.BestBid,
		})
	}
	return quotes
}
