package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Board Tracker Configuration

[agent]
# Base URL of the tracking agent
url = "http://127.0.0.1:8765"
# Timeout of one agent command
timeout = "10s"
# Requests per second sent to the agent
rate_limit = 5.0
burst = 5
# Retries of read-only commands
retries = 2
# Consecutive connection failures before calls fail fast (0 disables)
breaker_threshold = 5
breaker_cooldown = "30s"

[server]
# Listen address of "tracker agent serve"
addr = "127.0.0.1:8765"
# SQLite database keeping the accepted controller
# db_path = "~/.config/board-tracker/tracker.db"
cors_origins = ["http://localhost:1420"]

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
file = true
max_size = 100
max_backups = 7
max_age = 30

[security]
# Enable read-only mode (blocks start, stop, save, update and reset)
read_only_mode = false
# Mask API credentials in output
mask_credentials = true

[ui]
# Enable colored output
color_enabled = true
# Time format of log entries
time_format = "15:04:05"

[notifications]
# Notification level: all, errors_only
level = "all"

[notifications.webhook]
enabled = false
url = ""

# Paper market served by the local agent
[[paper.instruments]]
exchange = "bybit"
symbol = "BTCUSDT"
ltp = 64000.0
volume24h = 24000.0
price_tick = 0.1
size_tick = 0.001
size_min = 0.001
best_ask = 64000.5
best_bid = 63999.5
`

const credentialsTemplate = `# Board Tracker Credentials
# Keep this file private (chmod 600)

[bybit]
api_key = ""
api_secret = ""

[bitbank]
api_key = ""
api_secret = ""
passphrase = ""

[bitflyer]
api_key = ""
api_secret = ""
`

// ConfigFile returns the path of config.toml in configDir.
func ConfigFile(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	return nil
}
