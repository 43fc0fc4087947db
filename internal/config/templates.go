package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# zerodha-roast gateway configuration

[server]
# Listen address
addr = ":8080"
read_timeout = "15s"
write_timeout = "30s"
shutdown_timeout = "10s"
# Allowed CORS origin; empty reflects the caller's origin
cors_origin = ""
# Serve prometheus metrics on /metrics
metrics_enabled = true

[kite]
# Kite Connect API root
base_url = "https://api.kite.trade"
# Per-call timeout
timeout = "10s"
# Exchange used when a request names none
default_exchange = "NSE"

[instruments]
# Reject catalog rows whose field count differs from the header
strict = false
# Maximum search results
search_limit = 20
# Minimum search query length
min_query = 2

[security]
# Block order placement
read_only_mode = false
# Record session exchanges and orders
audit_enabled = true
# audit_dir = "~/.config/zerodha-roast/audit"

[log]
# debug, info, warn, error
level = "info"
console = true
file = false
# file_path = "~/.config/zerodha-roast/logs/gateway.log"
`

// WriteTemplate writes config.toml into configDir unless it already exists.
// It returns the file path.
func WriteTemplate(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}
	return path, nil
}
