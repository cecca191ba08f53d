// Package config loads iotdash runtime settings.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/iotdash/config.toml
//  3. If the file doesn't exist, use built-in defaults
//  4. Keys missing from the file keep their defaults
//  5. IOTDASH_API_URL, when set, overrides api_url
//
// Files ending in .yaml or .yml are parsed as YAML; anything else is TOML.
//
// # Keys
//
//	api_url                 = "http://localhost:8000"
//	poll_seconds            = 30
//	request_timeout_seconds = 10
//	chart_window            = 6
//	device_limit            = 100
//	alert_limit             = 100
//	reading_limit           = 100
//	max_retries             = 2
//	log_level               = "info"
//	log_file                = "~/.local/state/iotdash/iotdash.log"
//
// Numeric keys other than max_retries must be positive; max_retries may be
// zero to disable retries. Invalid values are reported by Load rather than
// silently replaced.
//
// # Path Expansion
//
// Paths starting with ~ are expanded to the user's home directory and made
// absolute.
package config
