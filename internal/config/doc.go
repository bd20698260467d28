// Package config loads netscope's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/netscope/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # TOML Format
//
//	api_bind        = "localhost:8000"   # master REST + push host
//	poll_interval   = "5s"               # fallback refresh cadence
//	request_timeout = "10s"              # bound on one six-endpoint aggregation
//	coalesce_window = "100ms"            # "0s" starts one aggregation per signal
//	reconnect_base  = "1s"               # push channel backoff
//	reconnect_max   = "30s"
//	log_level       = "info"             # debug, info, warn, error, disabled
//	log_format      = "console"          # console or json
//	log_file        = "~/.local/state/netscope/netscope.log"
//	metrics_addr    = ""                 # e.g. "127.0.0.1:9464"; empty disables
//
// Every key is optional. Durations use Go syntax. A malformed or negative
// duration is a parse error rather than a silent default, since a typo in
// poll_interval would otherwise go unnoticed.
//
// # Error Handling
//
// Missing config files are NOT an error. Load returns errors for path
// expansion failures, read errors other than os.ErrNotExist, TOML syntax
// errors and invalid durations.
package config
