package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything netscope reads from its config file.
type Config struct {
	APIBind        string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	CoalesceWindow time.Duration
	ReconnectBase  time.Duration
	ReconnectMax   time.Duration
	LogLevel       string
	LogFormat      string
	LogFile        string
	MetricsAddr    string
}

const (
	defaultConfigPath     = "~/.config/netscope/config.toml"
	defaultLogFile        = "~/.local/state/netscope/netscope.log"
	defaultAPIBind        = "localhost:8000"
	defaultPollInterval   = 5 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultCoalesceWindow = 100 * time.Millisecond
	defaultReconnectBase  = time.Second
	defaultReconnectMax   = 30 * time.Second
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIBind:        defaultAPIBind,
		PollInterval:   defaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
		CoalesceWindow: defaultCoalesceWindow,
		ReconnectBase:  defaultReconnectBase,
		ReconnectMax:   defaultReconnectMax,
		LogLevel:       defaultLogLevel,
		LogFormat:      defaultLogFormat,
		LogFile:        mustExpand(defaultLogFile),
	}
}

type rawConfig struct {
	APIBind        string `toml:"api_bind"`
	PollInterval   string `toml:"poll_interval"`
	RequestTimeout string `toml:"request_timeout"`
	CoalesceWindow string `toml:"coalesce_window"`
	ReconnectBase  string `toml:"reconnect_base"`
	ReconnectMax   string `toml:"reconnect_max"`
	LogLevel       string `toml:"log_level"`
	LogFormat      string `toml:"log_format"`
	LogFile        string `toml:"log_file"`
	MetricsAddr    string `toml:"metrics_addr"`
}

// Load locates and parses the netscope config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIBind = orDefault(raw.APIBind, defaultAPIBind)
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.LogFormat = strings.ToLower(orDefault(raw.LogFormat, defaultLogFormat))
	cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	if file := strings.TrimSpace(raw.LogFile); file != "" {
		cfg.LogFile = mustExpand(file)
	}

	durations := []struct {
		key   string
		value string
		dest  *time.Duration
		def   time.Duration
		zero  bool // zero is meaningful (disables the feature)
	}{
		{"poll_interval", raw.PollInterval, &cfg.PollInterval, defaultPollInterval, false},
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout, defaultRequestTimeout, false},
		{"coalesce_window", raw.CoalesceWindow, &cfg.CoalesceWindow, defaultCoalesceWindow, true},
		{"reconnect_base", raw.ReconnectBase, &cfg.ReconnectBase, defaultReconnectBase, false},
		{"reconnect_max", raw.ReconnectMax, &cfg.ReconnectMax, defaultReconnectMax, false},
	}
	for _, d := range durations {
		value, err := parseDuration(d.key, d.value, d.def, d.zero)
		if err != nil {
			return Config{}, err
		}
		*d.dest = value
	}
	if cfg.ReconnectMax < cfg.ReconnectBase {
		return Config{}, fmt.Errorf("parse config: reconnect_max %s is below reconnect_base %s", cfg.ReconnectMax, cfg.ReconnectBase)
	}

	return cfg, nil
}

func parseDuration(key, value string, def time.Duration, allowZero bool) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return def, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("parse config: %s must be positive, got %q", key, trimmed)
	}
	return d, nil
}

func orDefault(value, def string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return def
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
