package app

import (
	"context"
	"fmt"
	"time"

	"github.com/netscope/netscope/internal/aggregate"
	"github.com/netscope/netscope/internal/config"
	"github.com/netscope/netscope/internal/engine"
	"github.com/netscope/netscope/internal/logging"
	"github.com/netscope/netscope/internal/master"
	"github.com/netscope/netscope/internal/metrics"
	"github.com/netscope/netscope/internal/prefs"
	"github.com/netscope/netscope/internal/push"
	"github.com/netscope/netscope/internal/ui"
)

// Options configure the netscope application. Non-zero values override the
// config file.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/netscope/prefs.toml
	PollEvery  int    // seconds; zero uses the configured interval
	APIBind    string
	Headless   bool
}

// Run boots the sync engine and either the TUI or the headless reporter,
// returning when the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIBind != "" {
		cfg.APIBind = opts.APIBind
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	// The TUI owns the terminal, so it only logs to the file.
	logCfg := logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, FilePath: cfg.LogFile}
	if opts.Headless {
		logCfg = logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel, Stderr: true}
	}
	logger := logging.Init(logCfg)
	defer logging.Shutdown()

	client, err := master.NewClient(cfg.APIBind, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init master client: %w", err)
	}
	collector, err := aggregate.New(client, cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("init aggregator: %w", err)
	}

	eng, err := engine.New(engine.Options{
		Collector: collector,
		PushURL:   client.PushURL(),
		Push: push.Options{
			BaseDelay: cfg.ReconnectBase,
			MaxDelay:  cfg.ReconnectMax,
		},
		PollInterval: cfg.PollInterval,
		Coalesce:     cfg.CoalesceWindow,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("init engine: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	defer eng.Close()

	go func() {
		if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
			logger.Error().Err(err).Str("addr", cfg.MetricsAddr).Msg("Metrics listener stopped")
		}
	}()

	logger.Info().
		Str("master", client.BaseURL()).
		Str("push", client.PushURL()).
		Dur("poll_interval", cfg.PollInterval).
		Bool("headless", opts.Headless).
		Msg("netscope started")

	if opts.Headless {
		Report(ctx, eng, logger)
		return nil
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	return ui.Run(ctx, ui.Options{
		Source:    eng,
		ThemeName: userPrefs.Theme,
		Tab:       userPrefs.Tab,
		PrefsPath: opts.PrefsPath,
		LogPath:   cfg.LogFile,
		Logger:    logger,
	})
}
