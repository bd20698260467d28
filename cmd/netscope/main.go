package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/netscope/netscope/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	pollSeconds := flag.Int("poll", 0, "poll interval in seconds (optional, defaults to the config value)")
	apiBind := flag.String("api", "", "master address, host:port or URL (optional)")
	headless := flag.Bool("headless", false, "run without the dashboard and log snapshot summaries to stderr")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		APIBind:    *apiBind,
		Headless:   *headless,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "netscope: %v\n", err)
		return 1
	}
	return 0
}
