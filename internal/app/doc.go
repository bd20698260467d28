// Package app is the composition root for netscope.
//
// Run loads the config file, applies command line overrides, configures
// logging and builds the pipeline:
//
//	master.Client ──> aggregate.Aggregator ──> engine.Engine ──> ui.Model
//	     │                                        ▲                 or
//	     └── PushURL ──> push.Channel ────────────┘            Report (headless)
//
// The engine is started with Run's context and closed on return, so
// cancelling the context (SIGINT/SIGTERM in cmd/netscope) stops the push
// channel, the poller and the UI together.
//
// Errors returned from Run are startup errors only: a bad config file or an
// unusable master address. Once running, a failing master is reported in the
// dashboard header (or the headless log) and retried on the next signal.
//
// When metrics_addr is set, a Prometheus /metrics listener runs alongside.
package app
