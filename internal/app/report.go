package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/netscope/netscope/internal/state"
)

// Source is the part of the engine the headless reporter reads.
type Source interface {
	Snapshot() state.Snapshot
	Connectivity() state.Connectivity
	Status() state.Status
	Subscribe() (<-chan struct{}, func())
}

// Report logs one line per applied snapshot and per connectivity change
// until ctx is cancelled or the source stops notifying.
func Report(ctx context.Context, src Source, logger zerolog.Logger) {
	logger = logger.With().Str("component", "report").Logger()
	updates, unsubscribe := src.Subscribe()
	defer unsubscribe()

	var r reporter
	r.observe(src, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			r.observe(src, logger)
		}
	}
}

// reporter remembers what was last logged so repeated notifications for
// the same state stay quiet.
type reporter struct {
	seq          uint64
	failures     int
	connectivity state.Connectivity
	seen         bool
}

func (r *reporter) observe(src Source, logger zerolog.Logger) {
	conn := src.Connectivity()
	status := src.Status()

	if !r.seen || conn != r.connectivity {
		if r.seen || conn == state.Connected {
			logger.Info().Str("connectivity", conn.String()).Msg("Push channel changed")
		}
		r.connectivity = conn
	}

	if status.AppliedSequence > r.seq {
		snap := src.Snapshot()
		logger.Info().
			Uint64("seq", snap.Sequence).
			Int("nodes", len(snap.Topology.Nodes)).
			Int("edges", len(snap.Topology.Edges)).
			Int("connections", len(snap.Connections)).
			Int("containers", len(snap.Containers)).
			Int("ports", len(snap.Ports)).
			Int("anomalies", len(snap.Anomalies)).
			Float64("bytes_in_per_sec", snap.Stats.BytesInPerSec).
			Float64("bytes_out_per_sec", snap.Stats.BytesOutPerSec).
			Int("discarded", status.Discarded).
			Msg("Snapshot applied")
		r.seq = status.AppliedSequence
	}

	if status.ConsecutiveFailures != r.failures {
		if status.ConsecutiveFailures > 0 {
			ev := logger.Warn()
			if status.IsStale() {
				ev = logger.Error().Time("stale_since", status.StaleSince())
			}
			ev.Err(status.LastError).
				Int("consecutive_failures", status.ConsecutiveFailures).
				Msg("Snapshot not refreshed")
		}
		r.failures = status.ConsecutiveFailures
	}
	r.seen = true
}
