// Package metrics exposes Prometheus instrumentation for the sync engine.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Aggregation outcomes: applied, discarded (older than applied), failed, dropped (after teardown)
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netscope_aggregations_total",
			Help: "Snapshot aggregations by outcome",
		},
		[]string{"outcome"},
	)

	AggregationDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netscope_aggregation_duration_seconds",
			Help:    "Wall time of one six-endpoint aggregation",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	RefreshSignalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netscope_refresh_signals_total",
			Help: "Refresh signals received by source",
		},
		[]string{"source"}, // push, poll, manual
	)

	PushConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "netscope_push_connected",
			Help: "1 while the push channel is open",
		},
	)

	PushReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netscope_push_reconnects_total",
			Help: "Push channel reconnect attempts scheduled after a failure or closure",
		},
	)

	PushMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netscope_push_messages_total",
			Help: "Push messages received by type handling",
		},
		[]string{"kind"}, // refresh, ignored, malformed
	)
)

// Outcome labels for AggregationsTotal.
const (
	OutcomeApplied   = "applied"
	OutcomeDiscarded = "discarded"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"
)

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr is a
// no-op.
func Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
