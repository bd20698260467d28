package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/netscope/netscope/internal/metrics"
	"github.com/netscope/netscope/internal/push"
	"github.com/netscope/netscope/internal/state"
)

// DefaultCoalesce is the window used by config when none is set.
const DefaultCoalesce = 100 * time.Millisecond

// Refresh signal sources.
const (
	SourcePush   = "push"
	SourcePoll   = "poll"
	SourceManual = "manual"
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("engine closed")

// Collector produces one complete snapshot. *aggregate.Aggregator satisfies
// it.
type Collector interface {
	Collect(ctx context.Context) (state.Snapshot, error)
}

// Options configure an Engine.
type Options struct {
	Collector Collector

	// PushURL is the master's WebSocket endpoint. Empty runs poll-only.
	PushURL string
	Push    push.Options

	PollInterval time.Duration // zero uses DefaultPollInterval

	// Coalesce merges refresh signals arriving within the window into a
	// single aggregation. Zero starts one aggregation per signal.
	Coalesce time.Duration

	Logger zerolog.Logger
}

// Engine owns the current snapshot and connectivity state and keeps them
// fresh from two independent signal sources: the push channel and the
// poller. Consumers read copies and subscribe for change notifications.
type Engine struct {
	collector Collector
	store     *state.Store
	logger    zerolog.Logger
	opts      Options
	channel   *push.Channel

	seq      atomic.Uint64
	inflight sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	poller  *Poller
	pending *time.Timer
	merged  int
}

// New builds an engine. Nothing runs until Start.
func New(opts Options) (*Engine, error) {
	if opts.Collector == nil {
		return nil, fmt.Errorf("engine requires a collector")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Coalesce < 0 {
		opts.Coalesce = 0
	}

	e := &Engine{
		collector: opts.Collector,
		store:     &state.Store{},
		logger:    opts.Logger.With().Str("component", "engine").Logger(),
		opts:      opts,
	}
	if opts.PushURL != "" {
		e.channel = push.New(opts.PushURL, channelListener{e}, opts.Push, opts.Logger)
	}
	return e, nil
}

// Start opens the push channel and starts the poller. The engine tears
// itself down when ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.started {
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.ctx, e.cancel = context.WithCancel(ctx)

	if e.channel != nil {
		if err := e.channel.Start(e.ctx); err != nil {
			return fmt.Errorf("start push channel: %w", err)
		}
	}
	e.poller = StartPoller(e.ctx, e.opts.PollInterval, func() {
		e.signal(SourcePoll, "tick")
	})
	context.AfterFunc(ctx, e.Close)

	e.logger.Info().
		Str("push_url", e.opts.PushURL).
		Dur("poll_interval", e.opts.PollInterval).
		Dur("coalesce", e.opts.Coalesce).
		Msg("Sync engine started")
	return nil
}

// Close tears the engine down: later aggregation results are dropped, the
// push channel and poller stop, connectivity reads disconnected and every
// subscription channel is closed. In-flight reads are cancelled but not
// waited for. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.pending != nil {
		e.pending.Stop()
		e.pending = nil
	}
	cancel, poller, started := e.cancel, e.poller, e.started
	e.mu.Unlock()

	e.store.Seal()
	if cancel != nil {
		cancel()
	}
	// Both wait for their goroutines, which may be blocked on e.mu.
	if e.channel != nil {
		e.channel.Close()
	}
	poller.Stop()

	if started {
		e.logger.Info().Msg("Sync engine stopped")
	}
}

// Refresh requests an aggregation outside the normal cadence.
func (e *Engine) Refresh(reason string) {
	e.signal(SourceManual, reason)
}

// Snapshot returns a copy of the current snapshot.
func (e *Engine) Snapshot() state.Snapshot { return e.store.Snapshot() }

// Connectivity returns the push channel state.
func (e *Engine) Connectivity() state.Connectivity { return e.store.Connectivity() }

// Status returns aggregation health.
func (e *Engine) Status() state.Status { return e.store.Status() }

// Subscribe registers for change notifications. See state.Store.Subscribe.
func (e *Engine) Subscribe() (<-chan struct{}, func()) { return e.store.Subscribe() }

func (e *Engine) signal(source, reason string) {
	metrics.RefreshSignalsTotal.WithLabelValues(source).Inc()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || !e.started {
		return
	}
	if e.opts.Coalesce <= 0 {
		e.launchLocked(source, reason)
		return
	}
	if e.pending != nil {
		e.merged++
		return
	}
	e.pending = time.AfterFunc(e.opts.Coalesce, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		e.pending = nil
		if e.merged > 0 {
			e.logger.Debug().Int("merged", e.merged).Msg("Coalesced refresh signals")
		}
		e.merged = 0
		e.launchLocked(source, reason)
	})
}

// launchLocked starts one aggregation. The sequence number is taken here so
// that the most recently started aggregation wins regardless of completion
// order.
func (e *Engine) launchLocked(source, reason string) {
	seq := e.seq.Add(1)
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		e.aggregate(e.ctx, seq, source, reason)
	}()
}

func (e *Engine) aggregate(ctx context.Context, seq uint64, source, reason string) {
	log := e.logger.With().Uint64("seq", seq).Str("source", source).Str("reason", reason).Logger()
	start := time.Now()

	snap, err := e.collector.Collect(ctx)
	metrics.AggregationDurationSeconds.Observe(time.Since(start).Seconds())

	if err != nil {
		if e.store.Sealed() {
			metrics.AggregationsTotal.WithLabelValues(metrics.OutcomeDropped).Inc()
			return
		}
		metrics.AggregationsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		e.store.Fail(seq, err)
		log.Warn().Err(err).Msg("Aggregation failed, keeping previous snapshot")
		return
	}

	if e.store.Apply(seq, snap) {
		metrics.AggregationsTotal.WithLabelValues(metrics.OutcomeApplied).Inc()
		log.Debug().Dur("took", time.Since(start)).Msg("Snapshot applied")
		return
	}
	if e.store.Sealed() {
		metrics.AggregationsTotal.WithLabelValues(metrics.OutcomeDropped).Inc()
		log.Debug().Msg("Dropping aggregation completed after teardown")
		return
	}
	metrics.AggregationsTotal.WithLabelValues(metrics.OutcomeDiscarded).Inc()
	log.Debug().Uint64("applied", e.store.Status().AppliedSequence).Msg("Discarding out-of-order aggregation")
}

// wait blocks until every started aggregation has returned.
func (e *Engine) wait() { e.inflight.Wait() }

// channelListener adapts push callbacks onto the engine without exporting
// them on Engine itself.
type channelListener struct{ e *Engine }

func (l channelListener) Connected() {
	l.e.store.SetConnectivity(state.Connected)
}

func (l channelListener) Disconnected(err error) {
	l.e.store.SetConnectivity(state.Disconnected)
	l.e.logger.Info().Err(err).Msg("Push channel lost, relying on polling")
}

func (l channelListener) RefreshNeeded(reason string) {
	l.e.signal(SourcePush, reason)
}
