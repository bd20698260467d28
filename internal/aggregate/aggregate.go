// Package aggregate combines the master's six independent reads into one
// consistent state.Snapshot.
//
// Collect is all-or-nothing: the reads run in parallel and the first failure
// cancels the rest and fails the whole aggregation. A caller that keeps its
// previous snapshot on error therefore never shows connections from one
// moment next to containers from another.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/netscope/netscope/internal/master"
	"github.com/netscope/netscope/internal/state"
)

// DefaultTimeout bounds one aggregation when none is configured.
const DefaultTimeout = 10 * time.Second

// Aggregator fans a refresh out to every master endpoint.
type Aggregator struct {
	fetcher master.Fetcher
	timeout time.Duration
	now     func() time.Time
}

// New returns an Aggregator reading from fetcher. A zero timeout uses
// DefaultTimeout.
func New(fetcher master.Fetcher, timeout time.Duration) (*Aggregator, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("aggregate requires a fetcher")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{fetcher: fetcher, timeout: timeout, now: time.Now}, nil
}

// Collect performs one aggregation. On error the returned snapshot is the
// zero value and must not be applied.
func (a *Aggregator) Collect(ctx context.Context) (state.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		topology    master.Topology
		connections []master.Connection
		containers  []master.Container
		ports       []master.Port
		anomalies   []master.Anomaly
		stats       master.Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		topology, err = a.fetcher.FetchTopology(gctx)
		return err
	})
	g.Go(func() (err error) {
		connections, err = a.fetcher.FetchConnections(gctx)
		return err
	})
	g.Go(func() (err error) {
		containers, err = a.fetcher.FetchContainers(gctx)
		return err
	})
	g.Go(func() (err error) {
		ports, err = a.fetcher.FetchPorts(gctx)
		return err
	})
	g.Go(func() (err error) {
		anomalies, err = a.fetcher.FetchAnomalies(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats, err = a.fetcher.FetchStats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return state.Snapshot{}, fmt.Errorf("aggregate snapshot: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return state.Snapshot{}, fmt.Errorf("aggregate snapshot: %w", err)
	}

	snap := state.Snapshot{
		Topology:    topology,
		Connections: connections,
		Containers:  containers,
		Ports:       ports,
		Anomalies:   anomalies,
		Stats:       stats,
		FetchedAt:   a.now(),
	}
	return snap.Normalize(), nil
}
