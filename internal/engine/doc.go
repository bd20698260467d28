// Package engine keeps the dashboard's snapshot fresh.
//
// # Overview
//
// An Engine owns a state.Store and feeds it from two independent refresh
// sources. The push channel (internal/push) announces new data on the
// master; the Poller fires once at startup and then every PollInterval no
// matter what the push channel is doing, so a silent network partition
// still ends in fresh data.
//
//	push.Channel ──RefreshNeeded──┐
//	                              ├─> signal ─> [coalesce] ─> aggregate(seq) ─> Store.Apply
//	Poller ───────────tick────────┘                                   │
//	                                                                  └─> subscribers
//
// # Ordering
//
// Signals are not deduplicated, so two aggregations can be in flight at
// once and complete in either order. Every aggregation takes the next
// sequence number when it starts and the store only applies a result newer
// than the one it holds. The snapshot therefore always reflects the most
// recently started aggregation that succeeded.
//
// A Coalesce window, when set, folds a burst of signals (for example a push
// announcement landing right next to a poll tick) into one aggregation.
//
// # Teardown
//
// Close seals the store before cancelling anything, so an aggregation that
// resolves late is dropped instead of applied. It then closes the push
// channel and stops the poller, waiting for both so no callback runs
// afterwards. Cancelling the context passed to Start has the same effect.
//
// # Failures
//
// Nothing here is fatal. A failed aggregation keeps the previous snapshot
// and is reported through Status; the next signal from either source
// retries.
package engine
