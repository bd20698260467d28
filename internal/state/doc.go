// Package state holds the dashboard's single source of truth: the current
// Snapshot of the master and the push channel's Connectivity.
//
// # Overview
//
// Refresh signals from the push channel and the polling timer may start
// several aggregations whose results complete in any order. The Store is the
// point where those completions meet the UI:
//
//	Aggregations (engine):          Consumers (UI):
//	┌──────────────────────┐       ┌──────────────────────┐
//	│ seq := next()        │       │ <-Subscribe()        │
//	│ snap, err := Collect │       │ store.Snapshot()     │
//	│ store.Apply(seq,snap)│──────→│ store.Status()       │
//	│ store.Fail(seq, err) │(mutex)│ render               │
//	└──────────────────────┘       └──────────────────────┘
//
// # Update Semantics
//
// Apply(seq, snap) replaces the whole snapshot only when seq is greater than
// the sequence already applied. A slower aggregation that started earlier can
// therefore never overwrite a newer result; it is counted in
// Status.Discarded instead. Fail keeps the previous snapshot and bumps
// ConsecutiveFailures; two or more make Status.IsStale true and StaleSince
// reports when the displayed data was last fresh.
//
// Snapshots are never mutated field by field, so readers never observe a
// torn mix of old and new sources.
//
// # Defensive Copying
//
// Apply clones the incoming snapshot and Snapshot clones on the way out:
// slices, container labels, anomaly details and extra stats keys are all
// copied. Error values returned by Status are wrapped copies.
//
// # Subscriptions
//
// Subscribe hands out a buffered channel of one. Every change does a
// non-blocking send, so a reader that falls behind sees one pending
// notification rather than a backlog, and the writer never blocks.
//
// # Teardown
//
// Seal is the last call a Store receives. Afterwards Apply, Fail and
// SetConnectivity are no-ops, connectivity reads Disconnected and every
// subscription channel is closed. A late aggregation that completes after
// teardown is dropped here.
//
// The zero value is ready to use:
//
//	store := &state.Store{}
//	snap := store.Snapshot() // empty lists, never nil
package state
