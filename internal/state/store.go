package state

import (
	"fmt"
	"sync"
	"time"
)

// Connectivity reports whether the push channel is currently open.
type Connectivity int

const (
	Disconnected Connectivity = iota
	Connected
)

func (c Connectivity) String() string {
	if c == Connected {
		return "connected"
	}
	return "disconnected"
}

// staleAfter is the number of consecutive failed aggregations after which
// the snapshot is reported stale.
const staleAfter = 2

// Status summarizes aggregation health alongside the snapshot.
type Status struct {
	LastError           error
	LastAttempt         time.Time
	LastSuccess         time.Time
	ConsecutiveFailures int
	AppliedSequence     uint64
	Discarded           int // completions dropped as older than the applied one
}

// IsStale returns true when recent aggregations have kept failing.
func (s Status) IsStale() bool {
	return s.ConsecutiveFailures >= staleAfter
}

// StaleSince returns when the displayed snapshot was last refreshed
// successfully, or zero when it is not stale.
func (s Status) StaleSince() time.Time {
	if !s.IsStale() {
		return time.Time{}
	}
	return s.LastSuccess
}

// Store owns the current Snapshot and Connectivity. All access is
// serialized; readers only ever receive copies. The zero value holds the
// empty initial snapshot and is ready to use.
type Store struct {
	mu           sync.RWMutex
	snapshot     Snapshot
	status       Status
	connectivity Connectivity
	sealed       bool
	subscribers  map[int]chan struct{}
	nextSubID    int

	// failedSequence is the newest sequence recorded by Fail.
	failedSequence uint64
}

// Apply replaces the snapshot with snap when seq is newer than the applied
// sequence and the store is not sealed. It reports whether snap was applied.
func (s *Store) Apply(seq uint64, snap Snapshot) bool {
	s.mu.Lock()
	if s.sealed {
		s.mu.Unlock()
		return false
	}
	if seq <= s.status.AppliedSequence {
		s.status.Discarded++
		s.mu.Unlock()
		return false
	}

	snap = snap.Normalize().Clone()
	snap.Sequence = seq
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	s.snapshot = snap
	s.status.AppliedSequence = seq
	s.status.LastAttempt = time.Now()
	s.status.LastSuccess = snap.FetchedAt
	// A newer aggregation that already failed still counts.
	if seq > s.failedSequence {
		s.status.LastError = nil
		s.status.ConsecutiveFailures = 0
	}
	s.mu.Unlock()

	s.notify()
	return true
}

// Fail records a failed aggregation. The previous snapshot is kept. Failures
// from aggregations older than the applied snapshot are ignored.
func (s *Store) Fail(seq uint64, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.sealed || seq <= s.status.AppliedSequence {
		s.mu.Unlock()
		return
	}
	s.status.LastError = err
	s.status.LastAttempt = time.Now()
	s.status.ConsecutiveFailures++
	if seq > s.failedSequence {
		s.failedSequence = seq
	}
	s.mu.Unlock()

	s.notify()
}

// SetConnectivity records a push channel transition.
func (s *Store) SetConnectivity(c Connectivity) {
	s.mu.Lock()
	if s.sealed || s.connectivity == c {
		s.mu.Unlock()
		return
	}
	s.connectivity = c
	s.mu.Unlock()

	s.notify()
}

// Connectivity returns the current push channel state.
func (s *Store) Connectivity() Connectivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectivity
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Status returns a copy of the aggregation status.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.status
	if s.status.LastError != nil {
		st.LastError = fmt.Errorf("%w", s.status.LastError)
	}
	return st
}

// Subscribe returns a channel that receives a value whenever the snapshot,
// status or connectivity changes. Notifications coalesce: a slow reader sees
// at least one pending value, never a backlog. The returned func unsubscribes.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan struct{}, 1)
	if s.sealed {
		close(ch)
		return ch, func() {}
	}
	if s.subscribers == nil {
		s.subscribers = make(map[int]chan struct{})
	}
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

// Seal stops all further mutation, marks the channel disconnected and closes
// every subscription. It is safe to call more than once.
func (s *Store) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return
	}
	s.sealed = true
	s.connectivity = Disconnected
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// Sealed reports whether Seal has been called.
func (s *Store) Sealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sealed
}

func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
