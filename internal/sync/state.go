package sync

import (
	"log/slog"
	"sync"
	"time"
)

// Phase is the coarse lifecycle of a sync attempt. Every non-silent pull
// starts at checking and lands on exactly one of ok, error or offline;
// idle only exists before the first attempt.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseChecking Phase = "checking"
	PhaseSyncing  Phase = "syncing"
	PhaseOK       Phase = "ok"
	PhaseError    Phase = "error"
	PhaseOffline  Phase = "offline"
)

// InFlight reports whether a sync attempt is currently running. Callers use
// this to gate overlapping pull/publish invocations; the engine itself does
// not serialize them.
func (p Phase) InFlight() bool {
	return p == PhaseChecking || p == PhaseSyncing
}

// Terminal reports whether the phase ends an attempt
func (p Phase) Terminal() bool {
	return p == PhaseOK || p == PhaseError || p == PhaseOffline
}

// State is the externally observable condition of the engine. Synced/Total
// carry incremental progress during the syncing phase so callers can render
// progress without parsing Message.
type State struct {
	Phase      Phase
	Message    string
	StartedAt  *time.Time
	FinishedAt *time.Time
	Synced     int
	Total      int
}

// StateTracker holds the current sync state and fans out changes to
// subscribers. Each engine owns one instance; it is not a process-wide
// singleton so independent sync sessions can coexist in tests.
//
// Notification is synchronous and best-effort: observers see only the
// latest state, never a queued history, and a panicking observer never
// breaks the engine.
type StateTracker struct {
	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
}

// NewStateTracker returns a tracker in the idle phase
func NewStateTracker() *StateTracker {
	return &StateTracker{
		state: State{Phase: PhaseIdle},
		subs:  make(map[int]func(State)),
	}
}

// Get returns a copy of the current state
func (t *StateTracker) Get() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Subscribe registers an observer and returns its unsubscribe function
func (t *StateTracker) Subscribe(cb func(State)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.next
	t.next++
	t.subs[id] = cb

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

// begin resets the tracker for a new attempt
func (t *StateTracker) begin(now time.Time) {
	t.apply(func(s *State) {
		s.Phase = PhaseChecking
		s.Message = "checking server"
		s.StartedAt = &now
		s.FinishedAt = nil
		s.Synced = 0
		s.Total = 0
	})
}

// update moves to a non-terminal phase with a new message
func (t *StateTracker) update(phase Phase, message string) {
	t.apply(func(s *State) {
		s.Phase = phase
		s.Message = message
	})
}

// progress reports incremental pull progress within the syncing phase
func (t *StateTracker) progress(synced, total int) {
	t.apply(func(s *State) {
		s.Synced = synced
		s.Total = total
	})
}

// finish lands the attempt on a terminal phase
func (t *StateTracker) finish(phase Phase, message string, now time.Time) {
	t.apply(func(s *State) {
		s.Phase = phase
		s.Message = message
		s.FinishedAt = &now
	})
}

func (t *StateTracker) apply(mutate func(*State)) {
	t.mu.Lock()
	mutate(&t.state)
	state := t.state
	subs := make([]func(State), 0, len(t.subs))
	for _, cb := range t.subs {
		subs = append(subs, cb)
	}
	t.mu.Unlock()

	for _, cb := range subs {
		notify(cb, state)
	}
}

func notify(cb func(State), state State) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("sync state observer panicked", "panic", r)
		}
	}()
	cb(state)
}
