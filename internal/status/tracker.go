// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package status reduces the per-session stream of AgentUpdates into a
// coherent WorkflowState and exposes the read surface the UI layers query.
// One Tracker owns one session's state; it is mutated by exactly one driver
// at a time (the live stream manager or the scripted replay player) and read
// by any number of concurrent readers.
package status

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/festivo/festivo/internal/protocol"
)

// WorkflowStatus is the overall state of a planning run.
type WorkflowStatus string

const (
	StatusIdle       WorkflowStatus = "idle"
	StatusConnecting WorkflowStatus = "connecting"
	StatusRunning    WorkflowStatus = "running"
	StatusCompleted  WorkflowStatus = "completed"
	StatusError      WorkflowStatus = "error"
)

// Tracker accumulates WorkflowState for a single session.
//
// Apply is the reducer: it is called once per inbound update, in strict
// arrival order. Malformed updates are appended to the audit log and drive
// no transition - they never panic and never break the stream.
type Tracker struct {
	mu        sync.RWMutex
	updates   []protocol.AgentUpdate
	current   string
	completed map[string]struct{}
	errors    map[string]string
	connected bool
	status    WorkflowStatus
}

// NewTracker creates an empty tracker in the idle state.
func NewTracker() *Tracker {
	return &Tracker{
		completed: make(map[string]struct{}),
		errors:    make(map[string]string),
		status:    StatusIdle,
	}
}

// Apply reduces one inbound update into the workflow state.
func (t *Tracker) Apply(u protocol.AgentUpdate) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Append-only audit log: every update lands here, well-formed or not.
	t.updates = append(t.updates, u)

	if u.Kind != protocol.KindAgentUpdate || !u.WellFormed() {
		return
	}

	switch u.Status {
	case protocol.AgentRunning:
		if u.Agent != "" {
			// "Last seen running" - deliberately not cleared on completion.
			// The backend has always behaved this way and the UI copy
			// depends on it; see the pinning test before changing.
			t.current = u.Agent
		}
	case protocol.AgentCompleted:
		t.completed[u.Agent] = struct{}{}
		if u.Agent == protocol.PlannerAgent {
			t.status = StatusCompleted
		}
	case protocol.AgentError:
		t.errors[u.Agent] = u.Error
		t.status = StatusError
	}
}

// MarkConnecting records that a transport connect attempt is in flight.
// Terminal and errored workflows keep their status.
func (t *Tracker) MarkConnecting() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusCompleted && t.status != StatusError {
		t.status = StatusConnecting
	}
}

// MarkOpen records that the transport is open.
func (t *Tracker) MarkOpen() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	if t.status != StatusCompleted && t.status != StatusError {
		t.status = StatusRunning
	}
}

// MarkClosed records that the transport closed. Workflow status is not
// touched: a clean close mid-run still shows the last known progress.
func (t *Tracker) MarkClosed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
}

// MarkTransportError records a transport failure. Sticky like agent errors.
func (t *Tracker) MarkTransportError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	t.status = StatusError
}

// MarkRunning forces the running status. Used by the replay player, which
// has no transport to open.
func (t *Tracker) MarkRunning() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusRunning
}

// Reset discards all accumulated state and returns the tracker to idle.
// Called when the session identifier changes or a demo scenario restarts.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updates = nil
	t.current = ""
	t.completed = make(map[string]struct{})
	t.errors = make(map[string]string)
	t.connected = false
	t.status = StatusIdle
}

// --- read surface (facade) ---

// Status returns the overall workflow status.
func (t *Tracker) Status() WorkflowStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Connected reports whether the transport is currently open.
func (t *Tracker) Connected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

// CurrentAgent returns the most recent agent seen transitioning to running.
// The second return is false when no agent has run yet.
func (t *Tracker) CurrentAgent() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current, t.current != ""
}

// CompletedAgents returns the set of agents that have completed at least
// once, sorted for deterministic output.
func (t *Tracker) CompletedAgents() []string {
	t.mu.RLock()
	agents := lo.Keys(t.completed)
	t.mu.RUnlock()
	sort.Strings(agents)
	return agents
}

// HasCompleted reports whether the given agent has completed.
func (t *Tracker) HasCompleted(agent string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.completed[agent]
	return ok
}

// ErrorFor returns the latest error reported by the given agent.
func (t *Tracker) ErrorFor(agent string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	msg, ok := t.errors[agent]
	return msg, ok
}

// ResultFor returns the result payload from the agent's most recent
// completion. If the agent completed more than once the later result wins.
func (t *Tracker) ResultFor(agent string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	u, _, ok := lo.FindLastIndexOf(t.updates, func(u protocol.AgentUpdate) bool {
		return u.Kind == protocol.KindAgentUpdate &&
			u.Status == protocol.AgentCompleted &&
			u.Agent == agent
	})
	if !ok {
		return nil, false
	}
	return u.Result, true
}

// Updates returns a copy of the append-only audit log.
func (t *Tracker) Updates() []protocol.AgentUpdate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]protocol.AgentUpdate, len(t.updates))
	copy(out, t.updates)
	return out
}

// UpdateCount returns the length of the audit log.
func (t *Tracker) UpdateCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.updates)
}
