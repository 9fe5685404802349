// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package status

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festivo/festivo/internal/protocol"
)

func running(agent string) protocol.AgentUpdate {
	return protocol.AgentUpdate{Kind: protocol.KindAgentUpdate, Agent: agent, Status: protocol.AgentRunning}
}

func completed(agent string, result any) protocol.AgentUpdate {
	return protocol.AgentUpdate{Kind: protocol.KindAgentUpdate, Agent: agent, Status: protocol.AgentCompleted, Result: result}
}

func failed(agent, msg string) protocol.AgentUpdate {
	return protocol.AgentUpdate{Kind: protocol.KindAgentUpdate, Agent: agent, Status: protocol.AgentError, Error: msg}
}

func TestTracker_StartsIdle(t *testing.T) {
	tracker := NewTracker()
	assert.Equal(t, StatusIdle, tracker.Status())
	assert.False(t, tracker.Connected())
	assert.Empty(t, tracker.CompletedAgents())
	_, ok := tracker.CurrentAgent()
	assert.False(t, ok)
}

func TestTracker_AuditLogIsAppendOnly(t *testing.T) {
	tracker := NewTracker()

	const n = 25
	for i := 0; i < n; i++ {
		tracker.Apply(running(fmt.Sprintf("agent_%d", i)))
	}
	// Malformed updates land in the log too.
	tracker.Apply(protocol.AgentUpdate{Kind: protocol.KindAgentUpdate, Status: protocol.AgentCompleted})
	tracker.Apply(protocol.AgentUpdate{Kind: protocol.KindPong})

	assert.Equal(t, n+2, tracker.UpdateCount())
}

func TestTracker_CompletionIsIdempotent(t *testing.T) {
	tracker := NewTracker()

	tracker.Apply(completed(protocol.ThemeAgent, nil))
	once := tracker.CompletedAgents()

	tracker.Apply(completed(protocol.ThemeAgent, nil))
	twice := tracker.CompletedAgents()

	assert.Equal(t, once, twice)
	assert.Equal(t, []string{protocol.ThemeAgent}, twice)
	// Both land in the audit log regardless.
	assert.Equal(t, 2, tracker.UpdateCount())
}

func TestTracker_CompletedAgentsNeverShrink(t *testing.T) {
	tracker := NewTracker()

	tracker.Apply(completed(protocol.ThemeAgent, nil))
	tracker.Apply(completed(protocol.VenueAgent, nil))
	require.Len(t, tracker.CompletedAgents(), 2)

	tracker.Apply(failed(protocol.VenueAgent, "boom"))
	tracker.Apply(running(protocol.CateringAgent))

	assert.Len(t, tracker.CompletedAgents(), 2)
}

func TestTracker_ErrorIsSticky(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkOpen()
	require.Equal(t, StatusRunning, tracker.Status())

	tracker.Apply(failed(protocol.VenueAgent, "no venues available"))
	assert.Equal(t, StatusError, tracker.Status())

	// A non-terminal completion does not clear the error.
	tracker.Apply(completed(protocol.CateringAgent, nil))
	assert.Equal(t, StatusError, tracker.Status())

	// Neither does a reconnect cycle.
	tracker.MarkConnecting()
	tracker.MarkOpen()
	assert.Equal(t, StatusError, tracker.Status())

	msg, ok := tracker.ErrorFor(protocol.VenueAgent)
	require.True(t, ok)
	assert.Equal(t, "no venues available", msg)
}

func TestTracker_TerminalAgentCompletesWorkflow(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkOpen()

	tracker.Apply(completed(protocol.ThemeAgent, nil))
	assert.Equal(t, StatusRunning, tracker.Status())

	tracker.Apply(completed(protocol.PlannerAgent, map[string]any{"plan_id": "p1"}))
	assert.Equal(t, StatusCompleted, tracker.Status())
}

// The terminal agent speaks for the whole run: if it completes, the workflow
// is complete even when an earlier agent had errored.
func TestTracker_TerminalCompletionOverridesError(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkOpen()

	tracker.Apply(failed(protocol.VenueAgent, "no venues available"))
	require.Equal(t, StatusError, tracker.Status())

	tracker.Apply(completed(protocol.PlannerAgent, nil))
	assert.Equal(t, StatusCompleted, tracker.Status())

	// The per-agent error record is preserved for display.
	_, ok := tracker.ErrorFor(protocol.VenueAgent)
	assert.True(t, ok)
}

// The current agent deliberately survives its own completion: the UI shows
// the just-finished agent until the next one starts. This pins the observed
// backend behavior - do not "fix" without product sign-off.
func TestTracker_CurrentAgentSurvivesCompletion(t *testing.T) {
	tracker := NewTracker()

	tracker.Apply(running(protocol.ThemeAgent))
	tracker.Apply(completed(protocol.ThemeAgent, nil))

	agent, ok := tracker.CurrentAgent()
	require.True(t, ok)
	assert.Equal(t, protocol.ThemeAgent, agent)

	tracker.Apply(running(protocol.VenueAgent))
	agent, _ = tracker.CurrentAgent()
	assert.Equal(t, protocol.VenueAgent, agent)
}

func TestTracker_MalformedUpdatesAreLoggedAndIgnored(t *testing.T) {
	tracker := NewTracker()

	// completed without agent
	tracker.Apply(protocol.AgentUpdate{Kind: protocol.KindAgentUpdate, Status: protocol.AgentCompleted})
	// error without message
	tracker.Apply(protocol.AgentUpdate{Kind: protocol.KindAgentUpdate, Agent: protocol.VenueAgent, Status: protocol.AgentError})
	// connection chatter
	tracker.Apply(protocol.AgentUpdate{Kind: protocol.KindPong})
	tracker.Apply(protocol.AgentUpdate{Kind: protocol.KindStatusResponse, Message: "ok"})

	assert.Equal(t, 4, tracker.UpdateCount())
	assert.Empty(t, tracker.CompletedAgents())
	assert.Equal(t, StatusIdle, tracker.Status())
	_, ok := tracker.ErrorFor(protocol.VenueAgent)
	assert.False(t, ok)
}

func TestTracker_ResultForReturnsLatestCompletion(t *testing.T) {
	tracker := NewTracker()

	_, ok := tracker.ResultFor(protocol.ThemeAgent)
	assert.False(t, ok)

	tracker.Apply(completed(protocol.ThemeAgent, map[string]any{"theme": "disco"}))
	tracker.Apply(completed(protocol.VenueAgent, map[string]any{"venue": "loft"}))
	tracker.Apply(completed(protocol.ThemeAgent, map[string]any{"theme": "neon nights"}))

	result, ok := tracker.ResultFor(protocol.ThemeAgent)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"theme": "neon nights"}, result)
}

func TestTracker_ExampleScript(t *testing.T) {
	// [(running:A), (completed:A), (running:B), (error:B)]
	tracker := NewTracker()
	tracker.MarkRunning()

	tracker.Apply(running("agent_a"))
	tracker.Apply(completed("agent_a", nil))
	tracker.Apply(running("agent_b"))
	tracker.Apply(failed("agent_b", "agent b exploded"))

	assert.Equal(t, []string{"agent_a"}, tracker.CompletedAgents())
	msg, ok := tracker.ErrorFor("agent_b")
	require.True(t, ok)
	assert.Equal(t, "agent b exploded", msg)
	assert.Equal(t, StatusError, tracker.Status())
	agent, _ := tracker.CurrentAgent()
	assert.Equal(t, "agent_b", agent)
}

func TestTracker_ResetDiscardsEverything(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkOpen()
	tracker.Apply(running(protocol.ThemeAgent))
	tracker.Apply(completed(protocol.ThemeAgent, "x"))
	tracker.Apply(failed(protocol.VenueAgent, "boom"))

	tracker.Reset()

	assert.Equal(t, StatusIdle, tracker.Status())
	assert.False(t, tracker.Connected())
	assert.Zero(t, tracker.UpdateCount())
	assert.Empty(t, tracker.CompletedAgents())
	_, ok := tracker.CurrentAgent()
	assert.False(t, ok)
	_, ok = tracker.ErrorFor(protocol.VenueAgent)
	assert.False(t, ok)
}

func TestTracker_ConnectionLifecycle(t *testing.T) {
	tracker := NewTracker()

	tracker.MarkConnecting()
	assert.Equal(t, StatusConnecting, tracker.Status())

	tracker.MarkOpen()
	assert.True(t, tracker.Connected())
	assert.Equal(t, StatusRunning, tracker.Status())

	tracker.MarkClosed()
	assert.False(t, tracker.Connected())
	// A clean close keeps the last known workflow status.
	assert.Equal(t, StatusRunning, tracker.Status())

	tracker.MarkTransportError()
	assert.Equal(t, StatusError, tracker.Status())
}

func TestTracker_OpenKeepsTerminalStatus(t *testing.T) {
	tracker := NewTracker()
	tracker.Apply(completed(protocol.PlannerAgent, nil))
	require.Equal(t, StatusCompleted, tracker.Status())

	tracker.MarkConnecting()
	tracker.MarkOpen()
	assert.Equal(t, StatusCompleted, tracker.Status())
}
