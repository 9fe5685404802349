// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package replay

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festivo/festivo/internal/protocol"
	"github.com/festivo/festivo/internal/status"
)

// fastScript is a short timeline: running:A, completed:A, running:B, error:B.
func fastScript() Scenario {
	return Scenario{
		Name: "fast",
		Steps: []Step{
			running(0, "agent_a", ""),
			completed(10*time.Millisecond, "agent_a", map[string]any{"n": 1}),
			running(10*time.Millisecond, "agent_b", ""),
			failed(5*time.Millisecond, "agent_b", "agent b exploded"),
		},
	}
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not finish in time")
	}
}

func TestPlayer_PlaysScriptInOrder(t *testing.T) {
	tracker := status.NewTracker()

	var mu sync.Mutex
	var order []string
	player := NewPlayer(tracker, func(u protocol.AgentUpdate) {
		mu.Lock()
		order = append(order, u.Agent+":"+string(u.Status))
		mu.Unlock()
	})

	waitDone(t, player.Start(fastScript()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"agent_a:running",
		"agent_a:completed",
		"agent_b:running",
		"agent_b:error",
	}, order)

	assert.Equal(t, []string{"agent_a"}, tracker.CompletedAgents())
	msg, ok := tracker.ErrorFor("agent_b")
	require.True(t, ok)
	assert.Equal(t, "agent b exploded", msg)
	assert.Equal(t, status.StatusError, tracker.Status())
	agent, _ := tracker.CurrentAgent()
	assert.Equal(t, "agent_b", agent)
}

func TestPlayer_RestartIsDeterministic(t *testing.T) {
	tracker := status.NewTracker()

	var mu sync.Mutex
	var order []string
	player := NewPlayer(tracker, func(u protocol.AgentUpdate) {
		mu.Lock()
		order = append(order, u.Agent+":"+string(u.Status))
		mu.Unlock()
	})

	waitDone(t, player.Start(fastScript()))
	mu.Lock()
	firstOrder := append([]string(nil), order...)
	mu.Unlock()
	firstCompleted := tracker.CompletedAgents()
	firstStatus := tracker.Status()

	player.Stop()
	mu.Lock()
	order = nil
	mu.Unlock()

	waitDone(t, player.Start(fastScript()))
	mu.Lock()
	secondOrder := append([]string(nil), order...)
	mu.Unlock()

	assert.Equal(t, firstOrder, secondOrder)
	assert.Equal(t, firstCompleted, tracker.CompletedAgents())
	assert.Equal(t, firstStatus, tracker.Status())
	// Restart resets the audit log: same length both times.
	assert.Equal(t, len(fastScript().Steps), tracker.UpdateCount())
}

func TestPlayer_StopCancelsOutstandingSteps(t *testing.T) {
	tracker := status.NewTracker()
	player := NewPlayer(tracker, nil)

	sc := Scenario{
		Name: "slow",
		Steps: []Step{
			running(0, "agent_a", ""),
			completed(30*time.Second, "agent_a", nil), // must never fire
		},
	}
	done := player.Start(sc)

	// Let the first step land, then stop.
	require.Eventually(t, func() bool { return tracker.UpdateCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	player.Stop()
	waitDone(t, done)

	assert.Equal(t, 1, tracker.UpdateCount())
	assert.Empty(t, tracker.CompletedAgents())
	assert.False(t, player.Playing())
}

// Cancellation wins even with zero delay margin: Stop before the run
// goroutine applies anything guarantees no mutation.
func TestPlayer_StopRaceFreeAtZeroDelay(t *testing.T) {
	for i := 0; i < 50; i++ {
		tracker := status.NewTracker()
		player := NewPlayer(tracker, nil)

		sc := Scenario{
			Name:  "instant",
			Steps: []Step{completed(0, protocol.PlannerAgent, nil)},
		}
		done := player.Start(sc)
		player.Stop()
		count := tracker.UpdateCount()
		waitDone(t, done)

		// Whatever had applied before Stop returned is all that ever applies.
		assert.Equal(t, count, tracker.UpdateCount())
	}
}

func TestPlayer_SwitchingScenariosNeverMergesState(t *testing.T) {
	tracker := status.NewTracker()
	player := NewPlayer(tracker, nil)

	first := Scenario{
		Name: "first",
		Steps: []Step{
			completed(0, "agent_a", nil),
			completed(30*time.Second, "agent_zzz", nil), // never reached
		},
	}
	player.Start(first)
	require.Eventually(t, func() bool { return tracker.HasCompleted("agent_a") }, 2*time.Second, 5*time.Millisecond)

	second := Scenario{
		Name:  "second",
		Steps: []Step{completed(0, "agent_b", nil)},
	}
	waitDone(t, player.Start(second))

	assert.Equal(t, []string{"agent_b"}, tracker.CompletedAgents())
	assert.Equal(t, 1, tracker.UpdateCount())
}

func TestBuiltInScenarios(t *testing.T) {
	for _, sc := range BuiltIn() {
		t.Run(sc.Name, func(t *testing.T) {
			assert.NotEmpty(t, sc.Name)
			assert.NotEmpty(t, sc.Steps)
			for _, step := range sc.Steps {
				assert.True(t, step.Update.WellFormed(), "built-in step must be well-formed")
			}
		})
	}
}

func TestHappyPathEndsCompleted(t *testing.T) {
	tracker := status.NewTracker()
	tracker.MarkRunning()
	for _, step := range HappyPath().Steps {
		tracker.Apply(step.Update)
	}
	assert.Equal(t, status.StatusCompleted, tracker.Status())
	assert.Contains(t, tracker.CompletedAgents(), protocol.PlannerAgent)
}
