// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package replay deterministically plays scripted timelines of AgentUpdates
// against the status tracker - the demo studio's stand-in for the live
// orchestration backend.
package replay

import (
	"time"

	"github.com/festivo/festivo/internal/protocol"
)

// Step is one scripted event: wait Delay after the previous step, then
// deliver Update. Delays are relative - fire times are the running sum.
type Step struct {
	Delay  time.Duration
	Update protocol.AgentUpdate
}

// Scenario is a fixed, ordered script of steps.
type Scenario struct {
	Name        string
	Description string
	Steps       []Step
}

// Duration returns the total scripted playback time.
func (s Scenario) Duration() time.Duration {
	var total time.Duration
	for _, step := range s.Steps {
		total += step.Delay
	}
	return total
}

// --- step builders ---

func running(delay time.Duration, agent, message string) Step {
	return Step{Delay: delay, Update: protocol.AgentUpdate{
		Kind:    protocol.KindAgentUpdate,
		Agent:   agent,
		Status:  protocol.AgentRunning,
		Message: message,
	}}
}

func completed(delay time.Duration, agent string, result any) Step {
	return Step{Delay: delay, Update: protocol.AgentUpdate{
		Kind:   protocol.KindAgentUpdate,
		Agent:  agent,
		Status: protocol.AgentCompleted,
		Result: result,
	}}
}

func failed(delay time.Duration, agent, errMsg string) Step {
	return Step{Delay: delay, Update: protocol.AgentUpdate{
		Kind:   protocol.KindAgentUpdate,
		Agent:  agent,
		Status: protocol.AgentError,
		Error:  errMsg,
	}}
}

// HappyPath is the default demo: every agent succeeds, the planner wraps up.
func HappyPath() Scenario {
	return Scenario{
		Name:        "happy_path",
		Description: "Full planning run, every agent succeeds",
		Steps: []Step{
			running(0, protocol.ThemeAgent, "Analyzing party vibe"),
			completed(900*time.Millisecond, protocol.ThemeAgent, map[string]any{
				"theme": "neon nights", "palette": []string{"#ff2d95", "#00f0ff"},
			}),
			running(200*time.Millisecond, protocol.VenueAgent, "Searching venues nearby"),
			completed(1200*time.Millisecond, protocol.VenueAgent, map[string]any{
				"venue": "The Glasshouse", "capacity": 120,
			}),
			running(150*time.Millisecond, protocol.CateringAgent, "Matching menus to theme"),
			completed(800*time.Millisecond, protocol.CateringAgent, map[string]any{
				"menu": "street food stations",
			}),
			running(150*time.Millisecond, protocol.EntertainmentAgent, "Booking entertainment"),
			completed(700*time.Millisecond, protocol.EntertainmentAgent, map[string]any{
				"acts": []string{"DJ set", "photo booth"},
			}),
			running(100*time.Millisecond, protocol.BudgetAgent, "Balancing the budget"),
			completed(600*time.Millisecond, protocol.BudgetAgent, map[string]any{
				"total": 4800, "currency": "USD",
			}),
			running(100*time.Millisecond, protocol.PlannerAgent, "Assembling the final plan"),
			completed(900*time.Millisecond, protocol.PlannerAgent, map[string]any{
				"plan_id": "demo-plan-001",
			}),
		},
	}
}

// VenueFailure demos an agent error: the venue search fails and the
// workflow goes sticky-error while other agents keep reporting.
func VenueFailure() Scenario {
	return Scenario{
		Name:        "venue_failure",
		Description: "Venue search fails, workflow ends in error",
		Steps: []Step{
			running(0, protocol.ThemeAgent, "Analyzing party vibe"),
			completed(800*time.Millisecond, protocol.ThemeAgent, map[string]any{"theme": "garden brunch"}),
			running(200*time.Millisecond, protocol.VenueAgent, "Searching venues nearby"),
			failed(1500*time.Millisecond, protocol.VenueAgent, "no venues available for the requested date"),
			running(200*time.Millisecond, protocol.CateringAgent, "Matching menus to theme"),
			completed(700*time.Millisecond, protocol.CateringAgent, map[string]any{"menu": "brunch boards"}),
		},
	}
}

// SlowVenue demos a long-running middle agent for spinner/progress QA.
func SlowVenue() Scenario {
	return Scenario{
		Name:        "slow_venue",
		Description: "Venue search takes a while, with progress chatter",
		Steps: []Step{
			running(0, protocol.ThemeAgent, "Analyzing party vibe"),
			completed(600*time.Millisecond, protocol.ThemeAgent, map[string]any{"theme": "retro arcade"}),
			running(200*time.Millisecond, protocol.VenueAgent, "Searching venues nearby"),
			running(2*time.Second, protocol.VenueAgent, "Still searching, widening radius"),
			running(2*time.Second, protocol.VenueAgent, "Checking availability"),
			completed(2*time.Second, protocol.VenueAgent, map[string]any{"venue": "Pixel Hall"}),
			running(100*time.Millisecond, protocol.PlannerAgent, "Assembling the final plan"),
			completed(800*time.Millisecond, protocol.PlannerAgent, map[string]any{"plan_id": "demo-plan-slow"}),
		},
	}
}

// BuiltIn returns the scenarios shipped with the demo studio.
func BuiltIn() []Scenario {
	return []Scenario{HappyPath(), VenueFailure(), SlowVenue()}
}
