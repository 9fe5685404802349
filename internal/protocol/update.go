// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Here lies the definition of the data the orchestration backend sends to a
// client over the per-session status feed. Everything the feed emits is an
// AgentUpdate; the Kind field discriminates real agent progress from
// connection chatter (pongs, status responses). Clients reduce these into a
// WorkflowState, they never act on individual frames directly.
package protocol

import (
	"encoding/json"
	"fmt"
)

// UpdateKind discriminates the message types emitted by the status feed.
type UpdateKind string

const (
	KindAgentUpdate    UpdateKind = "agent_update"
	KindConnection     UpdateKind = "connection"
	KindStatusResponse UpdateKind = "status_response"
	KindPong           UpdateKind = "pong"
)

// AgentStatus is the progress state an agent reports in an update.
type AgentStatus string

const (
	AgentRunning   AgentStatus = "running"
	AgentCompleted AgentStatus = "completed"
	AgentError     AgentStatus = "error"
)

// Well-known agent identifiers. The backend is free to introduce new agents;
// clients must treat the agent field as an open string key.
const (
	ThemeAgent         = "theme_agent"
	VenueAgent         = "venue_agent"
	CateringAgent      = "catering_agent"
	EntertainmentAgent = "entertainment_agent"
	BudgetAgent        = "budget_agent"

	// PlannerAgent is the terminal agent: its completion marks the whole
	// planning workflow as complete.
	PlannerAgent = "planner_agent"
)

// AgentUpdate is the wire unit of the status feed.
//
// Timestamp is advisory only - ordering is by arrival, never by this field.
// Result is an opaque payload attached on completion; its shape is owned by
// the individual agent.
type AgentUpdate struct {
	Kind      UpdateKind  `json:"kind"`
	Agent     string      `json:"agent,omitempty"`
	Status    AgentStatus `json:"status,omitempty"`
	Result    any         `json:"result,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// WellFormed reports whether the update carries the fields its status
// requires: completed and error transitions need an agent identity, error
// transitions additionally need an error description. Updates failing this
// check are still appended to the audit log, they just drive no transition.
func (u AgentUpdate) WellFormed() bool {
	if u.Kind != KindAgentUpdate {
		return true
	}
	switch u.Status {
	case AgentCompleted:
		return u.Agent != ""
	case AgentError:
		return u.Agent != "" && u.Error != ""
	default:
		return true
	}
}

// ParseUpdate decodes a single status-feed frame. Callers are expected to
// fail soft: log the error, drop the frame, keep the stream alive.
func ParseUpdate(data []byte) (AgentUpdate, error) {
	var u AgentUpdate
	if err := json.Unmarshal(data, &u); err != nil {
		return AgentUpdate{}, fmt.Errorf("failed to parse agent update: %w", err)
	}
	return u, nil
}
