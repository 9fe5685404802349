// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

// SourceType classifies a planning input: a party photo to analyze, a link
// to an inspiration page, or free-form text from the wizard.
type SourceType string

const (
	SourceImage SourceType = "image"
	SourceURL   SourceType = "url"
	SourceText  SourceType = "text"
)

// PlanInput is one typed input to the orchestration backend.
type PlanInput struct {
	SourceType SourceType     `json:"source_type"`
	Content    string         `json:"content"`
	Tags       []string       `json:"tags,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// StartPlanRequest kicks off one end-to-end planning run.
type StartPlanRequest struct {
	Inputs   []PlanInput    `json:"inputs"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// StartPlanResponse carries the session identifier used to address the live
// status feed for this run.
type StartPlanResponse struct {
	SessionID string `json:"session_id"`
}

// FeedbackRequest carries arbitrary structured feedback keyed to a session.
// Fire-and-forget from the client's perspective.
type FeedbackRequest struct {
	SessionID string         `json:"session_id"`
	Feedback  map[string]any `json:"feedback"`
}

// StatusSnapshot is the polling-fallback representation of a session's feed:
// every AgentUpdate emitted so far, in emission order. Feeding the updates to
// the reducer in order reproduces the same WorkflowState the push path
// would have built.
type StatusSnapshot struct {
	SessionID string        `json:"session_id"`
	Updates   []AgentUpdate `json:"updates"`
}
