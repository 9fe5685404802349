// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package demoserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/festivo/festivo/internal/protocol"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	sessions *sessionRegistry
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		getLog().Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// StartPlan handles POST /api/v1/plans. The scenario to replay may be named
// in the request metadata under "scenario"; otherwise the default applies.
func (h *Handlers) StartPlan(w http.ResponseWriter, r *http.Request) {
	var req protocol.StartPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body", "context": err.Error()})
		return
	}
	if len(req.Inputs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "At least one input is required"})
		return
	}

	scenario := ""
	if v, ok := req.Metadata["scenario"].(string); ok {
		scenario = v
	}

	sessionID, err := h.sessions.create(scenario)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Failed to create session", "context": err.Error()})
		return
	}

	getLog().Info().Str("session_id", sessionID).Str("scenario", scenario).Msg("Demo plan started")
	writeJSON(w, http.StatusCreated, protocol.StartPlanResponse{SessionID: sessionID})
}

// GetStatus handles GET /api/v1/plans/{sessionID}/status - the polling
// fallback. The snapshot holds the updates the script would have emitted by
// now, measured against the session's start time, so a poll right after
// start does not leak the script's future.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sc, ok := h.sessions.scenarioFor(sessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Unknown session"})
		return
	}
	elapsed, _ := h.sessions.elapsed(sessionID)

	snap := protocol.StatusSnapshot{SessionID: sessionID}
	var fireAt time.Duration
	for _, step := range sc.Steps {
		fireAt += step.Delay
		if fireAt > elapsed {
			break
		}
		snap.Updates = append(snap.Updates, step.Update)
	}
	writeJSON(w, http.StatusOK, snap)
}

// SubmitFeedback handles POST /api/v1/feedback. The demo just logs it.
func (h *Handlers) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req protocol.FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body", "context": err.Error()})
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	getLog().Info().Str("session_id", req.SessionID).Interface("feedback", req.Feedback).Msg("Feedback received")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// scenarioInfo is the list representation of a scenario.
type scenarioInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       int    `json:"steps"`
	DurationMS  int64  `json:"duration_ms"`
}

// ListScenarios handles GET /api/v1/scenarios.
func (h *Handlers) ListScenarios(w http.ResponseWriter, r *http.Request) {
	var out []scenarioInfo
	for _, sc := range h.sessions.scenarios() {
		out = append(out, scenarioInfo{
			Name:        sc.Name,
			Description: sc.Description,
			Steps:       len(sc.Steps),
			DurationMS:  sc.Duration().Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
