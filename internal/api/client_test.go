// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/festivo/festivo/internal/protocol"
)

func TestStartPlan(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/plans", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req protocol.StartPlanRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Inputs, 2)
		assert.Equal(t, protocol.SourceURL, req.Inputs[0].SourceType)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(protocol.StartPlanResponse{SessionID: "sess-123"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	resp, err := client.StartPlan(context.Background(), protocol.StartPlanRequest{
		Inputs: []protocol.PlanInput{
			{SourceType: protocol.SourceURL, Content: "https://example.com/inspo"},
			{SourceType: protocol.SourceText, Content: "garden party, 40 guests"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-123", resp.SessionID)
}

func TestStartPlan_RequiresInputs(t *testing.T) {
	client := NewClient("http://localhost:0", time.Second)
	_, err := client.StartPlan(context.Background(), protocol.StartPlanRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one input")
}

func TestStartPlan_EmptySessionID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.StartPlan(context.Background(), protocol.StartPlanRequest{
		Inputs: []protocol.PlanInput{{SourceType: protocol.SourceText, Content: "beach party"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session id")
}

func TestStartPlan_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "orchestrator unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.StartPlan(context.Background(), protocol.StartPlanRequest{
		Inputs: []protocol.PlanInput{{SourceType: protocol.SourceText, Content: "beach party"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
	assert.Contains(t, err.Error(), "orchestrator unavailable")
}

func TestSubmitFeedback(t *testing.T) {
	var got protocol.FeedbackRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/feedback", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	err := client.SubmitFeedback(context.Background(), "sess-123", map[string]any{"venue": "too far"})
	require.NoError(t, err)
	assert.Equal(t, "sess-123", got.SessionID)
	assert.Equal(t, "too far", got.Feedback["venue"])
}

func TestFetchStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/plans/sess-123/status", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.StatusSnapshot{
			SessionID: "sess-123",
			Updates: []protocol.AgentUpdate{
				{Kind: protocol.KindAgentUpdate, Agent: protocol.ThemeAgent, Status: protocol.AgentCompleted},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	snap, err := client.FetchStatus(context.Background(), "sess-123")
	require.NoError(t, err)
	assert.Equal(t, "sess-123", snap.SessionID)
	require.Len(t, snap.Updates, 1)
	assert.Equal(t, protocol.ThemeAgent, snap.Updates[0].Agent)
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	client := NewClient("http://example.com/", time.Second)
	assert.Equal(t, "http://example.com", client.baseURL)
}
