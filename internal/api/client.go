// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the orchestration backend. A Client is
// explicitly constructed and injected - there is deliberately no package
// level instance; its lifecycle belongs to whoever owns the session.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/festivo/festivo/internal/logger"
	"github.com/festivo/festivo/internal/protocol"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetAPILogger()
		log = &l
	})
	return log
}

// Client calls the orchestration backend's REST surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// StartPlan submits the planning inputs and returns the session identifier
// used to address the live status feed.
func (c *Client) StartPlan(ctx context.Context, req protocol.StartPlanRequest) (protocol.StartPlanResponse, error) {
	var resp protocol.StartPlanResponse
	if len(req.Inputs) == 0 {
		return resp, fmt.Errorf("start plan: at least one input is required")
	}
	if err := c.postJSON(ctx, "/api/v1/plans", req, &resp); err != nil {
		return resp, err
	}
	if resp.SessionID == "" {
		return resp, fmt.Errorf("start plan: backend returned no session id")
	}
	getLog().Info().Str("session_id", resp.SessionID).Int("inputs", len(req.Inputs)).Msg("Plan started")
	return resp, nil
}

// SubmitFeedback sends structured feedback for a session. Fire-and-forget:
// the caller only learns whether the request itself was accepted.
func (c *Client) SubmitFeedback(ctx context.Context, sessionID string, feedback map[string]any) error {
	req := protocol.FeedbackRequest{SessionID: sessionID, Feedback: feedback}
	if err := c.postJSON(ctx, "/api/v1/feedback", req, nil); err != nil {
		return err
	}
	getLog().Debug().Str("session_id", sessionID).Msg("Feedback submitted")
	return nil
}

// FetchStatus is the polling fallback to the push feed: it returns every
// update the session has emitted so far, in emission order.
func (c *Client) FetchStatus(ctx context.Context, sessionID string) (protocol.StatusSnapshot, error) {
	var snap protocol.StatusSnapshot
	err := c.getJSON(ctx, "/api/v1/plans/"+sessionID+"/status", &snap)
	return snap, err
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	getLog().Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Backend request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: unexpected status %d: %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}
