// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package demoserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/festivo/festivo/internal/protocol"
	"github.com/festivo/festivo/internal/replay"
)

const (
	// WebSocket limits
	maxMessageSize = 4096
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	writeWait      = 10 * time.Second
)

// newUpgrader creates a WebSocket upgrader that respects the configured allowed
// origins. When allowedOrigins is empty the upgrader accepts any origin
// (localhost development mode). When set, only those origins are permitted.
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			_, ok := allowed[origin]
			return ok
		},
	}
}

// feedClient is one connected status feed consumer. All writes go through
// the send channel so the script replayer and the read loop never write to
// the socket concurrently.
type feedClient struct {
	conn *websocket.Conn
	send chan protocol.AgentUpdate
}

// HandleStatusFeed upgrades an HTTP connection for GET /ws/{sessionID} and
// replays the session's scenario as JSON text frames.
func HandleStatusFeed(sessions *sessionRegistry, allowedOrigins []string) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		scenario, ok := sessions.scenarioFor(sessionID)
		if !ok {
			http.Error(w, "unknown session", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			getLog().Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}

		client := &feedClient{
			conn: conn,
			send: make(chan protocol.AgentUpdate, 64),
		}
		getLog().Info().Str("session_id", sessionID).Str("scenario", scenario.Name).Str("remote", r.RemoteAddr).Msg("Status feed client connected")

		done := make(chan struct{})
		go client.writePump(done)
		go client.replayScript(scenario, done)
		client.readPump(sessionID, done)
	}
}

// replayScript pushes the scenario's updates into the send channel on the
// script's own timeline.
func (c *feedClient) replayScript(scenario replay.Scenario, done <-chan struct{}) {
	for _, step := range scenario.Steps {
		timer := time.NewTimer(step.Delay)
		select {
		case <-done:
			timer.Stop()
			return
		case <-timer.C:
		}
		select {
		case c.send <- step.Update:
		case <-done:
			return
		}
	}
}

// readPump consumes client frames: ping → pong, status → status_response.
// Anything else is logged and ignored.
func (c *feedClient) readPump(sessionID string, done chan struct{}) {
	defer func() {
		close(done)
		c.conn.Close()
		getLog().Info().Str("session_id", sessionID).Msg("Status feed client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				getLog().Error().Err(err).Msg("Status feed read error")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg protocol.ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			getLog().Warn().Err(err).Msg("Invalid status feed message")
			continue
		}

		switch msg.Type {
		case protocol.MessagePing:
			c.enqueue(protocol.AgentUpdate{Kind: protocol.KindPong})
		case protocol.MessageStatus:
			c.enqueue(protocol.AgentUpdate{
				Kind:    protocol.KindStatusResponse,
				Message: fmt.Sprintf("session %s replaying", sessionID),
			})
		default:
			getLog().Warn().Str("type", msg.Type).Msg("Unknown status feed message type")
		}
	}
}

func (c *feedClient) enqueue(update protocol.AgentUpdate) {
	select {
	case c.send <- update:
	default:
		// client too slow, skip
		getLog().Warn().Msg("Dropping update for slow status feed client")
	}
}

func (c *feedClient) writePump(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case update := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(update); err != nil {
				getLog().Error().Err(err).Msg("Status feed write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
