// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream owns the persistent WebSocket connection to a session's
// live status feed and bridges its frames into the status tracker.
package stream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/festivo/festivo/internal/logger"
	"github.com/festivo/festivo/internal/protocol"
	"github.com/festivo/festivo/internal/status"
)

const (
	defaultPingInterval   = 30 * time.Second
	defaultReconnectDelay = 3 * time.Second
	defaultMaxMessageSize = 1 << 16
	handshakeTimeout      = 10 * time.Second
	writeWait             = 10 * time.Second
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetStreamLogger()
		log = &l
	})
	return log
}

// Options tunes a Manager. Zero values fall back to defaults.
type Options struct {
	// PingInterval is the keep-alive ping period.
	PingInterval time.Duration

	// ReconnectDelay is the fixed backoff before a reconnect attempt.
	ReconnectDelay time.Duration

	// ExponentialBackoff doubles the reconnect delay per consecutive
	// failure, capped at MaxReconnectDelay. The backend's own client uses a
	// fixed delay; this is an opt-in hardening for flaky networks.
	ExponentialBackoff bool
	MaxReconnectDelay  time.Duration

	// MaxMessageSize bounds inbound frames.
	MaxMessageSize int64

	// OnUpdate, when set, is invoked after each update has been applied to
	// the tracker, in arrival order.
	OnUpdate func(protocol.AgentUpdate)
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = defaultReconnectDelay
	}
	if o.MaxReconnectDelay <= 0 {
		o.MaxReconnectDelay = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	return o
}

// Manager owns exactly one logical transport per session. Lifecycle:
// idle → connecting → open → (closed → connecting)* → closed(final).
//
// At most one reconnect timer and one ping loop are outstanding at a
// time. Close makes the manager inert: a reconnect scheduled just before
// teardown is cancelled, never fired.
type Manager struct {
	endpoint string
	tracker  *status.Tracker
	opts     Options

	mu        sync.Mutex
	conn      *websocket.Conn
	reconnect *time.Timer
	attempts  int
	closed    bool

	// writeMu serializes all socket writes. The transport allows only one
	// concurrent writer, and both the keep-alive ping and RequestStatus can
	// write at the same time.
	writeMu sync.Mutex
}

// New creates a manager for the given status-feed endpoint. The tracker is
// owned by the caller; the manager is its only mutator while running.
func New(endpoint string, tracker *status.Tracker, opts Options) *Manager {
	return &Manager{
		endpoint: endpoint,
		tracker:  tracker,
		opts:     opts.withDefaults(),
	}
}

// Start begins the first connect attempt. Non-blocking.
func (m *Manager) Start() {
	go m.connect()
}

// connect dials the endpoint and, on success, starts the read pump and
// ping loop. On failure it schedules a single reconnect.
func (m *Manager) connect() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.tracker.MarkConnecting()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.Dial(m.endpoint, nil)
	if err != nil {
		getLog().Warn().Err(err).Str("endpoint", m.endpoint).Msg("Status feed connect failed")
		m.tracker.MarkTransportError()
		m.scheduleReconnect()
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.attempts = 0
	m.mu.Unlock()

	m.tracker.MarkOpen()
	getLog().Info().Str("endpoint", m.endpoint).Msg("Status feed connected")

	// done is closed by the read pump on exit and cancels the ping loop the
	// instant the transport closes.
	done := make(chan struct{})
	go m.pingLoop(conn, done)
	go m.readPump(conn, done)
}

func (m *Manager) readPump(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	conn.SetReadLimit(m.opts.MaxMessageSize)

	transportErr := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				getLog().Error().Err(err).Msg("Status feed read error")
				transportErr = true
			}
			break
		}

		update, err := protocol.ParseUpdate(data)
		if err != nil {
			// Malformed frame: log, drop, keep the stream alive.
			getLog().Warn().Err(err).Msg("Dropping malformed status frame")
			continue
		}
		m.tracker.Apply(update)
		if m.opts.OnUpdate != nil {
			m.opts.OnUpdate(update)
		}
	}

	conn.Close()

	m.mu.Lock()
	if m.conn == conn {
		m.conn = nil
	}
	closed := m.closed
	m.mu.Unlock()

	if transportErr {
		m.tracker.MarkTransportError()
	} else {
		m.tracker.MarkClosed()
	}

	if !closed {
		m.scheduleReconnect()
	}
}

func (m *Manager) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(m.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := m.writeJSON(conn, protocol.NewPing()); err != nil {
				getLog().Warn().Err(err).Msg("Keep-alive write failed")
				return
			}
		}
	}
}

// writeJSON is the single write path to the socket. The ping ticker and
// RequestStatus run on different goroutines, and the transport tolerates
// only one writer at a time.
func (m *Manager) writeJSON(conn *websocket.Conn, v any) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// scheduleReconnect arms the single reconnect timer unless the manager has
// been torn down or a timer is already pending.
func (m *Manager) scheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.reconnect != nil {
		return
	}

	delay := m.opts.ReconnectDelay
	if m.opts.ExponentialBackoff {
		for i := 0; i < m.attempts && delay < m.opts.MaxReconnectDelay; i++ {
			delay *= 2
		}
		if delay > m.opts.MaxReconnectDelay {
			delay = m.opts.MaxReconnectDelay
		}
	}
	m.attempts++

	getLog().Debug().Dur("delay", delay).Int("attempt", m.attempts).Msg("Scheduling status feed reconnect")
	m.reconnect = time.AfterFunc(delay, func() {
		m.mu.Lock()
		m.reconnect = nil
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return
		}
		m.connect()
	})
}

// RequestStatus asks the feed for a status_response frame. No-op when the
// transport is not open.
func (m *Manager) RequestStatus() {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}
	if err := m.writeJSON(conn, protocol.NewStatusRequest()); err != nil {
		getLog().Warn().Err(err).Msg("Status request write failed")
	}
}

// Close tears the manager down: cancels any pending reconnect, stops the
// ping loop, closes the transport, and makes the manager inert.
// Idempotent, and never races a concurrent reconnect - a timer that has
// already fired sees the closed flag and backs off.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.reconnect != nil {
		m.reconnect.Stop()
		m.reconnect = nil
	}
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	m.tracker.MarkClosed()
	getLog().Info().Msg("Status feed manager closed")
}
