// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package demoserver

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/festivo/festivo/internal/replay"
)

// demoSession is one registered session: its scenario and when it started,
// so the polling fallback can tell which part of the script has played.
type demoSession struct {
	scenario  string
	startedAt time.Time
}

// sessionRegistry maps demo session identifiers to their scenario.
type sessionRegistry struct {
	mu              sync.RWMutex
	library         map[string]replay.Scenario
	defaultScenario string
	sessions        map[string]demoSession
}

func newSessionRegistry(library map[string]replay.Scenario, defaultScenario string) *sessionRegistry {
	return &sessionRegistry{
		library:         library,
		defaultScenario: defaultScenario,
		sessions:        make(map[string]demoSession),
	}
}

// create registers a fresh session for the named scenario ("" picks the
// default) and returns its identifier.
func (r *sessionRegistry) create(scenario string) (string, error) {
	if scenario == "" {
		scenario = r.defaultScenario
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.library[scenario]; !ok {
		return "", fmt.Errorf("unknown scenario: %s", scenario)
	}
	id := uuid.New().String()
	r.sessions[id] = demoSession{scenario: scenario, startedAt: time.Now()}
	return id, nil
}

// scenarioFor resolves a session identifier to its scenario.
func (r *sessionRegistry) scenarioFor(sessionID string) (replay.Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		return replay.Scenario{}, false
	}
	sc, ok := r.library[sess.scenario]
	return sc, ok
}

// elapsed returns how long ago the session was created.
func (r *sessionRegistry) elapsed(sessionID string) (time.Duration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[sessionID]
	if !ok {
		return 0, false
	}
	return time.Since(sess.startedAt), true
}

// scenarios lists the scenario library.
func (r *sessionRegistry) scenarios() []replay.Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]replay.Scenario, 0, len(r.library))
	for _, sc := range r.library {
		out = append(out, sc)
	}
	return out
}
