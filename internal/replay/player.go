// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package replay

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/festivo/festivo/internal/logger"
	"github.com/festivo/festivo/internal/protocol"
	"github.com/festivo/festivo/internal/status"
)

var (
	log     *zerolog.Logger
	logOnce sync.Once
)

func getLog() *zerolog.Logger {
	logOnce.Do(func() {
		l := logger.GetReplayLogger()
		log = &l
	})
	return log
}

// Player replays a scenario against a status tracker on a single logical
// timeline. Steps fire in script order; restart and scenario switches always
// discard the previous run's state.
type Player struct {
	tracker  *status.Tracker
	onUpdate func(protocol.AgentUpdate)

	mu     sync.Mutex
	cancel chan struct{} // nil when no run is active
}

// NewPlayer creates a player bound to the given tracker. onUpdate, when
// non-nil, is invoked after each step has been applied, in firing order.
func NewPlayer(tracker *status.Tracker, onUpdate func(protocol.AgentUpdate)) *Player {
	return &Player{tracker: tracker, onUpdate: onUpdate}
}

// Start begins playback of the scenario. Any previous run is cancelled
// first, and the tracker is reset to a fresh running state - two scenarios'
// state is never merged. The returned channel closes when playback finishes
// or is stopped.
func (p *Player) Start(sc Scenario) <-chan struct{} {
	p.mu.Lock()
	if p.cancel != nil {
		close(p.cancel)
	}
	cancel := make(chan struct{})
	p.cancel = cancel
	p.mu.Unlock()

	p.tracker.Reset()
	p.tracker.MarkRunning()

	getLog().Info().Str("scenario", sc.Name).Int("steps", len(sc.Steps)).Msg("Starting scenario playback")

	done := make(chan struct{})
	go p.run(sc, cancel, done)
	return done
}

// Stop cancels all outstanding steps. After Stop returns, no step of the
// cancelled run will mutate the tracker - even a step whose delay had
// already elapsed but whose callback had not yet run.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		close(p.cancel)
		p.cancel = nil
	}
}

// Playing reports whether a run is active.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Player) run(sc Scenario, cancel chan struct{}, done chan struct{}) {
	defer close(done)

	for _, step := range sc.Steps {
		timer := time.NewTimer(step.Delay)
		select {
		case <-cancel:
			timer.Stop()
			return
		case <-timer.C:
		}

		// The apply is guarded by the player mutex so that cancellation
		// always wins: once Stop has returned, p.cancel no longer points at
		// this run and the step is dropped.
		p.mu.Lock()
		if p.cancel != cancel {
			p.mu.Unlock()
			return
		}
		p.tracker.Apply(step.Update)
		if p.onUpdate != nil {
			p.onUpdate(step.Update)
		}
		p.mu.Unlock()
	}

	p.mu.Lock()
	if p.cancel == cancel {
		p.cancel = nil
	}
	p.mu.Unlock()
	getLog().Debug().Str("scenario", sc.Name).Msg("Scenario playback finished")
}
