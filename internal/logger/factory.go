// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"github.com/rs/zerolog"
)

// Static logger getters that map directly to config.yaml log.levels
// These ensure consistent logger names across the codebase

// GetAPILogger returns a logger for backend API calls
func GetAPILogger() zerolog.Logger {
	return GetLogger("api")
}

// GetStreamLogger returns a logger for the live status feed
func GetStreamLogger() zerolog.Logger {
	return GetLogger("stream")
}

// GetReplayLogger returns a logger for scripted demo playback
func GetReplayLogger() zerolog.Logger {
	return GetLogger("replay")
}

// GetDemoServerLogger returns a logger for the demo studio server
func GetDemoServerLogger() zerolog.Logger {
	return GetLogger("demoserver")
}

// GetHistoryLogger returns a logger for the session history store
func GetHistoryLogger() zerolog.Logger {
	return GetLogger("history")
}
