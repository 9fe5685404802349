// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"flag"
	"fmt"

	"github.com/festivo/festivo/internal/history"
)

func watchCommand(args []string) error {
	var configPath string
	var noColor bool
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := setup(configPath)
	if err != nil {
		return err
	}

	sessionID := fs.Arg(0)
	if sessionID == "" {
		// Fall back to the most recent session on record.
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("no session id given and history unavailable: %w", err)
		}
		defer store.Close()
		rec, ok, err := store.Latest()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no session id given and no past sessions on record")
		}
		sessionID = rec.SessionID
		fmt.Printf("Re-attaching to latest session %s\n\n", sessionID)
	}

	_, err = followSession(cfg, sessionID, noColor)
	return err
}
