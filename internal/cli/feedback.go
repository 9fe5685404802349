// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/festivo/festivo/internal/api"
	"github.com/festivo/festivo/internal/history"
)

func feedbackCommand(args []string) error {
	var configPath, sessionID, message string
	fields := make(map[string]any)
	fs := flag.NewFlagSet("feedback", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.StringVar(&sessionID, "session", "", "Session ID (defaults to the latest session on record)")
	fs.StringVar(&message, "message", "", "Free-form feedback message")
	fs.Func("field", "Extra feedback field (key=value), can be repeated", func(s string) error {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid field format, use key=value")
		}
		fields[parts[0]] = parts[1]
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}

	if message == "" && len(fields) == 0 {
		return fmt.Errorf("nothing to submit: pass --message or --field")
	}

	cfg, err := setup(configPath)
	if err != nil {
		return err
	}

	if sessionID == "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("no session given and history unavailable: %w", err)
		}
		defer store.Close()
		rec, ok, err := store.Latest()
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no session given and no past sessions on record")
		}
		sessionID = rec.SessionID
	}

	if message != "" {
		fields["message"] = message
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	if err := client.SubmitFeedback(context.Background(), sessionID, fields); err != nil {
		return err
	}
	fmt.Printf("Feedback submitted for session %s\n", sessionID)
	return nil
}
