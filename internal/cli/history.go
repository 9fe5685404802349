// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"flag"
	"fmt"

	"github.com/festivo/festivo/internal/history"
)

func historyCommand(args []string) error {
	var configPath string
	var limit int
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.IntVar(&limit, "limit", 20, "Maximum number of sessions to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := setup(configPath)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No sessions on record.")
		return nil
	}

	fmt.Printf("%-38s %-6s %-16s %-10s %s\n", "SESSION", "SOURCE", "SCENARIO", "STATUS", "STARTED")
	for _, rec := range records {
		scenario := rec.Scenario
		if scenario == "" {
			scenario = "-"
		}
		fmt.Printf("%-38s %-6s %-16s %-10s %s\n",
			rec.SessionID, rec.Source, scenario, rec.Status, rec.StartedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
