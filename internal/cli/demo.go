// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/festivo/festivo/internal/history"
	"github.com/festivo/festivo/internal/logger"
	"github.com/festivo/festivo/internal/protocol"
	"github.com/festivo/festivo/internal/replay"
	"github.com/festivo/festivo/internal/status"
)

func demoCommand(args []string) error {
	var configPath, scenarioName string
	var list, noColor bool
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to config file")
	fs.StringVar(&scenarioName, "scenario", "", "Scenario to replay (defaults to the configured one)")
	fs.BoolVar(&list, "list", false, "List available scenarios")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := setup(configPath)
	if err != nil {
		return err
	}

	library, err := replay.Library(cfg.Demo.ScenarioDir)
	if err != nil {
		return err
	}

	if list {
		names := lo.Keys(library)
		sort.Strings(names)
		for _, name := range names {
			sc := library[name]
			fmt.Printf("%-16s %s (%d steps, %s)\n", sc.Name, sc.Description, len(sc.Steps), sc.Duration())
		}
		return nil
	}

	if scenarioName == "" {
		scenarioName = cfg.Demo.DefaultScenario
	}
	scenario, ok := library[scenarioName]
	if !ok {
		return fmt.Errorf("unknown scenario: %s (try 'festivo demo --list')", scenarioName)
	}

	fmt.Printf("Replaying %s: %s\n\n", scenario.Name, scenario.Description)

	tracker := status.NewTracker()
	player := replay.NewPlayer(tracker, func(u protocol.AgentUpdate) {
		printUpdate(u, noColor)
	})

	sessionID := "demo-" + uuid.New().String()
	store, storeErr := history.Open(cfg.History.Path)
	if storeErr == nil {
		if err := store.Begin(sessionID, history.SourceDemo, scenario.Name); err != nil {
			hl := logger.GetHistoryLogger()
			hl.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to record session start")
		}
		defer store.Close()
	}

	done := player.Start(scenario)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-done:
	case <-sigChan:
		player.Stop()
		fmt.Println("\nInterrupted.")
	}

	printSummary(tracker)
	if storeErr == nil {
		if err := store.Finish(sessionID, string(tracker.Status())); err != nil {
			hl := logger.GetHistoryLogger()
			hl.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to record session finish")
		}
	}
	return nil
}
