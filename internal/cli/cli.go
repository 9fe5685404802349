// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/festivo/festivo/internal/config"
	"github.com/festivo/festivo/internal/logger"
	"github.com/festivo/festivo/internal/protocol"
	"github.com/festivo/festivo/internal/status"
)

const (
	appName    = "festivo"
	appVersion = "0.1.0-alpha"
)

// Execute runs the CLI application
func Execute() error {
	if len(os.Args) < 2 {
		return printUsage()
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "plan":
		return planCommand(args)
	case "watch":
		return watchCommand(args)
	case "demo":
		return demoCommand(args)
	case "feedback":
		return feedbackCommand(args)
	case "history":
		return historyCommand(args)
	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)
		return nil
	case "help", "-h", "--help":
		return printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		return printUsage()
	}
}

func printUsage() error {
	fmt.Printf(`%s - AI party planning client

Usage:
  %s <command> [arguments]

Commands:
  plan <description>   Start a planning run and follow its live status
  watch [session-id]   Re-attach to a session's live status feed
  demo                 List or replay scripted demo scenarios locally
  feedback             Submit feedback for a session
  history              List past planning sessions
  version              Print version information
  help                 Show this help message

Examples:
  %s plan "Neon-themed birthday for 30 people"
  %s plan --url https://example.com/moodboard "Office summer party"
  %s watch 4f7c21aa-demo
  %s demo --list
  %s demo --scenario venue_failure
  %s feedback --session 4f7c21aa-demo --message "venue was perfect"
  %s history

`, appName, appName, appName, appName, appName, appName, appName, appName, appName)
	return nil
}

// setup loads config and initializes the global logger.
func setup(configPath string) (*config.AppConfig, error) {
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Initialize(&cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// printUpdate renders one agent update on the terminal.
func printUpdate(u protocol.AgentUpdate, noColor bool) {
	if u.Kind != protocol.KindAgentUpdate || u.Agent == "" {
		return
	}

	mark, color := "·", "\033[90m"
	switch u.Status {
	case protocol.AgentRunning:
		mark, color = "▶", "\033[36m"
	case protocol.AgentCompleted:
		mark, color = "✔", "\033[32m"
	case protocol.AgentError:
		mark, color = "✘", "\033[31m"
	}

	line := fmt.Sprintf("%s %-20s %s", mark, u.Agent, u.Status)
	if u.Message != "" {
		line += " - " + u.Message
	}
	if u.Error != "" {
		line += " - " + u.Error
	}

	if noColor {
		fmt.Println(line)
	} else {
		fmt.Printf("%s%s\033[0m\n", color, line)
	}
}

// printSummary renders the facade's view of a finished (or interrupted) run.
func printSummary(tracker *status.Tracker) {
	fmt.Println()
	fmt.Printf("Status:    %s\n", tracker.Status())
	if agent, ok := tracker.CurrentAgent(); ok {
		fmt.Printf("Last seen: %s\n", agent)
	}
	if agents := tracker.CompletedAgents(); len(agents) > 0 {
		fmt.Printf("Completed: %v\n", agents)
	}
	for _, agent := range tracker.CompletedAgents() {
		if result, ok := tracker.ResultFor(agent); ok && result != nil {
			fmt.Printf("  %s: %v\n", agent, result)
		}
	}
}
