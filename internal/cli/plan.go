// Copyright (C) 2026 Festivo
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/festivo/festivo/internal/api"
	"github.com/festivo/festivo/internal/config"
	"github.com/festivo/festivo/internal/history"
	"github.com/festivo/festivo/internal/logger"
	"github.com/festivo/festivo/internal/protocol"
	"github.com/festivo/festivo/internal/status"
	"github.com/festivo/festivo/internal/stream"
)

type planOptions struct {
	configPath string
	noColor    bool
	urls       []string
	images     []string
	tags       []string
	scenario   string // forwarded in metadata so the demo studio can pick a script
}

func planCommand(args []string) error {
	opts := &planOptions{}
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	fs.StringVar(&opts.scenario, "scenario", "", "Demo scenario name (only meaningful against the demo studio)")
	fs.Func("url", "Inspiration page URL, can be repeated", func(s string) error {
		opts.urls = append(opts.urls, s)
		return nil
	})
	fs.Func("image", "Party photo reference, can be repeated", func(s string) error {
		opts.images = append(opts.images, s)
		return nil
	})
	fs.Func("tag", "Tag applied to the text input, can be repeated", func(s string) error {
		opts.tags = append(opts.tags, s)
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return err
	}

	description := strings.Join(fs.Args(), " ")
	if description == "" && len(opts.urls) == 0 && len(opts.images) == 0 {
		return fmt.Errorf("describe the party or pass --url/--image inputs")
	}

	cfg, err := setup(opts.configPath)
	if err != nil {
		return err
	}

	req := protocol.StartPlanRequest{}
	if description != "" {
		req.Inputs = append(req.Inputs, protocol.PlanInput{
			SourceType: protocol.SourceText,
			Content:    description,
			Tags:       opts.tags,
		})
	}
	for _, u := range opts.urls {
		req.Inputs = append(req.Inputs, protocol.PlanInput{SourceType: protocol.SourceURL, Content: u})
	}
	for _, img := range opts.images {
		req.Inputs = append(req.Inputs, protocol.PlanInput{SourceType: protocol.SourceImage, Content: img})
	}
	if opts.scenario != "" {
		req.Metadata = map[string]any{"scenario": opts.scenario}
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	resp, err := client.StartPlan(context.Background(), req)
	if err != nil {
		return err
	}
	fmt.Printf("Session: %s\n\n", resp.SessionID)

	store, storeErr := history.Open(cfg.History.Path)
	if storeErr == nil {
		if err := store.Begin(resp.SessionID, history.SourceLive, opts.scenario); err != nil {
			hl := logger.GetHistoryLogger()
			hl.Warn().Err(err).Str("session_id", resp.SessionID).Msg("Failed to record session start")
		}
		defer store.Close()
	}

	tracker, err := followSession(cfg, resp.SessionID, opts.noColor)
	if storeErr == nil {
		if ferr := store.Finish(resp.SessionID, string(tracker.Status())); ferr != nil {
			hl := logger.GetHistoryLogger()
			hl.Warn().Err(ferr).Str("session_id", resp.SessionID).Msg("Failed to record session finish")
		}
	}
	return err
}

// followSession attaches to a session's live feed and prints updates until
// the workflow reaches a terminal state or the user interrupts. The
// returned tracker holds the final observed state.
func followSession(cfg *config.AppConfig, sessionID string, noColor bool) (*status.Tracker, error) {
	tracker := status.NewTracker()

	updates := make(chan protocol.AgentUpdate, 64)
	manager := stream.New(cfg.API.StatusFeedURL(sessionID), tracker, stream.Options{
		PingInterval:       cfg.Stream.PingInterval,
		ReconnectDelay:     cfg.Stream.ReconnectDelay,
		ExponentialBackoff: cfg.Stream.ExponentialBackoff,
		MaxReconnectDelay:  cfg.Stream.MaxReconnectDelay,
		MaxMessageSize:     cfg.Stream.MaxMessageSize,
		OnUpdate: func(u protocol.AgentUpdate) {
			select {
			case updates <- u:
			default:
			}
		},
	})
	manager.Start()
	defer manager.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case u := <-updates:
			printUpdate(u, noColor)
			switch tracker.Status() {
			case status.StatusCompleted:
				printSummary(tracker)
				return tracker, nil
			case status.StatusError:
				printSummary(tracker)
				return tracker, fmt.Errorf("planning run failed")
			}
		case <-sigChan:
			fmt.Println("\nInterrupted.")
			printSummary(tracker)
			return tracker, nil
		}
	}
}
